package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edualert/edualert/internal/domain/notification"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
// The table doubles as an outbox: failed rows below their retry budget are
// picked up again by the retry sweep.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

const notificationColumns = `
	id, type, recipient_id, channel, address, priority, status, subject, body,
	student_id, sent_at, delivered_at, retry_count, max_retries, last_error,
	metadata, created_at, updated_at
`

// GetByID returns a notification by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id notification.NotificationID) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	return scanNotification(r.conn.QueryRow(ctx, query, string(id)))
}

// GetPendingRetries returns failed notifications that still have retry
// budget, oldest first.
func (r *NotificationRepository) GetPendingRetries(ctx context.Context, limit int) ([]*notification.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = 'failed' AND retry_count < max_retries
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending retries: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// Save inserts a new notification.
func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	metadataJSON, err := marshalMetadata(n.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notifications (
			id, type, recipient_id, channel, address, priority, status, subject,
			body, student_id, sent_at, delivered_at, retry_count, max_retries,
			last_error, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = r.conn.Exec(ctx, query,
		string(n.ID),
		string(n.Type),
		string(n.RecipientID),
		string(n.Channel),
		n.Address,
		int(n.Priority),
		string(n.Status),
		n.Subject,
		n.Body,
		nullableID(n.StudentID),
		n.SentAt,
		n.DeliveredAt,
		n.RetryCount,
		n.MaxRetries,
		n.LastError,
		metadataJSON,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// Update rewrites the delivery state of a notification.
func (r *NotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	metadataJSON, err := marshalMetadata(n.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE notifications SET
			status = $1,
			sent_at = $2,
			delivered_at = $3,
			retry_count = $4,
			last_error = $5,
			metadata = $6,
			updated_at = $7
		WHERE id = $8
	`

	result, err := r.conn.Exec(ctx, query,
		string(n.Status),
		n.SentAt,
		n.DeliveredAt,
		n.RetryCount,
		n.LastError,
		metadataJSON,
		time.Now().UTC(),
		string(n.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var id, nType, recipientID, channel, status string
	var priority int
	var studentID *string
	var metadataJSON []byte

	err := row.Scan(
		&id,
		&nType,
		&recipientID,
		&channel,
		&n.Address,
		&priority,
		&status,
		&n.Subject,
		&n.Body,
		&studentID,
		&n.SentAt,
		&n.DeliveredAt,
		&n.RetryCount,
		&n.MaxRetries,
		&n.LastError,
		&metadataJSON,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, notification.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	n.ID = notification.NotificationID(id)
	n.Type = notification.NotificationType(nType)
	n.RecipientID = notification.RecipientID(recipientID)
	n.Channel = notification.Channel(channel)
	n.Priority = notification.Priority(priority)
	n.Status = notification.NotificationStatus(status)
	n.StudentID = deref(studentID)
	if len(metadataJSON) > 0 {
		_ = json.Unmarshal(metadataJSON, &n.Metadata)
	}
	return &n, nil
}

func marshalMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification metadata: %w", err)
	}
	return data, nil
}
