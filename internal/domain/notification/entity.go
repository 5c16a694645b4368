// Package notification contains the domain model for messages EduAlert
// sends to parents, students, teachers and principals: risk alerts,
// monthly absence reports and school situation summaries.
package notification

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationID is the unique identifier of a notification.
type NotificationID string

// IsValid checks the ID is not empty.
func (id NotificationID) IsValid() bool {
	return len(id) > 0
}

// String returns the string form of the ID.
func (id NotificationID) String() string {
	return string(id)
}

// RecipientID identifies the user profile the notification targets.
type RecipientID string

// IsValid checks the recipient ID is not empty.
func (id RecipientID) IsValid() bool {
	return len(id) > 0
}

// String returns the string form of the recipient ID.
func (id RecipientID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// NotificationType defines what kind of message this is.
type NotificationType string

const (
	// NotificationTypeRiskAlert tells a parent or class master that a
	// student entered or moved between risk levels.
	NotificationTypeRiskAlert NotificationType = "risk_alert"

	// NotificationTypeRiskCleared tells a parent the student left the
	// risk registry.
	NotificationTypeRiskCleared NotificationType = "risk_cleared"

	// NotificationTypeAbsenceThreshold fires when a student crosses the
	// monthly unfounded-absence threshold.
	NotificationTypeAbsenceThreshold NotificationType = "absence_threshold"

	// NotificationTypeAverageBelowLimit fires when a student has subjects
	// below the passing limit at the monthly check.
	NotificationTypeAverageBelowLimit NotificationType = "average_below_limit"

	// NotificationTypeMonthlyAbsenceReport is the principal's monthly
	// absence summary for the school unit.
	NotificationTypeMonthlyAbsenceReport NotificationType = "monthly_absence_report"

	// NotificationTypeSchoolSituation is the periodic school situation
	// summary sent to parents.
	NotificationTypeSchoolSituation NotificationType = "school_situation"

	// NotificationTypeAccountActivation carries the account activation link.
	NotificationTypeAccountActivation NotificationType = "account_activation"

	// NotificationTypePasswordReset carries the password reset link.
	NotificationTypePasswordReset NotificationType = "password_reset"

	// NotificationTypeSystemAlert is an operational message to administrators.
	NotificationTypeSystemAlert NotificationType = "system_alert"
)

// IsValid checks the notification type.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeRiskAlert,
		NotificationTypeRiskCleared,
		NotificationTypeAbsenceThreshold,
		NotificationTypeAverageBelowLimit,
		NotificationTypeMonthlyAbsenceReport,
		NotificationTypeSchoolSituation,
		NotificationTypeAccountActivation,
		NotificationTypePasswordReset,
		NotificationTypeSystemAlert:
		return true
	default:
		return false
	}
}

// DefaultPriority returns the default priority for the type.
func (t NotificationType) DefaultPriority() Priority {
	switch t {
	case NotificationTypeRiskAlert, NotificationTypeAbsenceThreshold,
		NotificationTypeAverageBelowLimit:
		return PriorityHigh
	case NotificationTypeAccountActivation, NotificationTypePasswordReset,
		NotificationTypeSystemAlert:
		return PriorityUrgent
	case NotificationTypeMonthlyAbsenceReport, NotificationTypeSchoolSituation,
		NotificationTypeRiskCleared:
		return PriorityNormal
	default:
		return PriorityNormal
	}
}

// String returns the string form of the type.
func (t NotificationType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIORITY
// ══════════════════════════════════════════════════════════════════════════════

// Priority orders delivery: urgent messages go out immediately, low ones
// may be batched into a digest.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityNormal Priority = 2
	PriorityHigh   Priority = 3
	PriorityUrgent Priority = 4
)

// IsValid checks the priority value.
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

// String returns the string form of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ShouldSendImmediately reports whether the message skips batching.
func (p Priority) ShouldSendImmediately() bool {
	return p >= PriorityHigh
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION STATUS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationStatus is the delivery state.
type NotificationStatus string

const (
	StatusPending   NotificationStatus = "pending"
	StatusSending   NotificationStatus = "sending"
	StatusDelivered NotificationStatus = "delivered"
	StatusFailed    NotificationStatus = "failed"
	StatusSkipped   NotificationStatus = "skipped"
)

// IsValid checks the status value.
func (s NotificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSending, StatusDelivered, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsFinal reports whether the status is terminal.
func (s NotificationStatus) IsFinal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification is one message addressed to one recipient over one channel.
type Notification struct {
	ID          NotificationID
	Type        NotificationType
	RecipientID RecipientID
	Channel     Channel

	// Address is the channel-specific destination: an email address or
	// a phone number.
	Address string

	Priority Priority
	Status   NotificationStatus

	Subject string
	Body    string

	// StudentID links alert messages back to the student they concern.
	StudentID string

	SentAt      *time.Time
	DeliveredAt *time.Time

	RetryCount int
	MaxRetries int
	LastError  string

	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewNotificationParams carries the fields needed to build a notification.
type NewNotificationParams struct {
	ID          NotificationID
	Type        NotificationType
	RecipientID RecipientID
	Channel     Channel
	Address     string
	Subject     string
	Body        string
	StudentID   string
	Priority    *Priority
	MaxRetries  int
}

// NewNotification creates a notification with validation.
func NewNotification(params NewNotificationParams) (*Notification, error) {
	if !params.ID.IsValid() {
		return nil, ErrInvalidNotificationID
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidNotificationType
	}
	if !params.RecipientID.IsValid() {
		return nil, ErrInvalidRecipientID
	}
	if !params.Channel.IsValid() {
		return nil, ErrInvalidChannel
	}
	if params.Address == "" {
		return nil, ErrEmptyAddress
	}
	if params.Body == "" {
		return nil, ErrEmptyBody
	}

	priority := params.Type.DefaultPriority()
	if params.Priority != nil && params.Priority.IsValid() {
		priority = *params.Priority
	}
	maxRetries := 3
	if params.MaxRetries > 0 {
		maxRetries = params.MaxRetries
	}

	now := time.Now().UTC()
	return &Notification{
		ID:          params.ID,
		Type:        params.Type,
		RecipientID: params.RecipientID,
		Channel:     params.Channel,
		Address:     params.Address,
		Priority:    priority,
		Status:      StatusPending,
		Subject:     params.Subject,
		Body:        params.Body,
		StudentID:   params.StudentID,
		MaxRetries:  maxRetries,
		Metadata:    make(map[string]string),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MarkSending transitions the notification into delivery.
func (n *Notification) MarkSending() error {
	if n.Status != StatusPending {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusSending
	now := time.Now().UTC()
	n.SentAt = &now
	n.UpdatedAt = now
	return nil
}

// MarkDelivered records a successful delivery.
func (n *Notification) MarkDelivered() error {
	if n.Status != StatusSending {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusDelivered
	now := time.Now().UTC()
	n.DeliveredAt = &now
	n.UpdatedAt = now
	return nil
}

// MarkFailed records a delivery failure.
func (n *Notification) MarkFailed(reason string) error {
	if n.Status != StatusSending {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusFailed
	n.LastError = reason
	n.RetryCount++
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSkipped records that delivery was intentionally skipped, for
// example when the recipient has no address for the channel.
func (n *Notification) MarkSkipped(reason string) error {
	if n.Status.IsFinal() {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusSkipped
	n.LastError = reason
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// CanRetry reports whether a failed delivery may be attempted again.
func (n *Notification) CanRetry() bool {
	return n.Status == StatusFailed && n.RetryCount < n.MaxRetries
}

// ResetForRetry returns a failed notification to the pending state.
func (n *Notification) ResetForRetry() error {
	if !n.CanRetry() {
		return ErrMaxRetriesExceeded
	}
	n.Status = StatusPending
	n.SentAt = nil
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// SetMetadata stores a metadata key.
func (n *Notification) SetMetadata(key, value string) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]string)
	}
	n.Metadata[key] = value
	n.UpdatedAt = time.Now().UTC()
}

// String returns a log-friendly representation.
func (n *Notification) String() string {
	return fmt.Sprintf("Notification{ID: %s, Type: %s, Recipient: %s, Channel: %s, Status: %s}",
		n.ID, n.Type, n.RecipientID, n.Channel, n.Status)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrInvalidNotificationID   = errors.New("invalid notification id: cannot be empty")
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrInvalidRecipientID      = errors.New("invalid recipient id: cannot be empty")
	ErrInvalidChannel          = errors.New("invalid notification channel")
	ErrEmptyAddress            = errors.New("notification address cannot be empty")
	ErrEmptyBody               = errors.New("notification body cannot be empty")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrMaxRetriesExceeded      = errors.New("max retries exceeded")
	ErrNotificationNotFound    = errors.New("notification not found")
)
