package notification

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL
// ══════════════════════════════════════════════════════════════════════════════

// Channel is the delivery channel of a notification.
type Channel string

const (
	// ChannelEmail delivers over SendGrid.
	ChannelEmail Channel = "email"

	// ChannelSMS delivers over the SMS gateway.
	ChannelSMS Channel = "sms"
)

// IsValid checks the channel value.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS:
		return true
	default:
		return false
	}
}

// String returns the string form of the channel.
func (c Channel) String() string {
	return string(c)
}

// SupportsRichContent reports whether the channel renders HTML bodies.
func (c Channel) SupportsRichContent() bool {
	return c == ChannelEmail
}

// MaxBodyLength returns the channel's body limit (0 = unlimited).
func (c Channel) MaxBodyLength() int {
	if c == ChannelSMS {
		return 480
	}
	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY RESULT
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryResult is the outcome of one delivery attempt.
type DeliveryResult struct {
	Success     bool
	MessageID   string
	Channel     Channel
	DeliveredAt time.Time
	Error       error
	Retryable   bool
	RetryAfter  time.Duration
}

// NewSuccessResult creates a successful delivery result.
func NewSuccessResult(channel Channel, messageID string) DeliveryResult {
	return DeliveryResult{
		Success:     true,
		MessageID:   messageID,
		Channel:     channel,
		DeliveredAt: time.Now().UTC(),
	}
}

// NewFailureResult creates a failed delivery result.
func NewFailureResult(channel Channel, err error, retryable bool) DeliveryResult {
	return DeliveryResult{
		Success:   false,
		Channel:   channel,
		Error:     err,
		Retryable: retryable,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Sender delivers a single notification over its channel.
type Sender interface {
	Send(ctx context.Context, n *Notification) DeliveryResult
}

// Repository persists notifications for auditing and retry.
type Repository interface {
	GetByID(ctx context.Context, id NotificationID) (*Notification, error)
	GetPendingRetries(ctx context.Context, limit int) ([]*Notification, error)
	Save(ctx context.Context, n *Notification) error
	Update(ctx context.Context, n *Notification) error
}
