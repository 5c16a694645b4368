// Package service wires the delivery ports of the domain to their
// concrete infrastructure implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edualert/edualert/internal/domain/notification"
)

// IDGeneratorImpl implements shared ID generation.
type IDGeneratorImpl struct{}

func NewIDGenerator() *IDGeneratorImpl {
	return &IDGeneratorImpl{}
}

func (g *IDGeneratorImpl) GenerateID() string {
	return uuid.New().String()
}

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// ChannelRouter dispatches each notification to the sender of its channel.
// It implements notification.Sender so the application layer stays unaware
// of how many channels exist.
type ChannelRouter struct {
	email  notification.Sender
	sms    notification.Sender
	logger *slog.Logger
}

var _ notification.Sender = (*ChannelRouter)(nil)

// NewChannelRouter creates a router over the given channel senders.
// A nil sender disables its channel: notifications for it fail without retry.
func NewChannelRouter(email, sms notification.Sender, logger *slog.Logger) *ChannelRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelRouter{
		email:  email,
		sms:    sms,
		logger: logger,
	}
}

// Send routes the notification by channel.
func (r *ChannelRouter) Send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	switch n.Channel {
	case notification.ChannelEmail:
		if r.email == nil {
			return notification.NewFailureResult(n.Channel, fmt.Errorf("email channel is not configured"), false)
		}
		return r.email.Send(ctx, n)
	case notification.ChannelSMS:
		if r.sms == nil {
			return notification.NewFailureResult(n.Channel, fmt.Errorf("sms channel is not configured"), false)
		}
		return r.sms.Send(ctx, n)
	default:
		return notification.NewFailureResult(n.Channel, notification.ErrInvalidChannel, false)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONSOLE SENDER
// ══════════════════════════════════════════════════════════════════════════════

// ConsoleSender logs notifications instead of delivering them. Used in
// development and as the SMS fallback when no gateway is configured.
type ConsoleSender struct {
	logger *slog.Logger
}

var _ notification.Sender = (*ConsoleSender)(nil)

func NewConsoleSender(logger *slog.Logger) *ConsoleSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSender{logger: logger}
}

// Send logs the notification and reports success.
func (s *ConsoleSender) Send(_ context.Context, n *notification.Notification) notification.DeliveryResult {
	s.logger.Info("console delivery",
		"notification_id", n.ID.String(),
		"type", n.Type.String(),
		"channel", n.Channel.String(),
		"address", n.Address,
		"subject", n.Subject,
	)
	return notification.NewSuccessResult(n.Channel, "console-"+n.ID.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// RETRY SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRetryService re-sends failed notifications that still have
// retry budget. The scheduler runs it periodically.
type NotificationRetryService struct {
	store  notification.Repository
	sender notification.Sender
	logger *slog.Logger
}

func NewNotificationRetryService(
	store notification.Repository,
	sender notification.Sender,
	logger *slog.Logger,
) *NotificationRetryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationRetryService{
		store:  store,
		sender: sender,
		logger: logger.With("component", "notification_retry"),
	}
}

// RetryFailed loads up to batchSize failed notifications and attempts
// delivery again. It returns how many were delivered.
func (s *NotificationRetryService) RetryFailed(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 50
	}

	pending, err := s.store.GetPendingRetries(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending retries: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		if err := n.ResetForRetry(); err != nil {
			s.logger.Warn("notification not retryable",
				"notification_id", n.ID.String(),
				"error", err,
			)
			continue
		}
		_ = n.MarkSending()

		result := s.sender.Send(ctx, n)
		if result.Success {
			_ = n.MarkDelivered()
			delivered++
		} else {
			_ = n.MarkFailed(fmt.Sprintf("%v", result.Error))
		}

		if err := s.store.Update(ctx, n); err != nil {
			s.logger.Warn("failed to update notification state",
				"notification_id", n.ID.String(),
				"error", err,
			)
		}
	}

	if len(pending) > 0 {
		s.logger.Info("notification retry pass finished",
			"attempted", len(pending),
			"delivered", delivered,
		)
	}
	return delivered, nil
}
