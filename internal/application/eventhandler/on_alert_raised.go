package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edualert/edualert/internal/domain/notification"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ALERT RAISED HANDLER
// The monthly alerting pass raises alerts independently of the risk
// registry: absence-threshold and average-below-limit messages go to
// the parents even when the risk level did not change this month.
// ═══════════════════════════════════════════════════════════════════════════

// OnAlertRaisedHandler sends the monthly threshold alerts.
type OnAlertRaisedHandler struct {
	profiles school.UserProfileRepository
	sender   notification.Sender
	store    notification.Repository
	logger   *slog.Logger
}

// NewOnAlertRaisedHandler creates the handler.
func NewOnAlertRaisedHandler(
	profiles school.UserProfileRepository,
	sender notification.Sender,
	store notification.Repository,
	logger *slog.Logger,
) *OnAlertRaisedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnAlertRaisedHandler{
		profiles: profiles,
		sender:   sender,
		store:    store,
		logger:   logger.With("handler", "on_alert_raised"),
	}
}

// Handle processes an AlertRaisedEvent. Implements shared.EventHandler.
func (h *OnAlertRaisedHandler) Handle(event shared.Event) error {
	alert, ok := event.(shared.AlertRaisedEvent)
	if !ok {
		h.logger.Warn("received non-AlertRaisedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	ctx := context.Background()
	studentID := alert.AggregateID()

	student, err := h.profiles.GetByID(ctx, studentID)
	if err != nil {
		h.logger.Error("failed to load student profile",
			"student_id", studentID,
			"error", err,
		)
		return fmt.Errorf("get student profile: %w", err)
	}

	notifType := notification.NotificationTypeAbsenceThreshold
	subject := fmt.Sprintf("EduAlert: alertă pentru elevul %s", student.FullName)
	switch alert.AlertType {
	case "average_below_limit":
		notifType = notification.NotificationTypeAverageBelowLimit
	case "school_situation":
		notifType = notification.NotificationTypeSchoolSituation
		subject = fmt.Sprintf("EduAlert: situația școlară a elevului %s", student.FullName)
	}

	for _, parentID := range student.ParentIDs {
		parent, err := h.profiles.GetByID(ctx, parentID)
		if err != nil {
			h.logger.Warn("failed to load parent profile",
				"parent_id", parentID,
				"error", err,
			)
			continue
		}
		if parent.Email != "" {
			h.send(ctx, parent, student, notifType, notification.ChannelEmail, parent.Email, subject, alert.Message)
		}
		if parent.PhoneNumber != "" {
			h.send(ctx, parent, student, notifType, notification.ChannelSMS, parent.PhoneNumber, subject, alert.Message)
		}
	}

	return nil
}

func (h *OnAlertRaisedHandler) send(
	ctx context.Context,
	recipient, student *school.UserProfile,
	notifType notification.NotificationType,
	channel notification.Channel,
	address, subject, body string,
) {
	notif, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notifType,
		RecipientID: notification.RecipientID(recipient.ID),
		Channel:     channel,
		Address:     address,
		Subject:     subject,
		Body:        body,
		StudentID:   student.ID,
	})
	if err != nil {
		h.logger.Error("failed to build notification",
			"recipient_id", recipient.ID,
			"error", err,
		)
		return
	}

	if h.store != nil {
		if err := h.store.Save(ctx, notif); err != nil {
			h.logger.Warn("failed to persist notification",
				"notification_id", notif.ID,
				"error", err,
			)
		}
	}

	_ = notif.MarkSending()
	result := h.sender.Send(ctx, notif)
	if result.Success {
		_ = notif.MarkDelivered()
	} else {
		_ = notif.MarkFailed(fmt.Sprintf("%v", result.Error))
		h.logger.Warn("alert delivery failed",
			"notification_id", notif.ID,
			"channel", channel,
			"error", result.Error,
		)
	}
	if h.store != nil {
		if err := h.store.Update(ctx, notif); err != nil {
			h.logger.Warn("failed to update notification state",
				"notification_id", notif.ID,
				"error", err,
			)
		}
	}
}

// EventType returns the event type this handler subscribes to.
func (h *OnAlertRaisedHandler) EventType() shared.EventType {
	return shared.EventAlertRaised
}
