package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edualert/edualert/internal/domain/notification"
	"github.com/edualert/edualert/internal/domain/risk"
	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RISK CHANGED HANDLER
// Applies a risk transition to the student profile and notifies the
// parents and the class master. Fires only on transitions, so sending
// here never duplicates: an unchanged re-evaluation publishes nothing.
// ═══════════════════════════════════════════════════════════════════════════

// OnRiskChangedHandler processes risk transitions.
type OnRiskChangedHandler struct {
	profiles school.UserProfileRepository
	classes  school.StudyClassRepository
	sender   notification.Sender
	store    notification.Repository
	logger   *slog.Logger
	now      func() time.Time
}

// NewOnRiskChangedHandler creates the handler.
func NewOnRiskChangedHandler(
	profiles school.UserProfileRepository,
	classes school.StudyClassRepository,
	sender notification.Sender,
	store notification.Repository,
	logger *slog.Logger,
) *OnRiskChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnRiskChangedHandler{
		profiles: profiles,
		classes:  classes,
		sender:   sender,
		store:    store,
		logger:   logger.With("handler", "on_risk_changed"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes a RiskChangedEvent. Implements shared.EventHandler.
func (h *OnRiskChangedHandler) Handle(event shared.Event) error {
	riskEvent, ok := event.(shared.RiskChangedEvent)
	if !ok {
		h.logger.Warn("received non-RiskChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	ctx := context.Background()
	studentID := riskEvent.AggregateID()

	h.logger.Info("processing risk transition",
		"student_id", studentID,
		"worst_level", riskEvent.WorstLevel,
		"description", riskEvent.Description,
	)

	student, err := h.profiles.GetByID(ctx, studentID)
	if err != nil {
		h.logger.Error("failed to load student profile",
			"student_id", studentID,
			"error", err,
		)
		return fmt.Errorf("get student profile: %w", err)
	}

	h.applyTransition(student, riskEvent)
	if err := h.profiles.Update(ctx, student); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}

	if riskEvent.NotifyParent {
		h.notifyParents(ctx, student, riskEvent)
	}
	h.notifyClassMaster(ctx, student, riskEvent)

	return nil
}

// applyTransition rewrites the profile's risk labels and description to
// match the new assessment.
func (h *OnRiskChangedHandler) applyTransition(student *school.UserProfile, event shared.RiskChangedEvent) {
	student.RemoveLabel(risk.Level1.Label())
	student.RemoveLabel(risk.Level2.Label())
	switch event.WorstLevel {
	case 2:
		student.AttachLabel(risk.Level2.Label())
	case 1:
		student.AttachLabel(risk.Level1.Label())
	}
	student.RiskDescription = event.Description
	now := h.now()
	student.RiskLevelLastChanged = &now
	student.UpdatedAt = now
}

func (h *OnRiskChangedHandler) notifyParents(ctx context.Context, student *school.UserProfile, event shared.RiskChangedEvent) {
	for _, parentID := range student.ParentIDs {
		parent, err := h.profiles.GetByID(ctx, parentID)
		if err != nil {
			h.logger.Warn("failed to load parent profile",
				"parent_id", parentID,
				"error", err,
			)
			continue
		}
		h.deliver(ctx, parent, student, event)
	}
}

func (h *OnRiskChangedHandler) notifyClassMaster(ctx context.Context, student *school.UserProfile, event shared.RiskChangedEvent) {
	if student.StudyClassID == "" {
		return
	}
	class, err := h.classes.GetByID(ctx, student.StudyClassID)
	if err != nil {
		h.logger.Warn("failed to load study class",
			"study_class_id", student.StudyClassID,
			"error", err,
		)
		return
	}
	if class.ClassMasterID == "" {
		return
	}
	master, err := h.profiles.GetByID(ctx, class.ClassMasterID)
	if err != nil {
		h.logger.Warn("failed to load class master profile",
			"teacher_id", class.ClassMasterID,
			"error", err,
		)
		return
	}
	h.deliver(ctx, master, student, event)
}

// deliver sends to every channel the recipient has an address for.
func (h *OnRiskChangedHandler) deliver(ctx context.Context, recipient, student *school.UserProfile, event shared.RiskChangedEvent) {
	notifType := notification.NotificationTypeRiskAlert
	subject, body := formatRiskMessage(student.FullName, event)
	if event.WorstLevel == 0 {
		notifType = notification.NotificationTypeRiskCleared
	}

	if recipient.Email != "" {
		h.send(ctx, recipient, student, notifType, notification.ChannelEmail, recipient.Email, subject, body)
	}
	if recipient.PhoneNumber != "" {
		h.send(ctx, recipient, student, notifType, notification.ChannelSMS, recipient.PhoneNumber, subject, body)
	}
}

func (h *OnRiskChangedHandler) send(
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
	notif.SetMetadata("worst_level", fmt.Sprintf("%d", notifLevel(notifType)))

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
		h.logger.Warn("notification delivery failed",
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

func notifLevel(t notification.NotificationType) int {
	if t == notification.NotificationTypeRiskCleared {
		return 0
	}
	return 1
}

// formatRiskMessage builds the Romanian subject and body sent to the
// parents and the class master.
func formatRiskMessage(studentName string, event shared.RiskChangedEvent) (string, string) {
	if event.WorstLevel == 0 {
		subject := fmt.Sprintf("EduAlert: %s nu mai este în evidența de risc", studentName)
		body := fmt.Sprintf("Situația școlară a elevului %s s-a îmbunătățit și nu mai prezintă factori de risc.", studentName)
		return subject, body
	}
	subject := fmt.Sprintf("EduAlert: situația școlară a elevului %s", studentName)
	body := fmt.Sprintf("Elevul %s prezintă un risc școlar: %s. Vă rugăm să luați legătura cu dirigintele clasei.",
		studentName, event.Description)
	return subject, body
}

// EventType returns the event type this handler subscribes to.
func (h *OnRiskChangedHandler) EventType() shared.EventType {
	return shared.EventRiskChanged
}
