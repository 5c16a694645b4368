// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain; catalog mutations and risk transitions drive
// the notification and statistics machinery.
const (
	// Catalog events
	EventGradeAdded        EventType = "catalog.grade_added"
	EventGradeUpdated      EventType = "catalog.grade_updated"
	EventGradeDeleted      EventType = "catalog.grade_deleted"
	EventAbsenceAdded      EventType = "catalog.absence_added"
	EventAbsenceAuthorized EventType = "catalog.absence_authorized"
	EventAbsenceDeleted    EventType = "catalog.absence_deleted"
	EventExamGradeAdded    EventType = "catalog.examination_grade_added"
	EventCatalogRecomputed EventType = "catalog.recomputed"

	// Ranking events
	EventPlacementsUpdated EventType = "ranking.placements_updated"

	// Risk events
	EventRiskChanged EventType = "risk.changed"
	EventRiskCleared EventType = "risk.cleared"
	EventAlertRaised EventType = "risk.alert_raised"

	// Calendar events
	EventWorkingWeeksComputed EventType = "calendar.working_weeks_computed"
	EventNextYearGenerated    EventType = "calendar.next_year_generated"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Catalog Events
// ═══════════════════════════════════════════════════════════════════════════

// CatalogRecomputedEvent is emitted after a subject catalog's aggregates
// were recomputed following a grade/absence/examination mutation.
// AggregateID is the subject catalog ID.
type CatalogRecomputedEvent struct {
	BaseEvent
	StudentID    string   `json:"student_id"`
	StudyClassID string   `json:"study_class_id"`
	SubjectID    string   `json:"subject_id"`
	AvgFinal     *float64 `json:"avg_final,omitempty"`
}

// Payload implements Event interface.
func (e CatalogRecomputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":     e.StudentID,
		"study_class_id": e.StudyClassID,
		"subject_id":     e.SubjectID,
		"avg_final":      e.AvgFinal,
	}
}

// NewCatalogRecomputedEvent creates a new CatalogRecomputedEvent.
func NewCatalogRecomputedEvent(catalogID, studentID, studyClassID, subjectID string, avgFinal *float64) CatalogRecomputedEvent {
	return CatalogRecomputedEvent{
		BaseEvent:    NewBaseEvent(EventCatalogRecomputed, catalogID),
		StudentID:    studentID,
		StudyClassID: studyClassID,
		SubjectID:    subjectID,
		AvgFinal:     avgFinal,
	}
}

// GradeMutationEvent is emitted for grade add/update/delete operations.
// AggregateID is the subject catalog ID.
type GradeMutationEvent struct {
	BaseEvent
	GradeID   string `json:"grade_id"`
	StudentID string `json:"student_id"`
	Semester  int    `json:"semester"`
	Value     int    `json:"value"`
	TeacherID string `json:"teacher_id"`
}

// Payload implements Event interface.
func (e GradeMutationEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"grade_id":   e.GradeID,
		"student_id": e.StudentID,
		"semester":   e.Semester,
		"value":      e.Value,
		"teacher_id": e.TeacherID,
	}
}

// NewGradeMutationEvent creates a grade mutation event of the given type.
func NewGradeMutationEvent(eventType EventType, catalogID, gradeID, studentID string, semester, value int, teacherID string) GradeMutationEvent {
	return GradeMutationEvent{
		BaseEvent: NewBaseEvent(eventType, catalogID),
		GradeID:   gradeID,
		StudentID: studentID,
		Semester:  semester,
		Value:     value,
		TeacherID: teacherID,
	}
}

// AbsenceMutationEvent is emitted for absence add/authorize/delete operations.
// AggregateID is the subject catalog ID.
type AbsenceMutationEvent struct {
	BaseEvent
	AbsenceID string `json:"absence_id"`
	StudentID string `json:"student_id"`
	Semester  int    `json:"semester"`
	IsFounded bool   `json:"is_founded"`
	TeacherID string `json:"teacher_id"`
}

// Payload implements Event interface.
func (e AbsenceMutationEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"absence_id": e.AbsenceID,
		"student_id": e.StudentID,
		"semester":   e.Semester,
		"is_founded": e.IsFounded,
		"teacher_id": e.TeacherID,
	}
}

// NewAbsenceMutationEvent creates an absence mutation event of the given type.
func NewAbsenceMutationEvent(eventType EventType, catalogID, absenceID, studentID string, semester int, isFounded bool, teacherID string) AbsenceMutationEvent {
	return AbsenceMutationEvent{
		BaseEvent: NewBaseEvent(eventType, catalogID),
		AbsenceID: absenceID,
		StudentID: studentID,
		Semester:  semester,
		IsFounded: isFounded,
		TeacherID: teacherID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Risk Events
// ═══════════════════════════════════════════════════════════════════════════

// RiskChangedEvent is emitted when a student's combined risk set changes.
// AggregateID is the student ID. Notification routing listens for this
// event; it fires only on transitions, never on unchanged re-evaluation.
type RiskChangedEvent struct {
	BaseEvent
	StudyClassID string `json:"study_class_id"`
	SchoolUnitID string `json:"school_unit_id"`
	Description  string `json:"description"`
	WorstLevel   int    `json:"worst_level"`
	NotifyParent bool   `json:"notify_parent"`
}

// Payload implements Event interface.
func (e RiskChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"study_class_id": e.StudyClassID,
		"school_unit_id": e.SchoolUnitID,
		"description":    e.Description,
		"worst_level":    e.WorstLevel,
		"notify_parent":  e.NotifyParent,
	}
}

// NewRiskChangedEvent creates a new RiskChangedEvent. A transition down
// to no risk at all is typed EventRiskCleared so subscribers can tell
// the two apart without inspecting the level.
func NewRiskChangedEvent(studentID, studyClassID, schoolUnitID, description string, worstLevel int, notifyParent bool) RiskChangedEvent {
	eventType := EventRiskChanged
	if worstLevel == 0 {
		eventType = EventRiskCleared
	}
	return RiskChangedEvent{
		BaseEvent:    NewBaseEvent(eventType, studentID),
		StudyClassID: studyClassID,
		SchoolUnitID: schoolUnitID,
		Description:  description,
		WorstLevel:   worstLevel,
		NotifyParent: notifyParent,
	}
}

// AlertRaisedEvent is emitted by the independent monthly alerting pass
// (absence-count and average-below-limit thresholds).
type AlertRaisedEvent struct {
	BaseEvent
	StudyClassID string `json:"study_class_id"`
	SchoolUnitID string `json:"school_unit_id"`
	AlertType    string `json:"alert_type"`
	Message      string `json:"message"`
}

// Payload implements Event interface.
func (e AlertRaisedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"study_class_id": e.StudyClassID,
		"school_unit_id": e.SchoolUnitID,
		"alert_type":     e.AlertType,
		"message":        e.Message,
	}
}

// NewAlertRaisedEvent creates a new AlertRaisedEvent.
func NewAlertRaisedEvent(studentID, studyClassID, schoolUnitID, alertType, message string) AlertRaisedEvent {
	return AlertRaisedEvent{
		BaseEvent:    NewBaseEvent(EventAlertRaised, studentID),
		StudyClassID: studyClassID,
		SchoolUnitID: schoolUnitID,
		AlertType:    alertType,
		Message:      message,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ranking Events
// ═══════════════════════════════════════════════════════════════════════════

// PlacementsUpdatedEvent is emitted after a placement run completed.
// AggregateID is the study class ID (or school unit ID for school scope).
type PlacementsUpdatedEvent struct {
	BaseEvent
	Scope        string `json:"scope"` // "class" or "school"
	Period       string `json:"period"`
	CatalogCount int    `json:"catalog_count"`
}

// Payload implements Event interface.
func (e PlacementsUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"scope":         e.Scope,
		"period":        e.Period,
		"catalog_count": e.CatalogCount,
	}
}

// NewPlacementsUpdatedEvent creates a new PlacementsUpdatedEvent.
func NewPlacementsUpdatedEvent(scopeID, scope, period string, catalogCount int) PlacementsUpdatedEvent {
	return PlacementsUpdatedEvent{
		BaseEvent:    NewBaseEvent(EventPlacementsUpdated, scopeID),
		Scope:        scope,
		Period:       period,
		CatalogCount: catalogCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Publisher Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a domain event. Errors are logged by the bus,
// not retried.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish delivers the event to all subscribed handlers.
	Publish(event Event) error
}

// EventBus combines publishing with subscription management.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for the given event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down, waiting for in-flight handlers.
	Close() error
}
