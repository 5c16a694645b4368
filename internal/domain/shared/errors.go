// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrExpired         = errors.New("expired")

	// Calendar gating errors. Every mutation on grades, absences and examination
	// grades is gated by the school calendar; these are the base kinds that
	// command handlers translate into the fixed user-facing messages.
	ErrNoCurrentCalendar = errors.New("no current academic calendar")
	ErrOutsideSemester   = errors.New("outside active semester")
	ErrOutsideExamWindow = errors.New("outside examination window")
	ErrEditWindowClosed  = errors.New("edit window closed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "calendar", "catalog", "risk"
	Op      string // Operation that failed, e.g., "AddGrade", "Classify"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Calendar domain errors
var (
	ErrCalendarNotFound      = NewDomainError("calendar", "Find", ErrNotFound, "academic year calendar not found")
	ErrCalendarAlreadyExists = NewDomainError("calendar", "Create", ErrAlreadyExists, "calendar for this academic year already exists")
	ErrInvalidEventRange     = NewDomainError("calendar", "Validate", ErrInvalidInput, "event end date must not precede start date")
	ErrInvalidSemesterRange  = NewDomainError("calendar", "Validate", ErrInvalidInput, "semester end date must not precede start date")
)

// Catalog domain errors
var (
	ErrCatalogNotFound        = NewDomainError("catalog", "Find", ErrNotFound, "student catalog not found")
	ErrGradeNotFound          = NewDomainError("catalog", "FindGrade", ErrNotFound, "grade not found")
	ErrAbsenceNotFound        = NewDomainError("catalog", "FindAbsence", ErrNotFound, "absence not found")
	ErrExamGradeNotFound      = NewDomainError("catalog", "FindExaminationGrade", ErrNotFound, "examination grade not found")
	ErrGradeOutOfRange        = NewDomainError("catalog", "Validate", ErrValueOutOfRange, "grade must be between 1 and 10")
	ErrSecondThesisGrade      = NewDomainError("catalog", "AddGrade", ErrAlreadyExists, "a thesis grade already exists for this semester")
	ErrThesisNotWanted        = NewDomainError("catalog", "AddGrade", ErrInvalidState, "catalog is not marked for thesis")
	ErrDifferenceScopeMixed   = NewDomainError("catalog", "AddExaminationGrade", ErrInvalidState, "difference grades cannot mix semester and yearly scope")
	ErrDifferenceWithRegulars = NewDomainError("catalog", "AddExaminationGrade", ErrInvalidState, "difference grades cannot coexist with regular grades in the same scope")
	ErrAbsenceAlreadyFounded  = NewDomainError("catalog", "AuthorizeAbsence", ErrInvalidState, "absence is already authorized")
)

// Ranking domain errors
var (
	ErrNilRankingEntry  = NewDomainError("ranking", "Add", ErrInvalidInput, "cannot add nil entry")
	ErrDuplicateStudent = NewDomainError("ranking", "Add", ErrAlreadyExists, "student already present in ranking")
)

// Risk domain errors
var (
	ErrRiskReportNotFound = NewDomainError("risk", "Find", ErrNotFound, "risk report not found")
	ErrInvalidRiskLevel   = NewDomainError("risk", "Validate", ErrValueOutOfRange, "invalid risk level")
)

// School domain errors
var (
	ErrStudyClassNotFound  = NewDomainError("school", "FindClass", ErrNotFound, "study class not found")
	ErrSubjectNotFound     = NewDomainError("school", "FindSubject", ErrNotFound, "subject not found")
	ErrProfileNotFound     = NewDomainError("school", "FindProfile", ErrNotFound, "user profile not found")
	ErrSchoolUnitNotFound  = NewDomainError("school", "FindSchool", ErrNotFound, "school unit not found")
	ErrNotAssignedTeacher  = NewDomainError("school", "Authorize", ErrForbidden, "teacher is not assigned to this class and subject")
	ErrWrongRole           = NewDomainError("school", "Authorize", ErrForbidden, "user role does not permit this operation")
	ErrNextYearAlreadySet  = NewDomainError("school", "GenerateNextYear", ErrAlreadyExists, "next study year has already been generated")
)

// Notification domain errors
var (
	ErrNotificationFailed = NewDomainError("notification", "Send", ErrExternalService, "failed to send notification")
	ErrInvalidRecipient   = NewDomainError("notification", "Validate", ErrInvalidInput, "invalid notification recipient")
)

// External service errors
var (
	ErrCloudWatchUnavailable = NewDomainError("cloudwatch", "PutLogEvents", ErrServiceUnavailable, "CloudWatch Logs is unavailable")
	ErrEmailDeliveryFailed   = NewDomainError("email", "Send", ErrExternalService, "email delivery failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsCalendarGated checks if the error is a calendar gate rejection.
// These surface to callers as the fixed "can't do X at this time" messages.
func IsCalendarGated(err error) bool {
	return errors.Is(err, ErrNoCurrentCalendar) ||
		errors.Is(err, ErrOutsideSemester) ||
		errors.Is(err, ErrOutsideExamWindow) ||
		errors.Is(err, ErrEditWindowClosed)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
