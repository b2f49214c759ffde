// Package inscommon provides shared types and context utilities for the
// inspection service: module kinds and their storage registry, answer and
// session status enumerations, and depot/inspector context management.
package inscommon

// DepotId is the identifier of the maintenance depot a deployment serves.
// All rows are scoped by depot.
type DepotId string

// InspectorId identifies the inspector acting on a session.
type InspectorId string

// SessionStatus is the lifecycle state of an inspection session.
type SessionStatus string

const (
	SessionStatusDraft      SessionStatus = "DRAFT"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

var validSessionStatus = map[SessionStatus]struct{}{
	SessionStatusDraft:      {},
	SessionStatusInProgress: {},
	SessionStatusSubmitted:  {},
	SessionStatusCompleted:  {},
}

// IsValidSessionStatus reports whether status is a known session status.
func IsValidSessionStatus(status SessionStatus) bool {
	_, ok := validSessionStatus[status]
	return ok
}

// IsTerminal reports whether the status locks the session against edits.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusSubmitted || s == SessionStatusCompleted
}

// AnswerStatus is an inspector's verdict on one checklist question.
type AnswerStatus string

const (
	AnswerStatusOK         AnswerStatus = "OK"
	AnswerStatusDeficiency AnswerStatus = "DEFICIENCY"
	AnswerStatusNA         AnswerStatus = "NA"
)

var validAnswerStatus = map[AnswerStatus]struct{}{
	AnswerStatusOK:         {},
	AnswerStatusDeficiency: {},
	AnswerStatusNA:         {},
}

// IsValidAnswerStatus reports whether status is a known answer status.
func IsValidAnswerStatus(status AnswerStatus) bool {
	_, ok := validAnswerStatus[status]
	return ok
}

// ActivityLevel is the inspection pass tier for modules that distinguish
// Major and Minor checks of the same checklist.
type ActivityLevel string

const (
	ActivityLevelNone  ActivityLevel = ""
	ActivityLevelMajor ActivityLevel = "MAJOR"
	ActivityLevelMinor ActivityLevel = "MINOR"
)

// IsValidActivityLevel reports whether level is a known activity level.
func IsValidActivityLevel(level ActivityLevel) bool {
	switch level {
	case ActivityLevelMajor, ActivityLevelMinor:
		return true
	}
	return false
}
