package models

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
)

type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"
)

// DefaultLanguage is used when a session is created without one.
const DefaultLanguage = LanguageRU

// Valid reports whether l is a supported interview language.
func (l Language) Valid() bool {
	return l == LanguageRU || l == LanguageEN
}

// Session is one interview. Status only ever moves from IN_PROGRESS to
// COMPLETED.
type Session struct {
	ID           string
	UserID       string
	Status       SessionStatus
	Language     Language
	Progress     int
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// SessionFilter narrows a session listing.
type SessionFilter struct {
	Status SessionStatus
}
