package models

import (
	"time"

	"github.com/google/uuid"
)

// Urgency levels for a needed skill.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// OfferedSkill is a (user, skill) pair meaning "I can provide this". At most
// one active record may exist per pair; withdrawn offers are deactivated,
// never deleted.
type OfferedSkill struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"user_id"`
	SkillID              uuid.UUID `json:"skill_id"`
	Description          string    `json:"description"`
	Availability         string    `json:"availability"`
	HourlyRateEquivalent float64   `json:"hourly_rate_equivalent"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Populated for API responses
	Skill *Skill `json:"skill,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// NeededSkill is a (user, skill) pair meaning "I need this". MaxHourlyRate
// is an optional ceiling; zero means no ceiling.
type NeededSkill struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	SkillID       uuid.UUID `json:"skill_id"`
	Description   string    `json:"description"`
	Urgency       string    `json:"urgency"`
	MaxHourlyRate float64   `json:"max_hourly_rate,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Skill *Skill `json:"skill,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// ValidUrgency reports whether u is one of the known urgency levels.
func ValidUrgency(u string) bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}
