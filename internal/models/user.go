package models

import (
	"github.com/google/uuid"
)

// User carries the minimal identity the engine needs about a participant.
// Accounts are owned by the external auth collaborator.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
}
