package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Proficiency levels for a skill.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyExpert       = "expert"
)

// Category is a node in the nested category tree. Parent is nil for roots.
type Category struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`

	Parent *Category `json:"-"`
}

// FullPath renders the category with its ancestors, e.g. "Design > Branding > Logos".
func (c *Category) FullPath() string {
	path := []string{c.Name}
	for p := c.Parent; p != nil; p = p.Parent {
		path = append([]string{p.Name}, path...)
	}
	return strings.Join(path, " > ")
}

// Skill is a named capability. The name is unique; tag membership is the
// only thing that changes after creation.
type Skill struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Proficiency string    `json:"proficiency_level"`
	CreatedAt   time.Time `json:"created_at"`

	Categories []Category `json:"categories,omitempty"`
}
