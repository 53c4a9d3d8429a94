package content

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

// TemplateType separates built-in templates from user-saved ones
type TemplateType string

const (
	TemplateSystem   TemplateType = "system"
	TemplatePersonal TemplateType = "personal"
)

// Template is a reusable starting point for a post
type Template struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Content   string       `json:"content"`
	Type      TemplateType `json:"type"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// SystemTemplates returns the built-in templates
func SystemTemplates() []Template {
	return []Template{
		{ID: "standard", Name: "Standard", Type: TemplateSystem},
		{ID: "data-driven", Name: "Data-Driven", Type: TemplateSystem},
		{ID: "storytelling", Name: "Storytelling", Type: TemplateSystem},
		{ID: "question", Name: "Question-Based", Type: TemplateSystem},
	}
}

// IsSystemTemplate reports whether id names a built-in template
func IsSystemTemplate(id string) bool {
	for _, t := range SystemTemplates() {
		if t.ID == id {
			return true
		}
	}
	return false
}

// NewPersonalTemplate saves the current topic under a name
func NewPersonalTemplate(name, topic string, now time.Time) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, pkgerrors.NewValidationError("template name required")
	}
	return Template{
		ID:        "personal-" + uuid.NewString(),
		Name:      name,
		Content:   topic,
		Type:      TemplatePersonal,
		CreatedAt: now,
	}, nil
}
