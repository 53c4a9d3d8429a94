package content

import (
	"strings"

	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

// ContentType is the kind of LinkedIn content being composed
type ContentType string

const (
	TypePost    ContentType = "post"
	TypeArticle ContentType = "article"
)

// MaxContentLength is the LinkedIn post character limit enforced by the editor
const MaxContentLength = 3000

// ParseContentType validates a content type; empty means post
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case "", TypePost:
		return TypePost, nil
	case TypeArticle:
		return TypeArticle, nil
	default:
		return "", pkgerrors.NewValidationError("content type must be post or article")
	}
}

// Settings are the editor sliders and toggles, each slider in [0, 100]
type Settings struct {
	Formality       int  `json:"formality" validate:"min=0,max=100"`
	Length          int  `json:"length" validate:"min=0,max=100"`
	Creativity      int  `json:"creativity" validate:"min=0,max=100"`
	IncludeHashtags bool `json:"includeHashtags"`
	IncludeCTA      bool `json:"includeCTA"`
}

// Purpose describes what the content should achieve
type Purpose struct {
	Type string `json:"type"`
}

// Audience describes who the content is written for
type Audience struct {
	CustomDescription string `json:"customDescription"`
}

// GenerateRequest carries everything the prompt builder needs
type GenerateRequest struct {
	Topic       string      `json:"topic"`
	Prompt      string      `json:"prompt"`
	ContentType ContentType `json:"contentType"`
	Purpose     *Purpose    `json:"contentPurpose,omitempty"`
	Audience    *Audience   `json:"targetAudience,omitempty"`
	KeyPoints   []string    `json:"keyPoints,omitempty"`
	Settings    *Settings   `json:"aiSettings,omitempty"`
	Model       string      `json:"model,omitempty"`
	MaxTokens   int64       `json:"max_tokens,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
}

// Validate checks that the request names something to write about
func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" && strings.TrimSpace(r.Prompt) == "" {
		return pkgerrors.NewValidationError("topic or prompt is required")
	}
	if r.ContentType != "" && r.ContentType != TypePost && r.ContentType != TypeArticle {
		return pkgerrors.NewValidationError("content type must be post or article")
	}
	return nil
}
