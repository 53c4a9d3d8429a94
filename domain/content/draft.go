package content

import (
	"fmt"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

// Draft is the auto-saved editor state of one user
type Draft struct {
	UserID      string      `json:"user_id"`
	Title       string      `json:"title,omitempty"`
	Body        string      `json:"body"`
	ContentType ContentType `json:"content_type"`
	Hashtags    []string    `json:"hashtags,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewDraft validates and normalizes editor content
func NewDraft(userID, title, body string, contentType ContentType, hashtags []string, now time.Time) (*Draft, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("user id is required")
	}
	if contentType == "" {
		contentType = TypePost
	}
	if contentType != TypePost && contentType != TypeArticle {
		return nil, pkgerrors.NewValidationError("content type must be post or article")
	}
	if n := utf8.RuneCountInString(body); n > MaxContentLength {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("content exceeds maximum length of %d characters", MaxContentLength)).
			WithDetails(map[string]interface{}{"length": n})
	}

	return &Draft{
		UserID:      userID,
		Title:       title,
		Body:        body,
		ContentType: contentType,
		Hashtags:    NormalizeHashtags(hashtags),
		UpdatedAt:   now,
	}, nil
}
