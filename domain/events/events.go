package events

import "time"

// DomainEvent is something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeSessionEstablished = "session.established"
	TypeSessionEnded       = "session.ended"
	TypeDraftSaved         = "content.draft_saved"
	TypeTemplateSaved      = "content.template_saved"
)

// Session Events

// SessionEstablished is raised when a browser session signs in
type SessionEstablished struct {
	BaseEvent
	UserID string `json:"user_id"`
	// Method is how the session was obtained: tokens, code, password or signup.
	Method string `json:"method"`
}

// NewSessionEstablished creates a SessionEstablished event
func NewSessionEstablished(userID, method string, timestamp time.Time) SessionEstablished {
	return SessionEstablished{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   TypeSessionEstablished,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID: userID,
		Method: method,
	}
}

// SessionEnded is raised on sign-out
type SessionEnded struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// NewSessionEnded creates a SessionEnded event
func NewSessionEnded(userID string, timestamp time.Time) SessionEnded {
	return SessionEnded{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   TypeSessionEnded,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID: userID,
	}
}

// Content Events

// DraftSaved is raised when the editor auto-saves
type DraftSaved struct {
	BaseEvent
	UserID      string `json:"user_id"`
	ContentType string `json:"content_type"`
	Length      int    `json:"length"`
}

// NewDraftSaved creates a DraftSaved event
func NewDraftSaved(userID, contentType string, length int, timestamp time.Time) DraftSaved {
	return DraftSaved{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   TypeDraftSaved,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:      userID,
		ContentType: contentType,
		Length:      length,
	}
}

// TemplateSaved is raised when a personal template is stored
type TemplateSaved struct {
	BaseEvent
	UserID     string `json:"user_id"`
	TemplateID string `json:"template_id"`
}

// NewTemplateSaved creates a TemplateSaved event
func NewTemplateSaved(userID, templateID string, timestamp time.Time) TemplateSaved {
	return TemplateSaved{
		BaseEvent: BaseEvent{
			AggregateID: templateID,
			EventType:   TypeTemplateSaved,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:     userID,
		TemplateID: templateID,
	}
}
