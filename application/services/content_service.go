package services

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/domain/content"
	"github.com/FedericoTs/LinkedinAnalytics/domain/events"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/observability"
)

const (
	draftKeyPrefix    = "draft:"
	templateKeyPrefix = "templates:"
)

// DraftInput is the editor state sent by the client
type DraftInput struct {
	Title       string
	Body        string
	ContentType content.ContentType
	Hashtags    []string
}

// ContentService generates content and keeps drafts and templates
type ContentService struct {
	completion   ports.CompletionService
	store        ports.KeyValueStore
	publisher    ports.EventPublisher
	metrics      *observability.Collector
	defaultModel string
	logger       *zap.Logger
	now          func() time.Time
}

// NewContentService creates a new content service
func NewContentService(
	completion ports.CompletionService,
	store ports.KeyValueStore,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	defaultModel string,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		completion:   completion,
		store:        store,
		publisher:    publisher,
		metrics:      metrics,
		defaultModel: defaultModel,
		logger:       logger,
		now:          time.Now,
	}
}

// Generate builds the prompt for req and asks the completion service for
// text
func (s *ContentService) Generate(ctx context.Context, userID string, req content.GenerateRequest) (*ports.Completion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt := content.BuildPrompt(req)
	params := content.ResolveParams(req, s.defaultModel)

	s.logger.Debug("Generating content",
		zap.String("user_id", userID),
		zap.String("model", params.Model),
		zap.Int64("max_tokens", params.MaxTokens),
		zap.Float64("temperature", params.Temperature),
	)

	completion, err := s.completion.Generate(ctx, prompt, params)
	if err != nil {
		s.logger.Error("Completion failed", zap.String("user_id", userID), zap.Error(err))
		return nil, pkgerrors.NewExternalError("completion", err).
			WithCode(pkgerrors.CodeCompletionFailed).
			WithDetails(map[string]interface{}{"reason": err.Error()})
	}

	s.metrics.RecordCompletionUsage(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	return completion, nil
}

// Hashtags recommends hashtags for a topic
func (s *ContentService) Hashtags(topic string) []string {
	return content.RecommendHashtags(topic)
}

// GetDraft returns the user's auto-saved draft
func (s *ContentService) GetDraft(ctx context.Context, userID string) (*content.Draft, error) {
	raw, found, err := s.store.Get(ctx, draftKeyPrefix+userID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get draft", err)
	}
	if !found {
		return nil, pkgerrors.NewNotFoundError("draft").WithCode(pkgerrors.CodeDraftNotFound)
	}

	var draft content.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, pkgerrors.NewInternalError("corrupt draft").WithCause(err)
	}
	return &draft, nil
}

// SaveDraft replaces the user's draft
func (s *ContentService) SaveDraft(ctx context.Context, userID string, in DraftInput) (*content.Draft, error) {
	draft, err := content.NewDraft(userID, in.Title, in.Body, in.ContentType, in.Hashtags, s.now().UTC())
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(draft)
	if err != nil {
		return nil, pkgerrors.NewInternalError("encode draft").WithCause(err)
	}
	if err := s.store.Set(ctx, draftKeyPrefix+userID, raw); err != nil {
		return nil, pkgerrors.NewDatabaseError("save draft", err)
	}

	s.publish(ctx, events.NewDraftSaved(userID, string(draft.ContentType), utf8.RuneCountInString(draft.Body), draft.UpdatedAt))
	return draft, nil
}

// DeleteDraft discards the user's draft
func (s *ContentService) DeleteDraft(ctx context.Context, userID string) error {
	if err := s.store.Remove(ctx, draftKeyPrefix+userID); err != nil {
		return pkgerrors.NewDatabaseError("delete draft", err)
	}
	return nil
}

// Templates returns the system templates followed by the user's own
func (s *ContentService) Templates(ctx context.Context, userID string) ([]content.Template, error) {
	personal, err := s.personalTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append(content.SystemTemplates(), personal...), nil
}

// SaveTemplate stores the current topic as a personal template
func (s *ContentService) SaveTemplate(ctx context.Context, userID, name, topic string) (*content.Template, error) {
	tmpl, err := content.NewPersonalTemplate(name, topic, s.now().UTC())
	if err != nil {
		return nil, err
	}

	personal, err := s.personalTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.savePersonalTemplates(ctx, userID, append(personal, tmpl)); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewTemplateSaved(userID, tmpl.ID, tmpl.CreatedAt))
	return &tmpl, nil
}

// DeleteTemplate removes a personal template. System templates cannot be
// deleted.
func (s *ContentService) DeleteTemplate(ctx context.Context, userID, templateID string) error {
	if content.IsSystemTemplate(templateID) {
		return pkgerrors.NewForbiddenError("system templates cannot be deleted")
	}

	personal, err := s.personalTemplates(ctx, userID)
	if err != nil {
		return err
	}

	kept := personal[:0]
	for _, t := range personal {
		if t.ID != templateID {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(personal) {
		return pkgerrors.NewNotFoundError("template").WithCode(pkgerrors.CodeTemplateNotFound)
	}
	return s.savePersonalTemplates(ctx, userID, kept)
}

func (s *ContentService) personalTemplates(ctx context.Context, userID string) ([]content.Template, error) {
	raw, found, err := s.store.Get(ctx, templateKeyPrefix+userID)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get templates", err)
	}
	if !found {
		return []content.Template{}, nil
	}

	var templates []content.Template
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, pkgerrors.NewInternalError("corrupt templates").WithCause(err)
	}
	return templates, nil
}

func (s *ContentService) savePersonalTemplates(ctx context.Context, userID string, templates []content.Template) error {
	raw, err := json.Marshal(templates)
	if err != nil {
		return pkgerrors.NewInternalError("encode templates").WithCause(err)
	}
	if err := s.store.Set(ctx, templateKeyPrefix+userID, raw); err != nil {
		return pkgerrors.NewDatabaseError("save templates", err)
	}
	return nil
}

func (s *ContentService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
