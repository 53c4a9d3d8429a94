package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/domain/content"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/utils"
)

// ContentHandler serves content generation, drafts and templates
type ContentHandler struct {
	content *services.ContentService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService *services.ContentService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{content: contentService, errors: errorHandler, logger: logger}
}

// SaveDraftRequest represents the body of PUT /content/draft
type SaveDraftRequest struct {
	Title       string   `json:"title" validate:"max=200"`
	Body        string   `json:"body"`
	ContentType string   `json:"content_type" validate:"omitempty,oneof=post article"`
	Hashtags    []string `json:"hashtags" validate:"max=30,dive,max=100"`
}

// SaveTemplateRequest represents the body of POST /content/templates
type SaveTemplateRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Topic string `json:"topic" validate:"required"`
}

// HashtagsResponse lists recommended hashtags
type HashtagsResponse struct {
	Topic    string   `json:"topic"`
	Hashtags []string `json:"hashtags"`
}

// Generate handles POST /api/v1/content/generate
func (h *ContentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req content.GenerateRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	completion, err := h.content.Generate(r.Context(), userID, req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, completion)
}

// Hashtags handles GET /api/v1/content/hashtags
func (h *ContentHandler) Hashtags(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	common.RespondJSON(w, http.StatusOK, HashtagsResponse{Topic: topic, Hashtags: h.content.Hashtags(topic)})
}

// GetDraft handles GET /api/v1/content/draft
func (h *ContentHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	draft, err := h.content.GetDraft(r.Context(), userID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, draft)
}

// SaveDraft handles PUT /api/v1/content/draft
func (h *ContentHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req SaveDraftRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	contentType, err := content.ParseContentType(req.ContentType)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	draft, err := h.content.SaveDraft(r.Context(), userID, services.DraftInput{
		Title:       req.Title,
		Body:        req.Body,
		ContentType: contentType,
		Hashtags:    req.Hashtags,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, draft)
}

// DeleteDraft handles DELETE /api/v1/content/draft
func (h *ContentHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.content.DeleteDraft(r.Context(), userID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// ListTemplates handles GET /api/v1/content/templates
func (h *ContentHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	templates, err := h.content.Templates(r.Context(), userID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, templates)
}

// SaveTemplate handles POST /api/v1/content/templates
func (h *ContentHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req SaveTemplateRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	template, err := h.content.SaveTemplate(r.Context(), userID, req.Name, req.Topic)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, template)
}

// DeleteTemplate handles DELETE /api/v1/content/templates/{templateID}
func (h *ContentHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	templateID := chi.URLParam(r, "templateID")
	if err := utils.ValidateVar(templateID, "required,max=64"); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.content.DeleteTemplate(r.Context(), userID, templateID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
