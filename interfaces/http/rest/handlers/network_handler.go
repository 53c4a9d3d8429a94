package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network/layout"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/common"
	pkgerrors "github.com/FedericoTs/LinkedinAnalytics/pkg/errors"
)

// Server-sent event names of the layout stream
const (
	EventView  = "view"
	EventFrame = "frame"
	EventDone  = "done"
)

// NetworkHandler serves the network graph and its layout. The browser
// session id names the viewer's layout surface.
type NetworkHandler struct {
	network *services.NetworkService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewNetworkHandler creates a new network handler
func NewNetworkHandler(networkService *services.NetworkService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *NetworkHandler {
	return &NetworkHandler{network: networkService, errors: errorHandler, logger: logger}
}

// PinRequest fixes a dragged node at a position
type PinRequest struct {
	NodeID string  `json:"node_id" validate:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ReleaseRequest lets a pinned node move again
type ReleaseRequest struct {
	NodeID string `json:"node_id" validate:"required"`
}

// ReheatRequest restarts the layout from alpha
type ReheatRequest struct {
	Alpha float64 `json:"alpha" validate:"min=0,max=1"`
}

// parseViewParams reads the filter and zoom query parameters
func parseViewParams(r *http.Request) (network.Filter, network.Zoom, error) {
	q := r.URL.Query()
	filter, err := network.ParseFilter(q.Get("filter"))
	if err != nil {
		return "", 0, pkgerrors.NewValidationError(err.Error()).WithCode(pkgerrors.CodeInvalidRequest)
	}

	zoom := network.DefaultZoom
	if raw := q.Get("zoom"); raw != "" {
		percent, err := strconv.Atoi(raw)
		if err != nil {
			return "", 0, pkgerrors.NewValidationError("zoom must be an integer percentage").WithCode(pkgerrors.CodeInvalidRequest)
		}
		if percent != 0 {
			zoom = network.ClampZoom(percent)
		}
	}
	return filter, zoom, nil
}

// GetNetwork handles GET /api/v1/network
func (h *NetworkHandler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	surfaceID := surfaceOf(r, userID)

	filter, zoom, err := parseViewParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	view, err := h.network.BuildWithLayout(r.Context(), surfaceID, userID, filter, zoom)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewTimeoutError("layout").WithCode(pkgerrors.CodeLayoutTimeout).WithCause(err))
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// StreamLayout handles GET /api/v1/network/layout/stream. The view is sent
// first, then every frame until the layout settles or the client leaves.
func (h *NetworkHandler) StreamLayout(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	filter, zoom, err := parseViewParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("streaming unsupported"))
		return
	}

	surfaceID := surfaceOf(r, userID)
	view, frames := h.network.StreamLayout(r.Context(), surfaceID, userID, filter, zoom)
	h.stream(w, flusher, surfaceID, view, frames)
}

// Reheat handles POST /api/v1/network/reheat and streams the new frames
func (h *NetworkHandler) Reheat(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req ReheatRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("streaming unsupported"))
		return
	}

	surfaceID := surfaceOf(r, userID)
	frames, err := h.network.Reheat(r.Context(), surfaceID, req.Alpha)
	if err != nil {
		h.errors.Handle(w, r, surfaceError(err))
		return
	}
	h.stream(w, flusher, surfaceID, nil, frames)
}

// Pin handles POST /api/v1/network/pin
func (h *NetworkHandler) Pin(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req PinRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.network.Pin(surfaceOf(r, userID), req.NodeID, req.X, req.Y); err != nil {
		h.errors.Handle(w, r, surfaceError(err))
		return
	}
	common.RespondNoContent(w)
}

// Release handles POST /api/v1/network/release
func (h *NetworkHandler) Release(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req ReleaseRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.network.Release(surfaceOf(r, userID), req.NodeID); err != nil {
		h.errors.Handle(w, r, surfaceError(err))
		return
	}
	common.RespondNoContent(w)
}

func (h *NetworkHandler) stream(w http.ResponseWriter, flusher http.Flusher, surfaceID string, view *network.View, frames <-chan layout.Frame) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	abort := func(err error) {
		h.logger.Debug("Layout stream closed by client", zap.String("surface", surfaceID), zap.Error(err))
		h.network.CloseSurface(surfaceID)
		for range frames {
		}
	}

	if view != nil {
		if err := writeEvent(w, EventView, view); err != nil {
			abort(err)
			return
		}
		flusher.Flush()
	}

	for frame := range frames {
		name := EventFrame
		if frame.Done {
			name = EventDone
		}
		if err := writeEvent(w, name, frame); err != nil {
			abort(err)
			return
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}

// surfaceOf names the layout surface of the request: the browser session,
// or the user for bearer-token clients
func surfaceOf(r *http.Request, userID string) string {
	if common.GetAuthMethod(r.Context()) == common.AuthMethodBearer {
		return "user:" + userID
	}
	if id, ok := common.GetBrowserSessionID(r.Context()); ok {
		return id
	}
	return "user:" + userID
}

func surfaceError(err error) error {
	switch {
	case errors.Is(err, layout.ErrUnknownNode):
		return pkgerrors.NewNotFoundError("node").WithCause(err)
	case errors.Is(err, layout.ErrNoSimulation):
		return pkgerrors.NewValidationError("no layout has been started").WithCode(pkgerrors.CodeInvalidRequest).WithCause(err)
	default:
		return err
	}
}
