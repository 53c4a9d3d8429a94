package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
	pkgauth "github.com/FedericoTs/LinkedinAnalytics/pkg/auth"
)

// Message types sent to clients
const (
	TypeLayoutStarted = "layout.started"
	TypeLayoutFrame   = "layout.frame"
	TypeLayoutDone    = "layout.done"
	TypeError         = "error"
)

// DefaultFrameStride sends every fifth intermediate frame
const DefaultFrameStride = 5

// TokenValidator verifies the access token presented on connect
type TokenValidator interface {
	ValidateToken(token string) (*pkgauth.Claims, error)
}

// Message is the envelope of every pushed message
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// LayoutRequest is the body of a "layout" route message
type LayoutRequest struct {
	Action string `json:"action"`
	Filter string `json:"filter"`
	Zoom   int    `json:"zoom"`
}

// PusherFactory returns a pusher for a stage endpoint
type PusherFactory func(endpoint string) ports.Pusher

// Handler implements the $connect, $disconnect and layout routes
type Handler struct {
	connections ports.ConnectionStore
	validator   TokenValidator
	network     *services.NetworkService
	pushers     PusherFactory
	frameStride int
	now         func() time.Time
	logger      *zap.Logger
}

// NewHandler creates the WebSocket route handler
func NewHandler(
	connections ports.ConnectionStore,
	validator TokenValidator,
	networkService *services.NetworkService,
	pushers PusherFactory,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		connections: connections,
		validator:   validator,
		network:     networkService,
		pushers:     pushers,
		frameStride: DefaultFrameStride,
		now:         time.Now,
		logger:      logger,
	}
}

func endpointOf(req events.APIGatewayWebsocketProxyRequest) string {
	return req.RequestContext.DomainName + "/" + req.RequestContext.Stage
}

func tokenOf(req events.APIGatewayWebsocketProxyRequest) string {
	if token := req.QueryStringParameters["token"]; token != "" {
		return token
	}
	for k, v := range req.Headers {
		if strings.EqualFold(k, "Authorization") {
			return strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
		}
	}
	return ""
}

func status(code int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: code}
}

// Connect authenticates the connection and records it
func (h *Handler) Connect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	token := tokenOf(req)
	if token == "" || h.validator == nil {
		h.logger.Warn("Connection request missing token", zap.String("connectionID", connectionID))
		return status(http.StatusUnauthorized), nil
	}
	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		h.logger.Warn("Rejected connection token", zap.String("connectionID", connectionID), zap.Error(err))
		return status(http.StatusUnauthorized), nil
	}

	conn := ports.Connection{
		ConnectionID: connectionID,
		UserID:       claims.UserID,
		ConnectedAt:  h.now(),
		Endpoint:     endpointOf(req),
	}
	if err := h.connections.Save(ctx, conn); err != nil {
		h.logger.Error("Failed to save connection", zap.String("connectionID", connectionID), zap.Error(err))
		return status(http.StatusInternalServerError), nil
	}

	h.logger.Info("Connected", zap.String("connectionID", connectionID), zap.String("userID", claims.UserID))
	return status(http.StatusOK), nil
}

// Disconnect forgets the connection and stops its layout surface
func (h *Handler) Disconnect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID
	h.network.CloseSurface(connectionID)

	if err := h.connections.Delete(ctx, connectionID); err != nil {
		h.logger.Error("Failed to delete connection", zap.String("connectionID", connectionID), zap.Error(err))
		return status(http.StatusInternalServerError), nil
	}
	h.logger.Info("Disconnected", zap.String("connectionID", connectionID))
	return status(http.StatusOK), nil
}

// Layout builds the caller's network and pushes the layout as it settles.
// The connection ID doubles as the surface ID.
func (h *Handler) Layout(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	conn, err := h.connections.Get(ctx, connectionID)
	if err != nil || conn == nil {
		h.logger.Warn("Layout request from unknown connection", zap.String("connectionID", connectionID), zap.Error(err))
		return status(http.StatusForbidden), nil
	}

	pusher := h.pushers(endpointOf(req))

	var body LayoutRequest
	if req.Body != "" {
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			_ = h.send(ctx, pusher, connectionID, TypeError, map[string]string{"message": "invalid layout request"})
			return status(http.StatusBadRequest), nil
		}
	}
	filter, err := network.ParseFilter(body.Filter)
	if err != nil {
		_ = h.send(ctx, pusher, connectionID, TypeError, map[string]string{"message": err.Error()})
		return status(http.StatusBadRequest), nil
	}

	zoom := network.DefaultZoom
	if body.Zoom != 0 {
		zoom = network.ClampZoom(body.Zoom)
	}

	// surfaces do not outlive the invocation
	defer h.network.CloseSurface(connectionID)

	view, frames := h.network.StreamLayout(ctx, connectionID, conn.UserID, filter, zoom)
	if err := h.send(ctx, pusher, connectionID, TypeLayoutStarted, view); err != nil {
		h.network.CloseSurface(connectionID)
		for range frames {
		}
		return status(http.StatusGone), nil
	}

	sent := 0
	for frame := range frames {
		if !frame.Done && frame.Iteration%h.frameStride != 0 {
			continue
		}
		msgType := TypeLayoutFrame
		if frame.Done {
			msgType = TypeLayoutDone
		}
		if err := h.send(ctx, pusher, connectionID, msgType, frame); err != nil {
			h.network.CloseSurface(connectionID)
			for range frames {
			}
			break
		}
		sent++
	}

	h.logger.Debug("Layout streamed",
		zap.String("connectionID", connectionID),
		zap.Int("frames", sent),
		zap.Bool("fallback", view.FromFallback),
	)
	return status(http.StatusOK), nil
}

func (h *Handler) send(ctx context.Context, pusher ports.Pusher, connectionID, msgType string, data interface{}) error {
	payload, err := json.Marshal(Message{Type: msgType, Timestamp: h.now().Unix(), Data: data})
	if err != nil {
		return err
	}
	if err := pusher.Push(ctx, connectionID, payload); err != nil {
		if !errors.Is(err, ErrGone) {
			h.logger.Warn("Push failed", zap.String("connectionID", connectionID), zap.String("type", msgType), zap.Error(err))
		}
		return err
	}
	return nil
}
