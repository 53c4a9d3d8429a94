package di

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/application/ports"
	"github.com/FedericoTs/LinkedinAnalytics/application/services"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/config"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/http/rest"
	"github.com/FedericoTs/LinkedinAnalytics/interfaces/websocket"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *zap.Logger
	LogLevel         zap.AtomicLevel
	AWSConfig        aws.Config
	Metrics          *observability.Collector
	Tracing          *observability.TracerProvider
	Store            ports.KeyValueStore
	Connections      ports.ConnectionStore
	Publisher        ports.EventPublisher
	AuthService      *services.AuthService
	NetworkService   *services.NetworkService
	ContentService   *services.ContentService
	AnalyticsService *services.AnalyticsService
	Router           *rest.Router
	WebSocket        *websocket.Handler
	Watcher          *config.ConfigWatcher // nil unless WATCH_CONFIG is set
}
