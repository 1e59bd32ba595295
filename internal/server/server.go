package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/frameolabs/frameo-control/internal/adb"
	api "github.com/frameolabs/frameo-control/internal/api/http"
	"github.com/frameolabs/frameo-control/internal/api/middleware"
	"github.com/frameolabs/frameo-control/internal/device"
	"github.com/frameolabs/frameo-control/internal/infrastructure/config"
	"github.com/frameolabs/frameo-control/internal/infrastructure/logging"
	"github.com/frameolabs/frameo-control/internal/infrastructure/monitoring"
	"github.com/frameolabs/frameo-control/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
}

// New builds the full dependency graph from configuration.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics()

	client, err := adb.NewClient(cfg.ADB.Path, cfg.ADB.KeyPath,
		adb.WithTimeout(time.Duration(cfg.ADB.CommandTimeoutSeconds)*time.Second),
		adb.WithLogger(logger.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("adb transport: %w", err)
	}
	logger.Info("adb transport ready", zap.String("binary", client.Path()))

	keyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := client.EnsureKeys(keyCtx); err != nil {
		// adb falls back to its own key pair; persistent keys just avoid
		// re-authorizing the frame after a reinstall.
		logger.Warn("could not provision adb keys", zap.Error(err))
	}
	cancel()

	sessions := session.NewManager(transport{client}, logger.Logger).WithMetrics(metrics)
	controller := device.NewController(sessions, logger.Logger).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	handlers := api.NewHandlers(sessions, controller, client, logger.Logger)
	api.Register(router, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	return &Server{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		http:     &http.Server{Addr: addr, Handler: router},
		sessions: sessions,
	}, nil
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("starting frameo control service", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the device session.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(ctx)
	if cerr := s.sessions.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// transport adapts the adb client's concrete handle types to the session
// manager's interfaces.
type transport struct {
	client *adb.Client
}

func (t transport) OpenUSB(ctx context.Context, serial string) (session.Handle, error) {
	h, err := t.client.OpenUSB(ctx, serial)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (t transport) OpenNetwork(ctx context.Context, host string, port int) (session.Handle, error) {
	h, err := t.client.OpenNetwork(ctx, host, port)
	if err != nil {
		return nil, err
	}
	return h, nil
}
