package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/iotconnect-core/internal/audit"
	"github.com/nerrad567/iotconnect-core/internal/auth"
	"github.com/nerrad567/iotconnect-core/internal/controllable"
	"github.com/nerrad567/iotconnect-core/internal/device"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/config"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultOperationTimeout bounds storage work when the config leaves it unset.
const defaultOperationTimeout = 5 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        config.APIConfig
	Security      config.SecurityConfig
	Logger        *logging.Logger
	Auth          *auth.Service
	Devices       *device.Registry
	Controllables *controllable.Registry

	// Audit stores the provisioning audit trail. Optional.
	Audit audit.Repository

	// HealthCheck reports the state of backing services for /api/health.
	// Optional.
	HealthCheck func(ctx context.Context) error

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg           config.APIConfig
	serviceKey    []byte
	logger        *logging.Logger
	auth          *auth.Service
	devices       *device.Registry
	controllables *controllable.Registry
	healthCheck   func(ctx context.Context) error
	opTimeout     time.Duration
	version       string
	server        *http.Server

	auditRepo   audit.Repository
	auditCh     chan *audit.Entry
	auditCancel context.CancelFunc
	auditDone   chan struct{}
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Controllables == nil {
		return nil, fmt.Errorf("controllable registry is required")
	}
	if deps.Security.ServiceKey == "" {
		return nil, fmt.Errorf("service key is required")
	}

	opTimeout := time.Duration(deps.Config.Timeouts.Operation) * time.Second
	if opTimeout <= 0 {
		opTimeout = defaultOperationTimeout
	}

	s := &Server{
		cfg:           deps.Config,
		serviceKey:    []byte(deps.Security.ServiceKey),
		logger:        deps.Logger,
		auth:          deps.Auth,
		devices:       deps.Devices,
		controllables: deps.Controllables,
		healthCheck:   deps.HealthCheck,
		opTimeout:     opTimeout,
		version:       deps.Version,
		auditRepo:     deps.Audit,
	}
	if deps.Audit != nil {
		s.auditCh = make(chan *audit.Entry, auditChanSize)
	}
	return s, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	if s.auditCh != nil {
		auditCtx, cancel := context.WithCancel(context.Background())
		s.auditCancel = cancel
		s.auditDone = make(chan struct{})
		go func() {
			defer close(s.auditDone)
			s.drainAuditLog(auditCtx)
		}()
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to
// gracefulShutdownTimeout for in-flight requests, then flushes the
// audit queue.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.auditCancel != nil {
		s.auditCancel()
		<-s.auditDone
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
