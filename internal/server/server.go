package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/adetumilara/stellar-insights/internal/config"
	apperrors "github.com/adetumilara/stellar-insights/internal/errors"
	"github.com/adetumilara/stellar-insights/internal/realtime"
)

// postgresHealthChecker is the minimal pool surface the readiness probe
// needs. *pgxpool.Pool satisfies it.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	registry  *realtime.Registry
	db        postgresHealthChecker
	clock     clockwork.Clock
	startTime time.Time
}

func NewServer(cfg *config.Config, registry *realtime.Registry, db postgresHealthChecker, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		registry:  registry,
		db:        db,
		clock:     clock,
		startTime: clock.Now(),
	}
	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Server starting", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
