package server

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/adetumilara/stellar-insights/internal/errors"
	"github.com/adetumilara/stellar-insights/internal/metrics"
	"github.com/adetumilara/stellar-insights/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // browser dashboards connect cross-origin
	},
}

// handleWebSocket authenticates the upgrade request and then runs the full
// protocol loop on it, blocking until the connection closes.
//
// WS_AUTH_TOKEN is read from the environment per request, not at startup,
// so operators can rotate the token without restarting. An empty or unset
// value disables the check entirely.
func (s *Server) handleWebSocket(c echo.Context) error {
	if expected := os.Getenv("WS_AUTH_TOKEN"); expected != "" {
		if c.QueryParam("token") != expected {
			metrics.WebSocketConnectionsTotal.WithLabelValues("unauthorized").Inc()
			return apperrors.UnauthorizedError("Unauthorized")
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		metrics.WebSocketConnectionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}
	metrics.WebSocketConnectionsTotal.WithLabelValues("success").Inc()

	realtime.NewSession(s.registry, conn, s.clock).Run()
	return nil
}

// handleWSMetrics serves the distribution layer's own counters as JSON,
// separate from the Prometheus endpoint.
func (s *Server) handleWSMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.Snapshot())
}
