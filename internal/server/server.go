package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blobs-io/blobs.live/internal/api/controller"
	"github.com/blobs-io/blobs.live/internal/config"
	"github.com/blobs-io/blobs.live/internal/hub"
	"github.com/blobs-io/blobs.live/internal/registry"
)

var tracer = otel.Tracer("server")

// Server wires the HTTP surface: the REST API, static assets and the
// websocket endpoint that feeds the hub.
type Server struct {
	engine   *gin.Engine
	hub      *hub.Hub
	registry *registry.Registry
	upgrader websocket.Upgrader
}

// NewServer builds the gin engine and mounts every route.
func NewServer(cfg *config.Config, h *hub.Hub, reg *registry.Registry, users *controller.UserController, feed *controller.FeedController) *Server {
	s := &Server{
		engine:   gin.New(),
		hub:      h,
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.engine.Use(gin.Recovery())
	if cfg.Maintenance.Enabled {
		s.engine.Use(maintenanceMode(cfg.Maintenance.Reason))
	}

	s.engine.Static("/assets", "./public/assets")
	s.engine.StaticFile("/", "./public/index.html")

	s.engine.GET("/ws", s.handleWebSocket)

	api := s.engine.Group("/api")
	{
		api.POST("/register", users.Register)
		api.POST("/login", users.Login)
		api.POST("/guest", users.GuestLogin)
		api.GET("/captcha", users.Captcha)
		api.POST("/daily", controller.AuthRequired(), users.DailyBonus)
		api.GET("/promotions", feed.Promotions)
		api.GET("/news", feed.News)
	}

	return s
}

// Engine exposes the configured gin engine for the http.Server.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// maintenanceMode short-circuits every request with a static notice.
func maintenanceMode(reason string) gin.HandlerFunc {
	if reason == "" {
		reason = "Server is under maintenance."
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": reason})
		c.Abort()
	}
}

// handleWebSocket upgrades the connection, registers it and runs the read
// pump. Every inbound frame goes through the hub dispatcher; the first read
// failure tears the connection down.
func (s *Server) handleWebSocket(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
	))
	defer span.End()

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	conn := s.registry.Register(ws)
	span.SetAttributes(attribute.String("conn.id", conn.ID))
	slog.Info("connection registered", "conn.id", conn.ID, "remote", ws.RemoteAddr().String())

	go s.readPump(conn.ID, ws)
}

func (s *Server) readPump(connID string, ws *websocket.Conn) {
	defer s.hub.HandleDisconnect(connID)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			slog.Debug("connection read ended", "conn.id", connID, "error", err)
			return
		}
		s.hub.Dispatch(connID, raw)
	}
}
