package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/fatihsahinbas/eeg-mental-tracker/configs"
	"github.com/fatihsahinbas/eeg-mental-tracker/internal/pipeline"
	"github.com/fatihsahinbas/eeg-mental-tracker/internal/session"
	"github.com/fatihsahinbas/eeg-mental-tracker/pkg/logging"
)

// Server is the thin HTTP/websocket transport over the pipeline. It owns no
// analysis logic; it forwards control calls in and fans cycle records out.
type Server struct {
	app    *fiber.App
	hub    *Hub
	sched  *pipeline.Scheduler
	store  *session.Store
	cfg    *configs.ServerConfig
	logger logging.Logger

	// base context for streaming started over the wire
	baseCtx context.Context
}

// New creates the transport around one scheduler and session store
func New(cfg *configs.ServerConfig, sched *pipeline.Scheduler, store *session.Store, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	logger = logger.WithFields(logging.Fields{"component": "server"})

	app := fiber.New(fiber.Config{
		AppName:               "eeg-mental-tracker",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:     app,
		hub:     NewHub(logger),
		sched:   sched,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		baseCtx: context.Background(),
	}
	s.routes()
	return s
}

// Run serves until the context is cancelled. The pipeline emits into the
// websocket hub and the session store through independent subscriptions, so
// a slow chart consumer never costs the session log a record.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	go s.hub.Run(ctx)

	hubCh, cancelHub := s.sched.Subscribe(64)
	defer cancelHub()
	go s.pumpUpdates(hubCh)

	storeCh, cancelStore := s.sched.Subscribe(256)
	defer cancelStore()
	go s.store.Consume(storeCh)

	go func() {
		<-ctx.Done()
		s.sched.Stop()
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("Shutdown failed", logging.Fields{"error": err.Error()})
		}
	}()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info("Listening", logging.Fields{"addr": addr})
	return s.app.Listen(addr)
}

// pumpUpdates forwards cycle records to all websocket clients
func (s *Server) pumpUpdates(ch <-chan pipeline.CycleRecord) {
	for record := range ch {
		data, err := json.Marshal(record)
		if err != nil {
			s.logger.Error("Failed to encode cycle record", logging.Fields{"error": err.Error()})
			continue
		}
		frame, err := json.Marshal(envelope{Event: eventEEGUpdate, Data: data})
		if err != nil {
			continue
		}
		s.hub.Broadcast(frame)
	}
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/session/save", s.handleSessionSave)
	api.Post("/session/clear", s.handleSessionClear)
	api.Get("/session/stats", s.handleSessionStats)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		serveClient(s.hub, conn, s, s.logger)
	}))
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":             "online",
		"streaming":          s.sched.Running(),
		"current_mode":       s.sched.Mode().String(),
		"session_id":         s.store.ID(),
		"session_data_count": s.store.Len(),
		"connected_clients":  s.hub.ClientCount(),
	})
}

func (s *Server) handleSessionSave(c *fiber.Ctx) error {
	dataPoints := s.store.Len()
	path, err := s.store.Save()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":      "success",
		"filename":    path,
		"data_points": dataPoints,
	})
}

func (s *Server) handleSessionClear(c *fiber.Ctx) error {
	s.store.Clear()
	return c.JSON(fiber.Map{
		"status":     "success",
		"session_id": s.store.ID(),
	})
}

func (s *Server) handleSessionStats(c *fiber.Ctx) error {
	stats := s.store.Summarize()
	if stats == nil {
		return c.JSON(fiber.Map{"status": "empty"})
	}
	return c.JSON(stats)
}

// streamControl implementation, called from websocket clients

func (s *Server) startStreaming() error {
	return s.sched.Start(s.baseCtx)
}

func (s *Server) stopStreaming() {
	s.sched.Stop()
}

func (s *Server) changeMode(name string) error {
	return s.sched.SetModeString(name)
}

func (s *Server) currentMode() string {
	return s.sched.Mode().String()
}
