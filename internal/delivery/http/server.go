package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/config"
	"github.com/spatial-summarize/internal/delivery/http/handler"
	"github.com/spatial-summarize/internal/delivery/http/middleware"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	// Handlers
	summarizeHandler *handler.SummarizeHandler
	layerHandler     *handler.LayerHandler
	jobHandler       *handler.JobHandler
	healthHandler    *handler.HealthHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	summarizeHandler *handler.SummarizeHandler,
	layerHandler *handler.LayerHandler,
	jobHandler *handler.JobHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Spatial Summarize",
		BodyLimit:    cfg.Server.BodyLimit * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:              app,
		config:           cfg,
		logger:           logger,
		summarizeHandler: summarizeHandler,
		layerHandler:     layerHandler,
		jobHandler:       jobHandler,
		healthHandler:    healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthHandler.Health)

	// Summarize
	api.Post("/summarize/:statistic", s.summarizeHandler.Summarize)

	// Layers
	api.Post("/layers", s.layerHandler.Create)
	api.Get("/layers", s.layerHandler.List)
	api.Get("/layers/:id", s.layerHandler.Get)
	api.Get("/layers/:id/geojson", s.layerHandler.GeoJSON)
	api.Delete("/layers/:id", s.layerHandler.Delete)

	// Jobs
	api.Post("/jobs", s.jobHandler.Submit)
	api.Get("/jobs/:id", s.jobHandler.Get)
}

// App возвращает fiber приложение (для тестов)
func (s *Server) App() *fiber.App {
	return s.app
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки fiber (404 маршрута, превышение BodyLimit и т.п.)
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "INTERNAL_SERVER_ERROR"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			switch code {
			case fiber.StatusNotFound:
				errCode = "NOT_FOUND"
			case fiber.StatusRequestEntityTooLarge:
				errCode = "LAYER_TOO_LARGE"
			case fiber.StatusMethodNotAllowed:
				errCode = "METHOD_NOT_ALLOWED"
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    errCode,
				"message": err.Error(),
			},
		})
	}
}
