package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/delivery/http/handler"
	"github.com/saferoute-service/internal/delivery/http/middleware"
	"github.com/saferoute-service/internal/pkg/errors"
)

// Server is the Fiber HTTP server fronting the API.
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	routeHandler      *handler.RouteHandler
	geocodeHandler    *handler.GeocodeHandler
	occurrenceHandler *handler.OccurrenceHandler
	riskHandler       *handler.RiskHandler
	navigationHandler *handler.NavigationHandler
	healthHandler     *handler.HealthHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	routeHandler *handler.RouteHandler,
	geocodeHandler *handler.GeocodeHandler,
	occurrenceHandler *handler.OccurrenceHandler,
	riskHandler *handler.RiskHandler,
	navigationHandler *handler.NavigationHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "SafeRoute Service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:               app,
		config:            cfg,
		logger:            logger,
		routeHandler:      routeHandler,
		geocodeHandler:    geocodeHandler,
		occurrenceHandler: occurrenceHandler,
		riskHandler:       riskHandler,
		navigationHandler: navigationHandler,
		healthHandler:     healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthHandler.Check)

	api.Post("/routes/calculate", s.routeHandler.Calculate)

	api.Post("/geocode", s.geocodeHandler.Geocode)
	api.Post("/reverse-geocode", s.geocodeHandler.ReverseGeocode)

	api.Post("/occurrences", s.occurrenceHandler.Create)
	api.Post("/occurrences/merge", s.occurrenceHandler.Merge)

	api.Get("/risk/regions/:id", s.riskHandler.GetByRegion)
	api.Get("/risk/by-coordinate", s.riskHandler.GetByCoordinate)

	nav := api.Group("/navigation/sessions")
	nav.Post("/", s.navigationHandler.Start)
	nav.Get("/:id", s.navigationHandler.Get)
	nav.Post("/:id/position", s.navigationHandler.UpdatePosition)
	nav.Post("/:id/alternative", s.navigationHandler.DecideAlternative)
	nav.Delete("/:id", s.navigationHandler.End)
}

func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    errors.ErrInternalServer.Code,
				"message": err.Error(),
			},
		})
	}
}
