package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"gmaps-scraper/config"
	"gmaps-scraper/jobs"
)

// Server is the HTTP surface over the job coordinator: submit a scrape,
// poll it, download it as CSV. Validation and clamping happen here,
// before anything reaches the core.
type Server struct {
	app   *fiber.App
	cfg   *config.Config
	coord *jobs.Coordinator
}

func New(cfg *config.Config, coord *jobs.Coordinator) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "gmaps-scraper",
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(RequestLogger())

	s := &Server{app: app, cfg: cfg, coord: coord}

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Post("/scrape", s.handleScrape)
	api.Get("/job/:jobId", s.handleJobResult)
	api.Get("/export/:jobId", s.handleExport)

	return s
}

// Listen blocks serving HTTP on the configured port.
func (s *Server) Listen() error {
	return s.app.Listen(fmt.Sprintf(":%d", s.cfg.Port))
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
