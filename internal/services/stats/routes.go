package stats

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lama-alharbi8/SkillSwap/internal/middleware"
)

// SetupRoutes registers the statistics route.
func (s *StatsService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/statistics")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetStatistics)
}
