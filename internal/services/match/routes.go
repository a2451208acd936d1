package match

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lama-alharbi8/SkillSwap/internal/middleware"
)

// SetupRoutes registers the match discovery route.
func (s *MatchService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/matches")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetMatches)
}
