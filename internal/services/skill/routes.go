package skill

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lama-alharbi8/SkillSwap/internal/middleware"
)

// SetupRoutes registers the skill taxonomy routes.
func (s *SkillService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/skills")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CreateSkill)
	api.Get("/", s.ListSkills)
}
