package chain

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lama-alharbi8/SkillSwap/internal/middleware"
)

// SetupRoutes registers the exchange chain routes.
func (s *ChainService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/chains")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/discover", s.DiscoverChains)
	api.Post("/", s.CreateChain)
	api.Get("/", s.GetMyChains)
	api.Get("/:id", s.GetChain)
	api.Put("/:id/links/:linkId", s.RespondToLink)
}
