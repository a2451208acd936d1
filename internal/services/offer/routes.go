package offer

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lama-alharbi8/SkillSwap/internal/middleware"
)

// SetupRoutes registers the offered/needed skill routes.
func (s *OfferService) SetupRoutes(app *fiber.App) {
	offers := app.Group("/api/offers")
	offers.Use(middleware.AuthMiddleware(s.jwtService))

	offers.Post("/", s.CreateOffer)
	offers.Get("/", s.ListOffers)
	offers.Put("/:id", s.UpdateOffer)
	offers.Delete("/:id", s.DeactivateOffer)

	needs := app.Group("/api/needs")
	needs.Use(middleware.AuthMiddleware(s.jwtService))

	needs.Post("/", s.CreateNeed)
	needs.Get("/", s.ListNeeds)
	needs.Put("/:id", s.UpdateNeed)
	needs.Delete("/:id", s.DeactivateNeed)
}
