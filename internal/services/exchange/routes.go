package exchange

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lama-alharbi8/SkillSwap/internal/middleware"
)

// SetupRoutes registers the exchange routes.
func (s *ExchangeService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/exchanges")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/calculate", s.Calculate)
	api.Post("/", s.CreateExchange)
	api.Get("/", s.GetMyExchanges)
	api.Get("/:id", s.GetExchange)
	api.Put("/:id/status", s.UpdateStatus)
	api.Post("/:id/rating", s.SubmitRating)
	api.Post("/:id/recalculate", s.RecalculateExchange)
}
