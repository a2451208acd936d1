package notification

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lama-alharbi8/SkillSwap/internal/middleware"
)

// SetupRoutes registers the notification feed routes.
func (s *NotificationService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/notifications")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetNotifications)
	api.Get("/count", s.GetUnreadCount)
	api.Put("/read-all", s.MarkAllRead)
	api.Put("/:id/read", s.MarkRead)
}
