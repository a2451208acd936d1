package notification

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
	"github.com/lama-alharbi8/SkillSwap/internal/db"
	"github.com/lama-alharbi8/SkillSwap/internal/models"
	"github.com/lama-alharbi8/SkillSwap/internal/utils"
)

// NotificationService serves the per-user notification feed.
type NotificationService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	dispatcher *Dispatcher
}

// NewNotificationService creates the service.
func NewNotificationService(cfg *config.Config, dispatcher *Dispatcher) *NotificationService {
	return &NotificationService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		dispatcher: dispatcher,
	}
}

// GetNotifications returns the most recent notifications for the user.
func (s *NotificationService) GetNotifications(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, type, title, message, exchange_id, chain_id, is_read, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userUUID, limit)
	if err != nil {
		log.Printf("querying notifications: %v", err)
		return utils.InternalError(c, "Failed to load notifications")
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.ExchangeID, &n.ChainID, &n.IsRead, &n.CreatedAt, &n.ReadAt); err != nil {
			log.Printf("scanning notification: %v", err)
			continue
		}
		notifications = append(notifications, n)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// GetUnreadCount returns how many notifications the user has not read yet.
func (s *NotificationService) GetUnreadCount(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var count int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false
	`, userUUID).Scan(&count)
	if err != nil {
		log.Printf("counting unread notifications: %v", err)
		return utils.InternalError(c, "Failed to count notifications")
	}

	return c.JSON(fiber.Map{"unread_count": count})
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid notification ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE id = $2 AND user_id = $3 AND is_read = false
	`, time.Now(), notificationID, userUUID)
	if err != nil {
		log.Printf("marking notification read: %v", err)
		return utils.InternalError(c, "Failed to update notification")
	}
	if tag.RowsAffected() == 0 {
		return utils.NotFoundError(c, "Notification not found or already read")
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead marks the user's whole feed as read.
func (s *NotificationService) MarkAllRead(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.ValidationError(c, utils.CodeInvalidInput, "Invalid user ID")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE user_id = $2 AND is_read = false
	`, time.Now(), userUUID)
	if err != nil {
		log.Printf("marking notifications read: %v", err)
		return utils.InternalError(c, "Failed to update notifications")
	}

	return c.JSON(fiber.Map{"success": true, "updated": tag.RowsAffected()})
}
