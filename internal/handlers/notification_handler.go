package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
	"github.com/gigfolio/gigfolio-backend/internal/realtime"
)

type NotificationHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewNotificationHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *NotificationHandler {
	return &NotificationHandler{DB: db, Hub: hub, RDB: rdb}
}

// createNotification persists a notification and pushes it over the hub
// and redis. Push failures are logged, never surfaced: the row is the
// source of truth.
func (h *NotificationHandler) createNotification(tx *gorm.DB, n *models.Notification) error {
	if err := tx.Create(n).Error; err != nil {
		return err
	}

	if h.Hub != nil {
		h.Hub.SendToUser(n.UserID, fiber.Map{
			"event": "notification",
			"data":  n,
		})
	}

	if h.RDB != nil {
		channel := realtime.NotificationChannel + n.UserID.String()
		if err := h.RDB.Publish(context.Background(), channel, n.Text).Err(); err != nil {
			log.Printf("notifications: redis publish failed: %v", err)
		}
	}

	return nil
}

// notifyAdmins fans one notification out to every admin account.
// Returns the number of admins reached.
func (h *NotificationHandler) notifyAdmins(tx *gorm.DB, senderID uuid.UUID, ntype, text, onClickPath string) (int, error) {
	var admins []models.User
	if err := tx.Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		return 0, err
	}

	for _, admin := range admins {
		n := models.Notification{
			UserID:      admin.ID,
			SenderID:    senderID,
			Type:        ntype,
			Text:        text,
			OnClickPath: onClickPath,
		}
		if err := h.createNotification(tx, &n); err != nil {
			return 0, err
		}
	}
	return len(admins), nil
}

// List returns the caller's notifications split into unseen and seen,
// newest first within each group.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var all []models.Notification
	if err := h.DB.
		Where("user_id = ?", userUUID).
		Order("created_at DESC").
		Find(&all).Error; err != nil {
		return fail(c, 500, "Failed to fetch notifications")
	}

	unseen := make([]models.Notification, 0)
	seen := make([]models.Notification, 0)
	for _, n := range all {
		if n.Read {
			seen = append(seen, n)
		} else {
			unseen = append(unseen, n)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"unseen": unseen,
			"seen":   seen,
		},
	})
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var count int64
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userUUID, false).
		Count(&count).Error; err != nil {
		return fail(c, 500, "Failed to count notifications")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"unread": count},
	})
}

// MarkRead is idempotent: re-marking a read notification succeeds.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid notification ID")
	}

	var n models.Notification
	if err := h.DB.First(&n, "id = ?", id).Error; err != nil {
		return fail(c, 404, "Notification not found")
	}
	if n.UserID != userUUID {
		return fail(c, 403, "Access denied")
	}

	if !n.Read {
		if err := h.DB.Model(&n).Update("read", true).Error; err != nil {
			return fail(c, 500, "Failed to update notification")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notification marked as read.",
	})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userUUID, false).
		Update("read", true).Error; err != nil {
		return fail(c, 500, "Failed to update notifications")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "All notifications marked as read.",
	})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid notification ID")
	}

	var n models.Notification
	if err := h.DB.First(&n, "id = ?", id).Error; err != nil {
		return fail(c, 404, "Notification not found")
	}
	if n.UserID != userUUID {
		return fail(c, 403, "Access denied")
	}

	if err := h.DB.Delete(&n).Error; err != nil {
		return fail(c, 500, "Failed to delete notification")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notification deleted.",
	})
}

func (h *NotificationHandler) DeleteAll(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	if err := h.DB.
		Where("user_id = ?", userUUID).
		Delete(&models.Notification{}).Error; err != nil {
		return fail(c, 500, "Failed to delete notifications")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "All notifications deleted.",
	})
}
