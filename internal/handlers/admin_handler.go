package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

type AdminHandler struct {
	DB            *gorm.DB
	Notifications *NotificationHandler
}

func NewAdminHandler(db *gorm.DB, nh *NotificationHandler) *AdminHandler {
	return &AdminHandler{DB: db, Notifications: nh}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("q"))

	q := h.DB.Preload("CurrentSubscription").Order("created_at DESC")
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return fail(c, 500, "Failed to fetch users")
	}

	return c.JSON(fiber.Map{"success": true, "data": users})
}

type UpdateApprovalReq struct {
	IsApproved bool `json:"is_approved"`
}

// UpdateUserApproval approves or unapproves the account. Approval puts the
// user's tasks in the public listing; either change notifies the user.
func (h *AdminHandler) UpdateUserApproval(c *fiber.Ctx) error {
	adminUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid user ID")
	}

	var req UpdateApprovalReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		return fail(c, 404, "User not found")
	}

	if user.IsApproved != req.IsApproved {
		if err := h.DB.Model(&user).Update("is_approved", req.IsApproved).Error; err != nil {
			return fail(c, 500, "Failed to update approval")
		}

		text := "Your account has been approved. Your tasks are now publicly visible."
		if !req.IsApproved {
			text = "Your account approval has been revoked."
		}
		n := models.Notification{
			UserID:      user.ID,
			SenderID:    adminUUID,
			Type:        models.NotificationStatusUpdate,
			Text:        text,
			OnClickPath: "/profile",
		}
		_ = h.Notifications.createNotification(h.DB, &n)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User approval updated successfully.",
	})
}

type UpdateRoleReq struct {
	IsAdmin bool `json:"is_admin"`
}

// UpdateUserRole grants or revokes admin and notifies the user.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	adminUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid user ID")
	}
	if userID == adminUUID {
		return fail(c, 400, "You cannot change your own role")
	}

	var req UpdateRoleReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		return fail(c, 404, "User not found")
	}

	if user.IsAdmin != req.IsAdmin {
		if err := h.DB.Model(&user).Update("is_admin", req.IsAdmin).Error; err != nil {
			return fail(c, 500, "Failed to update role")
		}

		text := "Your account has been granted admin access."
		if !req.IsAdmin {
			text = "Your admin access has been revoked."
		}
		n := models.Notification{
			UserID:      user.ID,
			SenderID:    adminUUID,
			Type:        models.NotificationRoleUpdate,
			Text:        text,
			OnClickPath: "/profile",
		}
		_ = h.Notifications.createNotification(h.DB, &n)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User role updated successfully.",
	})
}

type UpdateStatusReq struct {
	IsActive bool `json:"is_active"`
}

// UpdateUserStatus activates or deactivates an account. Deactivated users
// cannot log in.
func (h *AdminHandler) UpdateUserStatus(c *fiber.Ctx) error {
	adminUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid user ID")
	}
	if userID == adminUUID {
		return fail(c, 400, "You cannot change your own status")
	}

	var req UpdateStatusReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		return fail(c, 404, "User not found")
	}

	if user.IsActive != req.IsActive {
		if err := h.DB.Model(&user).Update("is_active", req.IsActive).Error; err != nil {
			return fail(c, 500, "Failed to update status")
		}

		text := "Your account has been reactivated."
		if !req.IsActive {
			text = "Your account has been deactivated."
		}
		n := models.Notification{
			UserID:      user.ID,
			SenderID:    adminUUID,
			Type:        models.NotificationStatusUpdate,
			Text:        text,
			OnClickPath: "/profile",
		}
		_ = h.Notifications.createNotification(h.DB, &n)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User status updated successfully.",
	})
}

func (h *AdminHandler) ListSubscriptions(c *fiber.Ctx) error {
	var subs []models.Subscription
	if err := h.DB.
		Preload("User").
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return fail(c, 500, "Failed to fetch subscriptions")
	}

	return c.JSON(fiber.Map{"success": true, "data": subs})
}

// Reports aggregates platform activity, optionally bounded by from/to
// (YYYY-MM-DD) and filtered by a task-title search term.
func (h *AdminHandler) Reports(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	searchTerm := strings.TrimSpace(c.Query("q"))

	taskQ := h.DB.Model(&models.Task{})
	subQ := h.DB.Model(&models.Subscription{})

	if fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return fail(c, 400, "from must be a valid date (YYYY-MM-DD)")
		}
		taskQ = taskQ.Where("created_at >= ?", from)
		subQ = subQ.Where("created_at >= ?", from)
	}
	if toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return fail(c, 400, "to must be a valid date (YYYY-MM-DD)")
		}
		end := to.AddDate(0, 0, 1)
		taskQ = taskQ.Where("created_at < ?", end)
		subQ = subQ.Where("created_at < ?", end)
	}
	if searchTerm != "" {
		taskQ = taskQ.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(searchTerm)+"%")
	}

	var totalTasks, activeTasks int64
	if err := taskQ.Session(&gorm.Session{}).Count(&totalTasks).Error; err != nil {
		return fail(c, 500, "Failed to build report")
	}
	if err := taskQ.Session(&gorm.Session{}).Where("is_active = ?", true).Count(&activeTasks).Error; err != nil {
		return fail(c, 500, "Failed to build report")
	}

	var totalUsers int64
	if err := h.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return fail(c, 500, "Failed to build report")
	}

	var revenue struct {
		Total int64
	}
	if err := subQ.Session(&gorm.Session{}).
		Select("COALESCE(SUM(price), 0) AS total").
		Scan(&revenue).Error; err != nil {
		return fail(c, 500, "Failed to build report")
	}

	var activeSubs int64
	if err := subQ.Session(&gorm.Session{}).
		Where("expiry_date >= ?", time.Now()).
		Count(&activeSubs).Error; err != nil {
		return fail(c, 500, "Failed to build report")
	}

	var lastFive []models.Subscription
	if err := h.DB.
		Preload("User").
		Order("created_at DESC").
		Limit(5).
		Find(&lastFive).Error; err != nil {
		return fail(c, 500, "Failed to build report")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_tasks":             totalTasks,
			"active_tasks":            activeTasks,
			"total_users":             totalUsers,
			"subscription_revenue":    revenue.Total,
			"active_subscriptions":    activeSubs,
			"last_five_subscriptions": lastFive,
		},
	})
}

// RequestApproval lets a user ask the admins to approve their account.
// Fails when the platform has no admin to receive the request.
func (h *AdminHandler) RequestApproval(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userUUID).Error; err != nil {
		return fail(c, 404, "User not found")
	}
	if user.IsApproved {
		return fail(c, 400, "Your account is already approved")
	}

	reached, err := h.Notifications.notifyAdmins(
		h.DB,
		userUUID,
		models.NotificationApprovalRequest,
		user.Name+" has requested account approval.",
		"/admin/users",
	)
	if err != nil {
		return fail(c, 500, "Failed to send approval request")
	}
	if reached == 0 {
		return fail(c, 400, "No administrator is available to approve accounts right now")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Approval request sent.",
	})
}
