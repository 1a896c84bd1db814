package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
	"github.com/gigfolio/gigfolio-backend/internal/services/quota"
)

type TaskHandler struct {
	DB    *gorm.DB
	Quota *quota.QuotaService
}

func NewTaskHandler(db *gorm.DB, q *quota.QuotaService) *TaskHandler {
	return &TaskHandler{DB: db, Quota: q}
}

type TaskReq struct {
	Title              string   `json:"title"`
	SubTitle           string   `json:"sub_title"`
	Description        string   `json:"description"`
	SkillsRequired     []string `json:"skills_required"`
	LastDateToPlaceBid string   `json:"last_date_to_place_bid"` // 2006-01-02
}

// Create posts a new task, gated by the monthly quota.
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req TaskReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	errs := FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		errs.Add("description", "Description is required")
	}
	lastDate, err := time.Parse("2006-01-02", req.LastDateToPlaceBid)
	if err != nil {
		errs.Add("last_date_to_place_bid", "Bid deadline must be a valid date (YYYY-MM-DD)")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	sub, err := h.Quota.ActiveSubscription(userUUID)
	if err != nil {
		return fail(c, 500, "Failed to check subscription")
	}

	check, err := h.Quota.CheckTaskLimit(userUUID, sub)
	if err != nil {
		return fail(c, 500, "Failed to check task limit")
	}
	if !check.CanAddTask {
		return fail(c, 400, check.Error)
	}

	skills, _ := json.Marshal(req.SkillsRequired)
	task := models.Task{
		UserID:             userUUID,
		Title:              strings.TrimSpace(req.Title),
		SubTitle:           strings.TrimSpace(req.SubTitle),
		Description:        req.Description,
		SkillsRequired:     datatypes.JSON(skills),
		LastDateToPlaceBid: lastDate,
		IsActive:           true,
	}

	if err := h.DB.Create(&task).Error; err != nil {
		return fail(c, 500, "Failed to create task")
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Task created successfully.",
		"data":    task,
	})
}

// Update edits a task owned by the caller.
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}

	var task models.Task
	if err := h.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return fail(c, 404, "Task not found")
	}
	if task.UserID != userUUID {
		return fail(c, 403, "Access denied")
	}

	var req TaskReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	if strings.TrimSpace(req.Title) != "" {
		task.Title = strings.TrimSpace(req.Title)
	}
	if req.SubTitle != "" {
		task.SubTitle = strings.TrimSpace(req.SubTitle)
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.SkillsRequired != nil {
		skills, _ := json.Marshal(req.SkillsRequired)
		task.SkillsRequired = datatypes.JSON(skills)
	}
	if req.LastDateToPlaceBid != "" {
		lastDate, err := time.Parse("2006-01-02", req.LastDateToPlaceBid)
		if err != nil {
			return fail(c, 400, "Bid deadline must be a valid date (YYYY-MM-DD)")
		}
		task.LastDateToPlaceBid = lastDate
	}

	if err := h.DB.Save(&task).Error; err != nil {
		return fail(c, 500, "Failed to update task")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task updated successfully.",
		"data":    task,
	})
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}

	var task models.Task
	if err := h.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return fail(c, 404, "Task not found")
	}
	if task.UserID != userUUID {
		return fail(c, 403, "Access denied")
	}

	if err := h.DB.Delete(&task).Error; err != nil {
		return fail(c, 500, "Failed to delete task")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task deleted successfully.",
	})
}

// ListMine returns tasks posted by the caller, newest first.
func (h *TaskHandler) ListMine(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var tasks []models.Task
	if err := h.DB.
		Where("user_id = ?", userUUID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return fail(c, 500, "Failed to fetch tasks")
	}

	return c.JSON(fiber.Map{"success": true, "data": tasks})
}

// ListPublic returns active tasks whose owner is approved, optionally
// filtered by a free-text query over title, subtitle and required skills.
func (h *TaskHandler) ListPublic(c *fiber.Ctx) error {
	search := strings.ToLower(strings.TrimSpace(c.Query("q")))

	q := h.DB.
		Preload("User").
		Joins("JOIN users ON users.id = tasks.user_id").
		Where("tasks.is_active = ?", true).
		Where("users.is_approved = ?", true)

	if search != "" {
		like := "%" + search + "%"
		q = q.Where(
			"LOWER(tasks.title) LIKE ? OR LOWER(tasks.sub_title) LIKE ? OR LOWER(CAST(tasks.skills_required AS TEXT)) LIKE ?",
			like, like, like,
		)
	}

	var tasks []models.Task
	if err := q.Order("tasks.created_at DESC").Find(&tasks).Error; err != nil {
		return fail(c, 500, "Failed to fetch tasks")
	}

	return c.JSON(fiber.Map{"success": true, "data": tasks})
}

func (h *TaskHandler) GetByID(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}

	var task models.Task
	if err := h.DB.Preload("User").First(&task, "id = ?", taskID).Error; err != nil {
		return fail(c, 404, "Task not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": task})
}
