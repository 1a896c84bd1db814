package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

type ReviewHandler struct {
	DB *gorm.DB
}

func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{DB: db}
}

type ReviewReq struct {
	TaskID string `json:"task_id"`
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// Create leaves a review on a completed task. Only the client who posted
// the task may review it, and only after the work was verified.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req ReviewReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}

	errs := FieldErrors{}
	if req.Rating < 1 || req.Rating > 5 {
		errs.Add("rating", "Rating must be between 1 and 5")
	}
	if strings.TrimSpace(req.Review) == "" {
		errs.Add("review", "Review text is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var task models.Task
	if err := h.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return fail(c, 404, "Task not found")
	}
	if task.UserID != userUUID {
		return fail(c, 403, "Only the task owner can leave a review")
	}

	var verified int64
	if err := h.DB.Model(&models.Assignment{}).
		Where("task_id = ? AND is_verified = ?", taskID, true).
		Count(&verified).Error; err != nil {
		return fail(c, 500, "Failed to check assignment")
	}
	if verified == 0 {
		return fail(c, 400, "You can only review a task after its work is verified")
	}

	var existing int64
	if err := h.DB.Model(&models.Review{}).
		Where("task_id = ? AND user_id = ?", taskID, userUUID).
		Count(&existing).Error; err != nil {
		return fail(c, 500, "Failed to check reviews")
	}
	if existing > 0 {
		return fail(c, 400, "You have already reviewed this task")
	}

	review := models.Review{
		TaskID: taskID,
		UserID: userUUID,
		Rating: req.Rating,
		Review: req.Review,
	}

	if err := h.DB.Create(&review).Error; err != nil {
		return fail(c, 500, "Failed to create review")
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Review submitted successfully.",
		"data":    review,
	})
}

type UpdateReviewReq struct {
	Rating *int    `json:"rating"`
	Review *string `json:"review"`
}

func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid review ID")
	}

	var review models.Review
	if err := h.DB.First(&review, "id = ?", id).Error; err != nil {
		return fail(c, 404, "Review not found")
	}
	if review.UserID != userUUID {
		return fail(c, 403, "Access denied")
	}

	var req UpdateReviewReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return fail(c, 400, "Rating must be between 1 and 5")
		}
		review.Rating = *req.Rating
	}
	if req.Review != nil {
		if strings.TrimSpace(*req.Review) == "" {
			return fail(c, 400, "Review text is required")
		}
		review.Review = *req.Review
	}

	if err := h.DB.Save(&review).Error; err != nil {
		return fail(c, 500, "Failed to update review")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Review updated successfully.",
		"data":    review,
	})
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid review ID")
	}

	var review models.Review
	if err := h.DB.First(&review, "id = ?", id).Error; err != nil {
		return fail(c, 404, "Review not found")
	}
	if review.UserID != userUUID {
		return fail(c, 403, "Access denied")
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return fail(c, 500, "Failed to delete review")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Review deleted successfully.",
	})
}

func (h *ReviewHandler) ListByTask(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("taskId"))
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}

	var reviews []models.Review
	if err := h.DB.
		Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return fail(c, 500, "Failed to fetch reviews")
	}

	return c.JSON(fiber.Map{"success": true, "data": reviews})
}
