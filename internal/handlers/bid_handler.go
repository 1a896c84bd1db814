package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

type BidHandler struct {
	DB *gorm.DB
}

func NewBidHandler(db *gorm.DB) *BidHandler {
	return &BidHandler{DB: db}
}

type PlaceBidReq struct {
	TaskID        string `json:"task_id"`
	BidAmount     int64  `json:"bid_amount"`
	EstimatedDays int    `json:"estimated_days"`
	Message       string `json:"message"`
}

// bidWindowOpen compares dates only: a bid placed on the deadline day
// itself still counts.
func bidWindowOpen(deadline, now time.Time) bool {
	d := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(n)
}

// Place creates a bid and bumps the task's counter in one transaction.
func (h *BidHandler) Place(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req PlaceBidReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}

	errs := FieldErrors{}
	if req.BidAmount <= 0 {
		errs.Add("bid_amount", "Bid amount must be greater than zero")
	}
	if req.EstimatedDays <= 0 {
		errs.Add("estimated_days", "Estimated days must be greater than zero")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var task models.Task
	if err := h.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return fail(c, 404, "Task not found")
	}
	if !task.IsActive {
		return fail(c, 400, "Task is no longer accepting bids")
	}
	if task.UserID == userUUID {
		return fail(c, 400, "You cannot bid on your own task")
	}
	if !bidWindowOpen(task.LastDateToPlaceBid, time.Now()) {
		return fail(c, 400, "The bidding deadline for this task has passed")
	}

	bid := models.Bid{
		TaskID:        taskID,
		FreelancerID:  userUUID,
		ClientID:      task.UserID,
		BidAmount:     req.BidAmount,
		EstimatedDays: req.EstimatedDays,
		Message:       req.Message,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&bid).Error; err != nil {
			return err
		}
		return tx.Model(&models.Task{}).
			Where("id = ?", taskID).
			UpdateColumn("bids_received", gorm.Expr("bids_received + ?", 1)).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fail(c, 400, "You have already placed a bid on this task")
		}
		return fail(c, 500, "Failed to place bid")
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Bid placed successfully.",
		"data":    bid,
	})
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// CheckAlreadyBid tells the caller whether they hold a bid on the task.
func (h *BidHandler) CheckAlreadyBid(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	taskID, err := uuid.Parse(c.Params("taskId"))
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}

	var count int64
	if err := h.DB.Model(&models.Bid{}).
		Where("task_id = ? AND freelancer_id = ?", taskID, userUUID).
		Count(&count).Error; err != nil {
		return fail(c, 500, "Failed to check bid")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"already_bid": count > 0},
	})
}

// canEditBid: a bid is frozen once the bidding window has closed or the
// task has been assigned to someone.
func (h *BidHandler) canEditBid(bid *models.Bid) (bool, error) {
	var task models.Task
	if err := h.DB.First(&task, "id = ?", bid.TaskID).Error; err != nil {
		return false, err
	}
	if !bidWindowOpen(task.LastDateToPlaceBid, time.Now()) {
		return false, nil
	}

	var assigned int64
	if err := h.DB.Model(&models.Assignment{}).
		Where("task_id = ?", bid.TaskID).
		Count(&assigned).Error; err != nil {
		return false, err
	}
	return assigned == 0, nil
}

// CanEdit reports whether the caller's bid is still editable.
func (h *BidHandler) CanEdit(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid bid ID")
	}

	var bid models.Bid
	if err := h.DB.First(&bid, "id = ?", bidID).Error; err != nil {
		return fail(c, 404, "Bid not found")
	}
	if bid.FreelancerID != userUUID {
		return fail(c, 403, "Access denied")
	}

	ok, err := h.canEditBid(&bid)
	if err != nil {
		return fail(c, 500, "Failed to check bid")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"can_edit": ok},
	})
}

type UpdateBidReq struct {
	BidAmount     *int64  `json:"bid_amount"`
	EstimatedDays *int    `json:"estimated_days"`
	Message       *string `json:"message"`
}

func (h *BidHandler) Update(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid bid ID")
	}

	var bid models.Bid
	if err := h.DB.First(&bid, "id = ?", bidID).Error; err != nil {
		return fail(c, 404, "Bid not found")
	}
	if bid.FreelancerID != userUUID {
		return fail(c, 403, "Access denied")
	}

	ok, err := h.canEditBid(&bid)
	if err != nil {
		return fail(c, 500, "Failed to check bid")
	}
	if !ok {
		return fail(c, 400, "This bid can no longer be edited")
	}

	var req UpdateBidReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	if req.BidAmount != nil {
		if *req.BidAmount <= 0 {
			return fail(c, 400, "Bid amount must be greater than zero")
		}
		bid.BidAmount = *req.BidAmount
	}
	if req.EstimatedDays != nil {
		if *req.EstimatedDays <= 0 {
			return fail(c, 400, "Estimated days must be greater than zero")
		}
		bid.EstimatedDays = *req.EstimatedDays
	}
	if req.Message != nil {
		bid.Message = *req.Message
	}

	if err := h.DB.Save(&bid).Error; err != nil {
		return fail(c, 500, "Failed to update bid")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Bid updated successfully.",
		"data":    bid,
	})
}

// Delete withdraws a bid and decrements the task's counter in one
// transaction.
func (h *BidHandler) Delete(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid bid ID")
	}

	var bid models.Bid
	if err := h.DB.First(&bid, "id = ?", bidID).Error; err != nil {
		return fail(c, 404, "Bid not found")
	}
	if bid.FreelancerID != userUUID {
		return fail(c, 403, "Access denied")
	}

	ok, err := h.canEditBid(&bid)
	if err != nil {
		return fail(c, 500, "Failed to check bid")
	}
	if !ok {
		return fail(c, 400, "This bid can no longer be withdrawn")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&bid).Error; err != nil {
			return err
		}
		return tx.Model(&models.Task{}).
			Where("id = ? AND bids_received > 0", bid.TaskID).
			UpdateColumn("bids_received", gorm.Expr("bids_received - ?", 1)).Error
	})
	if err != nil {
		return fail(c, 500, "Failed to withdraw bid")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Bid withdrawn successfully.",
	})
}

// ListMine returns the caller's bids with their tasks, newest first.
func (h *BidHandler) ListMine(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var bids []models.Bid
	if err := h.DB.
		Preload("Task").
		Where("freelancer_id = ?", userUUID).
		Order("created_at DESC").
		Find(&bids).Error; err != nil {
		return fail(c, 500, "Failed to fetch bids")
	}

	return c.JSON(fiber.Map{"success": true, "data": bids})
}

// ListByTask returns all bids on a task. Only the task owner sees them.
func (h *BidHandler) ListByTask(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	taskID, err := uuid.Parse(c.Params("taskId"))
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

	var bids []models.Bid
	if err := h.DB.
		Preload("Freelancer").
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&bids).Error; err != nil {
		return fail(c, 500, "Failed to fetch bids")
	}

	return c.JSON(fiber.Map{"success": true, "data": bids})
}
