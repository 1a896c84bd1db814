package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

type AssignmentHandler struct {
	DB            *gorm.DB
	Notifications *NotificationHandler
	UploadDir     string
	AppBaseURL    string
}

func NewAssignmentHandler(db *gorm.DB, nh *NotificationHandler, uploadDir, appBaseURL string) *AssignmentHandler {
	return &AssignmentHandler{DB: db, Notifications: nh, UploadDir: uploadDir, AppBaseURL: appBaseURL}
}

type AssignReq struct {
	TaskID     string `json:"task_id"`
	ReceiverID string `json:"receiver_id"`
}

// Assign hands a task to a freelancer who bid on it. The notification is
// best-effort: a failed push never rolls back the assignment.
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req AssignReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return fail(c, 400, "Invalid receiver ID")
	}

	var task models.Task
	if err := h.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return fail(c, 404, "Task not found")
	}
	if task.UserID != userUUID {
		return fail(c, 403, "Only the task owner can assign it")
	}

	var bid models.Bid
	if err := h.DB.
		Where("task_id = ? AND freelancer_id = ?", taskID, receiverID).
		First(&bid).Error; err != nil {
		return fail(c, 400, "The selected freelancer has not bid on this task")
	}

	assignment := models.Assignment{
		SenderID:   userUUID,
		ReceiverID: receiverID,
		TaskID:     taskID,
	}

	if err := h.DB.Create(&assignment).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, 400, "This task is already assigned to that freelancer")
		}
		return fail(c, 500, "Failed to assign task")
	}

	message := "Task assigned successfully."
	n := models.Notification{
		UserID:      receiverID,
		SenderID:    userUUID,
		Type:        models.NotificationTaskAssigned,
		Text:        fmt.Sprintf("You have been assigned the task %q.", task.Title),
		OnClickPath: "/assignments",
	}
	if err := h.Notifications.createNotification(h.DB, &n); err != nil {
		message = "Task assigned but notification failed to send."
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    assignment,
	})
}

// ListAssigned returns the tasks assigned to the caller as freelancer.
func (h *AssignmentHandler) ListAssigned(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var assignments []models.Assignment
	if err := h.DB.
		Preload("Task").
		Preload("Sender").
		Where("receiver_id = ?", userUUID).
		Order("created_at DESC").
		Find(&assignments).Error; err != nil {
		return fail(c, 500, "Failed to fetch assignments")
	}

	return c.JSON(fiber.Map{"success": true, "data": assignments})
}

// ListSubmitted returns the caller's outgoing assignments that already
// carry submitted work, for review.
func (h *AssignmentHandler) ListSubmitted(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var assignments []models.Assignment
	if err := h.DB.
		Preload("Task").
		Preload("Receiver").
		Where("sender_id = ?", userUUID).
		Order("created_at DESC").
		Find(&assignments).Error; err != nil {
		return fail(c, 500, "Failed to fetch assignments")
	}

	submitted := make([]models.Assignment, 0)
	for _, a := range assignments {
		var files []models.Attachment
		if len(a.Attachments) > 0 {
			_ = json.Unmarshal(a.Attachments, &files)
		}
		if len(files) > 0 {
			submitted = append(submitted, a)
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": submitted})
}

// GetForTask returns the caller's assignment on a task, from either side.
func (h *AssignmentHandler) GetForTask(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	taskID, err := uuid.Parse(c.Params("taskId"))
	if err != nil {
		return fail(c, 400, "Invalid task ID")
	}

	var assignment models.Assignment
	if err := h.DB.
		Preload("Task").
		Preload("Sender").
		Preload("Receiver").
		Where("task_id = ? AND (sender_id = ? OR receiver_id = ?)", taskID, userUUID, userUUID).
		First(&assignment).Error; err != nil {
		return fail(c, 404, "Assignment not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": assignment})
}

// UploadWork appends uploaded files to the assignment's attachments.
// Only the assigned freelancer may submit, and only before verification.
func (h *AssignmentHandler) UploadWork(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	assignmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid assignment ID")
	}

	var assignment models.Assignment
	if err := h.DB.First(&assignment, "id = ?", assignmentID).Error; err != nil {
		return fail(c, 404, "Assignment not found")
	}
	if assignment.ReceiverID != userUUID {
		return fail(c, 403, "Only the assigned freelancer can submit work")
	}
	if assignment.IsVerified {
		return fail(c, 400, "Work has already been verified")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, 400, "Invalid multipart form")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return fail(c, 400, "At least one file is required")
	}

	dir := filepath.Join(h.UploadDir, "work", assignment.ID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(c, 500, "Failed to prepare upload directory")
	}

	var existing []models.Attachment
	if len(assignment.Attachments) > 0 {
		if err := json.Unmarshal(assignment.Attachments, &existing); err != nil {
			existing = nil
		}
	}

	for _, file := range files {
		stored := uuid.New().String() + filepath.Ext(file.Filename)
		if err := c.SaveFile(file, filepath.Join(dir, stored)); err != nil {
			return fail(c, 500, "Failed to save file")
		}

		publicPath := "/uploads/work/" + assignment.ID.String() + "/" + stored
		if h.AppBaseURL != "" {
			publicPath = strings.TrimRight(h.AppBaseURL, "/") + publicPath
		}
		existing = append(existing, models.Attachment{
			Name: file.Filename,
			URL:  publicPath,
		})
	}

	b, err := json.Marshal(existing)
	if err != nil {
		return fail(c, 500, "Failed to record attachments")
	}

	if err := h.DB.Model(&assignment).
		Update("attachments", datatypes.JSON(b)).Error; err != nil {
		return fail(c, 500, "Failed to record attachments")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Work submitted successfully.",
		"data":    fiber.Map{"attachments": existing},
	})
}

// Verify accepts the submitted work: the task is closed and the
// assignment marked verified in one transaction, so the two flags can
// never drift apart.
func (h *AssignmentHandler) Verify(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	assignmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid assignment ID")
	}

	var assignment models.Assignment
	if err := h.DB.First(&assignment, "id = ?", assignmentID).Error; err != nil {
		return fail(c, 404, "Assignment not found")
	}
	if assignment.SenderID != userUUID {
		return fail(c, 403, "Only the task owner can verify work")
	}
	if len(assignment.Attachments) == 0 {
		return fail(c, 400, "No work has been submitted yet")
	}
	if assignment.IsVerified {
		return fail(c, 400, "Work has already been verified")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("id = ?", assignment.TaskID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Assignment{}).
			Where("id = ?", assignment.ID).
			Update("is_verified", true).Error
	})
	if err != nil {
		return fail(c, 500, "Failed to verify work")
	}

	n := models.Notification{
		UserID:      assignment.ReceiverID,
		SenderID:    userUUID,
		Type:        models.NotificationStatusUpdate,
		Text:        "Your submitted work has been verified.",
		OnClickPath: "/assignments",
	}
	if err := h.Notifications.createNotification(h.DB, &n); err != nil {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Work verified but notification failed to send.",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Work verified successfully.",
	})
}
