package handlers

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
	"github.com/gigfolio/gigfolio-backend/internal/services/mailer"
	"github.com/gigfolio/gigfolio-backend/internal/services/payments"
)

type PaymentHandler struct {
	DB     *gorm.DB
	Stripe *payments.StripeService
	Mailer mailer.Mailer
}

func NewPaymentHandler(db *gorm.DB, stripe *payments.StripeService, m mailer.Mailer) *PaymentHandler {
	return &PaymentHandler{DB: db, Stripe: stripe, Mailer: m}
}

type CreateIntentReq struct {
	Amount      int64  `json:"amount"` // major units
	Description string `json:"description"`
	TaskID      string `json:"task_id"`
}

// CreateIntent opens a Stripe payment intent for amount in major units;
// Stripe wants cents.
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req CreateIntentReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}
	if req.Amount <= 0 {
		return fail(c, 400, "Amount must be greater than zero")
	}

	metadata := map[string]string{"user_id": userUUID.String()}
	if req.TaskID != "" {
		metadata["task_id"] = req.TaskID
	}

	intent, err := h.Stripe.CreatePaymentIntent(req.Amount*100, req.Description, metadata)
	if err != nil {
		return fail(c, 502, "Failed to create payment intent")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"payment_intent_id": intent.ID,
			"client_secret":     intent.ClientSecret,
		},
	})
}

type ConfirmTaskPaymentReq struct {
	TaskID     string `json:"task_id"`
	ReceiverID string `json:"receiver_id"`
	PaymentID  string `json:"payment_id"`
}

// ConfirmTaskPayment marks the freelancer's assignment as paid. The
// conditional update makes confirmation idempotent: a second call finds
// nothing left to flip and reports it. The receipt email is best-effort.
func (h *PaymentHandler) ConfirmTaskPayment(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req ConfirmTaskPaymentReq
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
		return fail(c, 403, "Only the task owner can confirm payment")
	}

	res := h.DB.Model(&models.Assignment{}).
		Where("task_id = ? AND receiver_id = ? AND is_payed = ?", taskID, receiverID, false).
		Update("is_payed", true)
	if res.Error != nil {
		return fail(c, 500, "Failed to confirm payment")
	}
	if res.RowsAffected == 0 {
		return fail(c, 400, "No task found or no update made.")
	}

	if h.Mailer != nil {
		var receiver models.User
		if err := h.DB.First(&receiver, "id = ?", receiverID).Error; err == nil {
			body := fmt.Sprintf(
				"<p>Hi %s,</p><p>Payment for the task %q has been confirmed and is on its way to you.</p>",
				receiver.Name, task.Title)
			if err := h.Mailer.Send(receiver.Email, "Payment received for your work", body); err != nil {
				log.Printf("payments: receipt email to %s failed: %v", receiver.Email, err)
			}
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment confirmed successfully.",
	})
}

type PurchaseSubscriptionReq struct {
	PlanName     string `json:"plan_name"`
	Price        int64  `json:"price"`
	MaximumTasks int    `json:"maximum_tasks"`
	DurationDays int    `json:"duration_days"`
	PaymentID    string `json:"payment_id"`
}

// PurchaseSubscription records a paid plan for the caller, replacing any
// existing subscription row for that user.
func (h *PaymentHandler) PurchaseSubscription(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req PurchaseSubscriptionReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	errs := FieldErrors{}
	if req.PlanName == "" {
		errs.Add("plan_name", "Plan name is required")
	}
	if req.PaymentID == "" {
		errs.Add("payment_id", "Payment ID is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	days := req.DurationDays
	if days <= 0 {
		days = 30
	}

	sub := models.Subscription{
		UserID:       userUUID,
		PlanName:     req.PlanName,
		Price:        req.Price,
		MaximumTasks: req.MaximumTasks,
		ExpiryDate:   time.Now().AddDate(0, 0, days),
		PaymentID:    req.PaymentID,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userUUID).
			Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		return fail(c, 500, "Failed to record subscription")
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Subscription activated successfully.",
		"data":    sub,
	})
}

// GetMySubscription returns the caller's subscription row, expired or not.
func (h *PaymentHandler) GetMySubscription(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var sub models.Subscription
	if err := h.DB.Where("user_id = ?", userUUID).First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(fiber.Map{"success": true, "data": nil})
		}
		return fail(c, 500, "Failed to fetch subscription")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"subscription": sub,
			"expired":      !sub.ExpiryDate.IsZero() && sub.ExpiryDate.Before(time.Now()),
		},
	})
}

// SweepExpiredSubscriptions deletes subscription rows past their expiry
// so quota checks fall back to the default limit.
func SweepExpiredSubscriptions(db *gorm.DB) (int64, error) {
	res := db.
		Where("expiry_date != ? AND expiry_date < ?", time.Time{}, time.Now()).
		Delete(&models.Subscription{})
	return res.RowsAffected, res.Error
}

// StartSubscriptionSweeper runs the expiry sweep on an hourly ticker until
// stop is closed.
func StartSubscriptionSweeper(db *gorm.DB, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := SweepExpiredSubscriptions(db)
				if err != nil {
					log.Printf("subscriptions: expiry sweep failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("subscriptions: removed %d expired subscription(s)", n)
				}
			case <-stop:
				return
			}
		}
	}()
}
