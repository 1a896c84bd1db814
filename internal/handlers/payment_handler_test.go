package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gigfolio/gigfolio-backend/internal/handlers"
	"github.com/gigfolio/gigfolio-backend/internal/models"
)

func TestPurchaseSubscriptionReplacesExisting(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser("User", "user@example.com", false, true)

	resp := env.request("POST", "/api/payments/subscription", map[string]interface{}{
		"plan_name":     "basic",
		"price":         1900,
		"maximum_tasks": 5,
		"duration_days": 30,
		"payment_id":    "pi_basic",
	}, &user)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request("POST", "/api/payments/subscription", map[string]interface{}{
		"plan_name":     "pro",
		"price":         4900,
		"maximum_tasks": 20,
		"duration_days": 30,
		"payment_id":    "pi_pro",
	}, &user)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upgrade: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	var subs []models.Subscription
	if err := env.db.Where("user_id = ?", user.ID).Find(&subs).Error; err != nil {
		t.Fatalf("load subscriptions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected exactly 1 subscription, got %d", len(subs))
	}
	if subs[0].PlanName != "pro" {
		t.Fatalf("expected pro plan, got %q", subs[0].PlanName)
	}
}

func TestPurchaseSubscriptionValidation(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser("User", "user@example.com", false, true)

	resp := env.request("POST", "/api/payments/subscription",
		map[string]interface{}{"price": 1900}, &user)
	out := decodeBody(t, resp)
	if out["success"].(bool) {
		t.Fatal("subscription without plan/payment accepted")
	}
	errs := out["errors"].(map[string]interface{})
	for _, field := range []string{"plan_name", "payment_id"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected a %s field error", field)
		}
	}
}

func TestGetMySubscriptionReportsExpiry(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser("User", "user@example.com", false, true)

	resp := env.request("GET", "/api/payments/subscription", nil, &user)
	out := decodeBody(t, resp)
	if out["data"] != nil {
		t.Fatalf("expected nil data without a subscription, got %v", out["data"])
	}

	sub := models.Subscription{
		UserID:     user.ID,
		PlanName:   "basic",
		ExpiryDate: time.Now().AddDate(0, 0, -1),
	}
	if err := env.db.Create(&sub).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	resp = env.request("GET", "/api/payments/subscription", nil, &user)
	out = decodeBody(t, resp)
	data := out["data"].(map[string]interface{})
	if expired := data["expired"].(bool); !expired {
		t.Fatal("expected subscription to be reported expired")
	}
}

func TestSweepExpiredSubscriptions(t *testing.T) {
	env := setupTestEnv(t)
	expired := env.createUser("Expired", "expired@example.com", false, true)
	current := env.createUser("Current", "current@example.com", false, true)

	for _, s := range []models.Subscription{
		{UserID: expired.ID, PlanName: "basic", ExpiryDate: time.Now().AddDate(0, 0, -2)},
		{UserID: current.ID, PlanName: "pro", ExpiryDate: time.Now().AddDate(0, 1, 0)},
	} {
		sub := s
		if err := env.db.Create(&sub).Error; err != nil {
			t.Fatalf("seed subscription: %v", err)
		}
	}

	removed, err := handlers.SweepExpiredSubscriptions(env.db)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	var remaining []models.Subscription
	if err := env.db.Find(&remaining).Error; err != nil {
		t.Fatalf("load subscriptions: %v", err)
	}
	if len(remaining) != 1 || remaining[0].UserID != current.ID {
		t.Fatalf("wrong subscription survived the sweep: %+v", remaining)
	}
}

func TestConfirmTaskPaymentOwnerOnly(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser("Client", "client@example.com", false, true)
	freelancer := env.createUser("Freelancer", "dev@example.com", false, true)
	task := env.seedTask(&client, time.Now().AddDate(0, 0, 7))

	assignment := models.Assignment{
		SenderID:   client.ID,
		ReceiverID: freelancer.ID,
		TaskID:     task.ID,
	}
	if err := env.db.Create(&assignment).Error; err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	resp := env.request("POST", "/api/payments/confirm-task", map[string]interface{}{
		"task_id":     task.ID.String(),
		"receiver_id": freelancer.ID.String(),
		"payment_id":  "pi_x",
	}, &freelancer)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", resp.StatusCode)
	}
}
