package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

func (e *testEnv) seedVerifiedAssignment(client, freelancer *models.User) models.Task {
	e.t.Helper()

	task := e.seedTask(client, time.Now().AddDate(0, 0, 7))
	assignment := models.Assignment{
		SenderID:   client.ID,
		ReceiverID: freelancer.ID,
		TaskID:     task.ID,
		IsVerified: true,
	}
	if err := e.db.Create(&assignment).Error; err != nil {
		e.t.Fatalf("seed assignment: %v", err)
	}
	return task
}

func TestReviewOnlyAfterVerification(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser("Client", "client@example.com", false, true)
	task := env.seedTask(&client, time.Now().AddDate(0, 0, 7))

	resp := env.request("POST", "/api/reviews", map[string]interface{}{
		"task_id": task.ID.String(),
		"rating":  5,
		"review":  "great work",
	}, &client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 before verification, got %d", resp.StatusCode)
	}
}

func TestReviewLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser("Client", "client@example.com", false, true)
	freelancer := env.createUser("Freelancer", "dev@example.com", false, true)
	task := env.seedVerifiedAssignment(&client, &freelancer)

	resp := env.request("POST", "/api/reviews", map[string]interface{}{
		"task_id": task.ID.String(),
		"rating":  4,
		"review":  "solid delivery",
	}, &client)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	out := decodeBody(t, resp)
	reviewID := out["data"].(map[string]interface{})["id"].(string)

	// one review per task per reviewer
	resp = env.request("POST", "/api/reviews", map[string]interface{}{
		"task_id": task.ID.String(),
		"rating":  5,
		"review":  "second thoughts",
	}, &client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request("PUT", "/api/reviews/"+reviewID,
		map[string]interface{}{"rating": 5}, &client)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request("GET", "/api/tasks/"+task.ID.String()+"/reviews", nil, &freelancer)
	out = decodeBody(t, resp)
	data := out["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("expected 1 review, got %d", len(data))
	}
	if rating := data[0].(map[string]interface{})["rating"].(float64); rating != 5 {
		t.Fatalf("expected rating 5, got %v", rating)
	}

	resp = env.request("DELETE", "/api/reviews/"+reviewID, nil, &freelancer)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("delete by non-author: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request("DELETE", "/api/reviews/"+reviewID, nil, &client)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
}

func TestReviewRatingBounds(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser("Client", "client@example.com", false, true)
	freelancer := env.createUser("Freelancer", "dev@example.com", false, true)
	task := env.seedVerifiedAssignment(&client, &freelancer)

	for _, rating := range []int{0, 6} {
		resp := env.request("POST", "/api/reviews", map[string]interface{}{
			"task_id": task.ID.String(),
			"rating":  rating,
			"review":  "text",
		}, &client)
		out := decodeBody(t, resp)
		if out["success"].(bool) {
			t.Fatalf("rating %d accepted", rating)
		}
	}
}
