package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

// Full delivery path: bid, assign, submit work, verify, pay.
func TestTaskDeliveryWorkflow(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser("Client", "client@example.com", false, true)
	freelancer := env.createUser("Freelancer", "dev@example.com", false, true)
	task := env.seedTask(&client, time.Now().AddDate(0, 0, 7))

	resp := env.placeBid(&freelancer, task.ID)
	resp.Body.Close()

	// assign
	resp = env.request("POST", "/api/assignments", map[string]interface{}{
		"task_id":     task.ID.String(),
		"receiver_id": freelancer.ID.String(),
	}, &client)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("assign: expected 201, got %d", resp.StatusCode)
	}
	out := decodeBody(t, resp)
	assignmentID := out["data"].(map[string]interface{})["id"].(string)

	var n models.Notification
	if err := env.db.
		Where("user_id = ? AND type = ?", freelancer.ID, models.NotificationTaskAssigned).
		First(&n).Error; err != nil {
		t.Fatalf("assignment notification not created: %v", err)
	}

	// verifying before any work is submitted must fail
	resp = env.request("POST", "/api/assignments/"+assignmentID+"/verify", nil, &client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("verify without work: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// submit work
	resp = env.uploadWork(&freelancer, assignmentID, "deliverable.zip")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload work: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request("GET", "/api/assignments/submitted", nil, &client)
	out = decodeBody(t, resp)
	if submitted := out["data"].([]interface{}); len(submitted) != 1 {
		t.Fatalf("expected 1 submitted assignment, got %d", len(submitted))
	}

	// only the client may verify
	resp = env.request("POST", "/api/assignments/"+assignmentID+"/verify", nil, &freelancer)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("verify as freelancer: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request("POST", "/api/assignments/"+assignmentID+"/verify", nil, &client)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// verification closes the task and flags the assignment together
	var storedTask models.Task
	if err := env.db.First(&storedTask, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("load task: %v", err)
	}
	if storedTask.IsActive {
		t.Fatal("task still active after verification")
	}
	var assignment models.Assignment
	if err := env.db.First(&assignment, "id = ?", assignmentID).Error; err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	if !assignment.IsVerified {
		t.Fatal("assignment not verified")
	}

	// confirm payment
	resp = env.request("POST", "/api/payments/confirm-task", map[string]interface{}{
		"task_id":     task.ID.String(),
		"receiver_id": freelancer.ID.String(),
		"payment_id":  "pi_test_123",
	}, &client)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm payment: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	if err := env.db.First(&assignment, "id = ?", assignmentID).Error; err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	if !assignment.IsPayed {
		t.Fatal("assignment not marked paid")
	}

	if len(env.mail.sent) != 1 {
		t.Fatalf("expected 1 receipt email, got %d", len(env.mail.sent))
	}
	if env.mail.sent[0].To != freelancer.Email {
		t.Fatalf("receipt sent to %q", env.mail.sent[0].To)
	}

	// a second confirmation has nothing left to flip
	resp = env.request("POST", "/api/payments/confirm-task", map[string]interface{}{
		"task_id":     task.ID.String(),
		"receiver_id": freelancer.ID.String(),
		"payment_id":  "pi_test_123",
	}, &client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second confirm: expected 400, got %d", resp.StatusCode)
	}
	_, msg := bodyMessage(t, resp)
	if msg != "No task found or no update made." {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func (e *testEnv) uploadWork(as *models.User, assignmentID, filename string) *http.Response {
	e.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", filename)
	if err != nil {
		e.t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("file contents")); err != nil {
		e.t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		e.t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/assignments/"+assignmentID+"/work", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	e.authenticate(req, as)

	resp, err := e.app.Test(req, -1)
	if err != nil {
		e.t.Fatalf("upload work: %v", err)
	}
	return resp
}

func TestUploadWorkFreelancerOnly(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser("Client", "client@example.com", false, true)
	freelancer := env.createUser("Freelancer", "dev@example.com", false, true)
	task := env.seedTask(&client, time.Now().AddDate(0, 0, 7))

	resp := env.placeBid(&freelancer, task.ID)
	resp.Body.Close()

	resp = env.request("POST", "/api/assignments", map[string]interface{}{
		"task_id":     task.ID.String(),
		"receiver_id": freelancer.ID.String(),
	}, &client)
	out := decodeBody(t, resp)
	assignmentID := out["data"].(map[string]interface{})["id"].(string)

	resp = env.uploadWork(&client, assignmentID, "sneaky.zip")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for client upload, got %d", resp.StatusCode)
	}
}

func TestAssignRequiresBid(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser("Client", "client@example.com", false, true)
	freelancer := env.createUser("Freelancer", "dev@example.com", false, true)
	task := env.seedTask(&client, time.Now().AddDate(0, 0, 7))

	resp := env.request("POST", "/api/assignments", map[string]interface{}{
		"task_id":     task.ID.String(),
		"receiver_id": freelancer.ID.String(),
	}, &client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without a bid, got %d", resp.StatusCode)
	}
	_, msg := bodyMessage(t, resp)
	if !strings.Contains(msg, "has not bid") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestDuplicateAssignmentRejected(t *testing.T) {
	env := setupTestEnv(t)
	client := env.createUser("Client", "client@example.com", false, true)
	freelancer := env.createUser("Freelancer", "dev@example.com", false, true)
	task := env.seedTask(&client, time.Now().AddDate(0, 0, 7))

	resp := env.placeBid(&freelancer, task.ID)
	resp.Body.Close()

	body := map[string]interface{}{
		"task_id":     task.ID.String(),
		"receiver_id": freelancer.ID.String(),
	}
	resp = env.request("POST", "/api/assignments", body, &client)
	resp.Body.Close()

	resp = env.request("POST", "/api/assignments", body, &client)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate assignment, got %d", resp.StatusCode)
	}
}
