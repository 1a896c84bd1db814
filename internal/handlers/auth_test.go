package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gigfolio/gigfolio-backend/internal/middleware"
	"github.com/gigfolio/gigfolio-backend/internal/models"
)

func TestRegisterLoginRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.request("POST", "/api/auth/register", map[string]interface{}{
		"name":     "New User",
		"email":    "New.User@Example.com",
		"password": "secret123",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	var gotCookie bool
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.TokenCookie && ck.Value != "" {
			gotCookie = true
		}
	}
	if !gotCookie {
		t.Fatal("register did not set the token cookie")
	}
	resp.Body.Close()

	// email is stored lowercased, and the account starts unapproved
	var u models.User
	if err := env.db.Where("email = ?", "new.user@example.com").First(&u).Error; err != nil {
		t.Fatalf("load registered user: %v", err)
	}
	if u.IsApproved {
		t.Fatal("new account should not be pre-approved")
	}

	resp = env.request("POST", "/api/auth/login", map[string]interface{}{
		"email":    "new.user@example.com",
		"password": "secret123",
	}, nil)
	success, _ := bodyMessage(t, resp)
	if !success {
		t.Fatal("login with correct credentials failed")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser("Existing", "taken@example.com", false, true)

	resp := env.request("POST", "/api/auth/register", map[string]interface{}{
		"name":     "Impostor",
		"email":    "taken@example.com",
		"password": "secret123",
	}, nil)
	out := decodeBody(t, resp)
	if out["success"].(bool) {
		t.Fatal("duplicate registration succeeded")
	}
	errs, ok := out["errors"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected field errors, got %v", out)
	}
	if _, ok := errs["email"]; !ok {
		t.Fatal("expected an email field error")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser("User", "user@example.com", false, true)

	resp := env.request("POST", "/api/auth/login", map[string]interface{}{
		"email":    "user@example.com",
		"password": "wrong-password",
	}, nil)
	success, msg := bodyMessage(t, resp)
	if success {
		t.Fatal("login with wrong password succeeded")
	}
	if msg != "Incorrect email or password" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.request("POST", "/api/auth/register", map[string]interface{}{
		"name":     "",
		"email":    "not-an-email",
		"password": "abc",
	}, nil)
	out := decodeBody(t, resp)
	if out["success"].(bool) {
		t.Fatal("invalid registration succeeded")
	}
	errs := out["errors"].(map[string]interface{})
	for _, field := range []string{"name", "email", "password"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected a %s field error", field)
		}
	}
}
