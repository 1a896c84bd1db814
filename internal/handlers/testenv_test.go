package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/middleware"
	"github.com/gigfolio/gigfolio-backend/internal/models"
	"github.com/gigfolio/gigfolio-backend/internal/routes"
	"github.com/gigfolio/gigfolio-backend/internal/utils"
)

const testSecret = "test-secret"

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentMail
}

func (f *fakeMailer) Send(recipient, subject, body string) error {
	f.sent = append(f.sent, sentMail{To: recipient, Subject: subject, Body: body})
	return nil
}

type testEnv struct {
	t    *testing.T
	app  *fiber.App
	db   *gorm.DB
	mail *fakeMailer
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Bid{},
		&models.Assignment{},
		&models.Notification{},
		&models.Chat{},
		&models.Subscription{},
		&models.Review{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fm := &fakeMailer{}
	app := fiber.New()
	routes.Setup(app, routes.Deps{
		DB:        gdb,
		Mailer:    fm,
		JWTSecret: testSecret,
		ExpiresIn: 60,
		UploadDir: t.TempDir(),
	})

	return &testEnv{t: t, app: app, db: gdb, mail: fm}
}

func (e *testEnv) createUser(name, email string, admin, approved bool) models.User {
	e.t.Helper()

	pw, err := utils.HashPassword("secret123")
	if err != nil {
		e.t.Fatalf("hash password: %v", err)
	}
	u := models.User{
		Name:       name,
		Email:      email,
		Password:   pw,
		IsAdmin:    admin,
		IsApproved: approved,
		IsActive:   true,
	}
	if err := e.db.Create(&u).Error; err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	return u
}

// request performs one API call, optionally authenticated as the given user.
func (e *testEnv) request(method, path string, body interface{}, as *models.User) *http.Response {
	e.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	e.authenticate(req, as)

	resp, err := e.app.Test(req, -1)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (e *testEnv) authenticate(req *http.Request, as *models.User) {
	e.t.Helper()

	if as == nil {
		return
	}
	token, err := utils.SignJWT(testSecret, as.ID.String(), as.IsAdmin, 60)
	if err != nil {
		e.t.Fatalf("sign jwt: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: token})
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func bodyMessage(t *testing.T, resp *http.Response) (bool, string) {
	t.Helper()

	out := decodeBody(t, resp)
	success, _ := out["success"].(bool)
	message, _ := out["message"].(string)
	return success, message
}
