package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

type UserHandler struct {
	DB         *gorm.DB
	UploadDir  string
	AppBaseURL string
}

func NewUserHandler(db *gorm.DB, uploadDir, appBaseURL string) *UserHandler {
	return &UserHandler{DB: db, UploadDir: uploadDir, AppBaseURL: appBaseURL}
}

// Me returns the logged-in user with their current subscription, if any.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var user models.User
	if err := h.DB.Preload("CurrentSubscription").First(&user, "id = ?", userUUID).Error; err != nil {
		return fail(c, 404, "User not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

type UpdateProfileReq struct {
	Name      *string  `json:"name"`
	Bio       *string  `json:"bio"`
	Portfolio *string  `json:"portfolio"`
	Skills    []string `json:"skills"`
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userUUID).Error; err != nil {
		return fail(c, 404, "User not found")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fail(c, 400, "Name cannot be empty")
		}
		user.Name = name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Portfolio != nil {
		user.Portfolio = *req.Portfolio
	}
	if req.Skills != nil {
		b, err := json.Marshal(req.Skills)
		if err != nil {
			return fail(c, 400, "Invalid skills")
		}
		user.Skills = datatypes.JSON(b)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		return fail(c, 500, "Failed to update profile")
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

// UploadProfilePic stores the picture under the uploads dir and records the
// public URL on the user.
func (h *UserHandler) UploadProfilePic(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	file, err := c.FormFile("picture")
	if err != nil {
		return fail(c, 400, "picture file is required")
	}

	ext := filepath.Ext(file.Filename)
	filename := uuid.New().String() + ext
	dir := filepath.Join(h.UploadDir, "profiles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(c, 500, "Failed to prepare upload directory")
	}

	savePath := filepath.Join(dir, filename)
	if err := c.SaveFile(file, savePath); err != nil {
		return fail(c, 500, "Failed to save file")
	}

	publicPath := "/uploads/profiles/" + filename
	if h.AppBaseURL != "" {
		publicPath = strings.TrimRight(h.AppBaseURL, "/") + publicPath
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", userUUID).
		Update("profile_pic", publicPath).Error; err != nil {
		return fail(c, 500, "Failed to update profile picture")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"profile_pic": publicPath},
	})
}

// SearchUsers matches names case-insensitively, newest first.
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	search := c.Query("q")

	var users []models.User
	q := h.DB.Order("created_at DESC")
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if err := q.Find(&users).Error; err != nil {
		return fail(c, 500, "Failed to search users")
	}

	return c.JSON(fiber.Map{"success": true, "data": users})
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid user ID")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		return fail(c, 404, "User not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}
