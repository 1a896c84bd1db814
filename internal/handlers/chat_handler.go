package handlers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	ws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
	"github.com/gigfolio/gigfolio-backend/internal/realtime"
	"github.com/gigfolio/gigfolio-backend/internal/utils"
)

type ChatHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewChatHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *ChatHandler {
	return &ChatHandler{DB: db, Hub: hub, RDB: rdb}
}

type SendMessageReq struct {
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
}

// Send stores a message and pushes it to both parties.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return fail(c, 400, "Invalid receiver ID")
	}
	if receiverID == userUUID {
		return fail(c, 400, "You cannot message yourself")
	}
	if strings.TrimSpace(req.Message) == "" {
		return fail(c, 400, "Message cannot be empty")
	}

	var receiver models.User
	if err := h.DB.First(&receiver, "id = ?", receiverID).Error; err != nil {
		return fail(c, 404, "Receiver not found")
	}

	chat := models.Chat{
		ConversationID: utils.ConversationID(userUUID, receiverID),
		SenderID:       userUUID,
		ReceiverID:     receiverID,
		Message:        req.Message,
	}

	if err := h.DB.Create(&chat).Error; err != nil {
		return fail(c, 500, "Failed to send message")
	}

	if h.Hub != nil {
		h.Hub.SendToPair(userUUID, receiverID, fiber.Map{
			"event": "chat",
			"data":  chat,
		})
	}
	if h.RDB != nil {
		channel := realtime.NotificationChannel + receiverID.String()
		if err := h.RDB.Publish(context.Background(), channel, chat.Message).Err(); err != nil {
			log.Printf("chat: redis publish failed: %v", err)
		}
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"message": "Message sent.",
		"data":    chat,
	})
}

// GetConversation returns the thread with another user, split into read and
// unread from the caller's point of view, oldest first within each group.
func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	otherID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fail(c, 400, "Invalid user ID")
	}

	var chats []models.Chat
	if err := h.DB.
		Where("conversation_id IN ?", utils.ConversationIDs(userUUID, otherID)).
		Order("created_at ASC").
		Find(&chats).Error; err != nil {
		return fail(c, 500, "Failed to fetch messages")
	}

	read := make([]models.Chat, 0)
	unread := make([]models.Chat, 0)
	for _, m := range chats {
		if m.ReceiverID == userUUID && !m.IsRead {
			unread = append(unread, m)
		} else {
			read = append(read, m)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"read":   read,
			"unread": unread,
		},
	})
}

type EditMessageReq struct {
	Message string `json:"message"`
}

func (h *ChatHandler) Edit(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid message ID")
	}

	var req EditMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, 400, "Invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return fail(c, 400, "Message cannot be empty")
	}

	var chat models.Chat
	if err := h.DB.First(&chat, "id = ?", id).Error; err != nil {
		return fail(c, 404, "Message not found")
	}
	if chat.SenderID != userUUID {
		return fail(c, 403, "Only the sender can edit a message")
	}

	chat.Message = req.Message
	if err := h.DB.Save(&chat).Error; err != nil {
		return fail(c, 500, "Failed to edit message")
	}

	if h.Hub != nil {
		h.Hub.SendToPair(chat.SenderID, chat.ReceiverID, fiber.Map{
			"event": "chat_edited",
			"data":  chat,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message updated.",
		"data":    chat,
	})
}

func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, 400, "Invalid message ID")
	}

	var chat models.Chat
	if err := h.DB.First(&chat, "id = ?", id).Error; err != nil {
		return fail(c, 404, "Message not found")
	}
	if chat.SenderID != userUUID {
		return fail(c, 403, "Only the sender can delete a message")
	}

	if err := h.DB.Delete(&chat).Error; err != nil {
		return fail(c, 500, "Failed to delete message")
	}

	if h.Hub != nil {
		h.Hub.SendToPair(chat.SenderID, chat.ReceiverID, fiber.Map{
			"event": "chat_deleted",
			"data":  fiber.Map{"id": chat.ID},
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message deleted.",
	})
}

// MarkConversationRead flags every message the other user sent to the
// caller as read. Idempotent: already-read messages are untouched.
func (h *ChatHandler) MarkConversationRead(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	otherID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fail(c, 400, "Invalid user ID")
	}

	now := time.Now()
	if err := h.DB.Model(&models.Chat{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?",
			utils.ConversationID(otherID, userUUID), userUUID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return fail(c, 500, "Failed to update messages")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Conversation marked as read.",
	})
}

// UnreadTotal counts every unread message addressed to the caller.
func (h *ChatHandler) UnreadTotal(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, 401, "Unauthorized")
	}

	var count int64
	if err := h.DB.Model(&models.Chat{}).
		Where("receiver_id = ? AND is_read = ?", userUUID, false).
		Count(&count).Error; err != nil {
		return fail(c, 500, "Failed to count messages")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"unread": count},
	})
}

// WebSocketUpgrade gates /ws on a real websocket handshake.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if ws.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocket keeps one connection registered on the hub and pumps hub
// payloads out until the peer goes away. The userId query parameter picks
// which user's pushes this socket receives.
func (h *ChatHandler) WebSocket() fiber.Handler {
	return ws.New(func(conn *ws.Conn) {
		userID, err := uuid.Parse(conn.Query("userId"))
		if err != nil {
			_ = conn.WriteMessage(ws.TextMessage, []byte(`{"error":"invalid userId"}`))
			_ = conn.Close()
			return
		}

		client := &realtime.Client{
			ID:     uuid.New().String(),
			UserID: userID,
			Conn:   realtime.NewWebSocketConn(conn),
			Send:   make(chan []byte, 64),
		}
		h.Hub.RegisterClient(client)
		defer h.Hub.UnregisterClient(client)

		go func() {
			for payload := range client.Send {
				if err := conn.WriteMessage(ws.TextMessage, payload); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	})
}
