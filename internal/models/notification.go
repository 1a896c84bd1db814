package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationTaskAssigned    = "task_assigned"
	NotificationRoleUpdate      = "role-update"
	NotificationStatusUpdate    = "status-update"
	NotificationApprovalRequest = "approval-request"
	NotificationGeneral         = "general"
)

type Notification struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"` // recipient
	SenderID uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`

	Type        string `gorm:"not null" json:"type"`
	Text        string `gorm:"not null" json:"text"`
	OnClickPath string `gorm:"default:''" json:"on_click_path"`
	Read        bool   `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
