package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"not null" json:"-"`
	ProfilePic string         `gorm:"type:text" json:"profile_pic"`
	Bio        string         `gorm:"type:text" json:"bio"`
	Portfolio  string         `gorm:"type:text" json:"portfolio"`
	Skills     datatypes.JSON `json:"skills"` // ["react", "golang", ...]

	IsAdmin    bool `gorm:"default:false;index" json:"is_admin"`
	IsApproved bool `gorm:"default:false" json:"is_approved"`
	IsActive   bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// HAS ONE subscription (subscriptions.user_id -> users.id)
	CurrentSubscription *Subscription `gorm:"foreignKey:UserID;references:ID" json:"current_subscription,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
