package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription records a purchased plan. MaximumTasks is the monthly task
// quota; a zero value means the plan carries no usable limit and the quota
// check falls back to its default.
type Subscription struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	PlanName     string `gorm:"not null" json:"plan_name"`
	Price        int64  `json:"price"`
	MaximumTasks int    `json:"maximum_tasks"`

	ExpiryDate time.Time `json:"expiry_date"`
	PaymentID  string    `gorm:"type:varchar(100)" json:"payment_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
