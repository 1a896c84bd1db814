package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bid is a freelancer's proposal against a task. One bid per
// (task, freelancer) pair, enforced by the composite unique index.
type Bid struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_bids_task_freelancer" json:"task_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_bids_task_freelancer;index" json:"freelancer_id"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`

	BidAmount     int64  `gorm:"not null" json:"bid_amount"`
	EstimatedDays int    `gorm:"not null" json:"estimated_days"`
	Message       string `gorm:"type:text" json:"message"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task       *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Client     *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

func (b *Bid) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
