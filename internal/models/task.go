package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Task struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title          string         `gorm:"not null" json:"title"`
	SubTitle       string         `json:"sub_title"`
	Description    string         `gorm:"type:text" json:"description"`
	SkillsRequired datatypes.JSON `json:"skills_required"`

	LastDateToPlaceBid time.Time `json:"last_date_to_place_bid"`
	IsActive           bool      `gorm:"default:true;index" json:"is_active"`
	BidsReceived       int       `gorm:"default:0" json:"bids_received"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
