package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Attachment is one work file submitted by the freelancer.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Assignment pairs an accepted bid's freelancer to a task and tracks
// delivery and payment. At most one per (task, receiver), enforced by
// the composite unique index.
type Assignment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`   // client
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignments_task_receiver" json:"receiver_id"` // freelancer
	TaskID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignments_task_receiver" json:"task_id"`

	IsPayed     bool           `gorm:"default:false" json:"is_payed"`
	IsVerified  bool           `gorm:"default:false" json:"is_verified"`
	Attachments datatypes.JSON `json:"attachments"` // [{name, url}, ...]

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Task     *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
