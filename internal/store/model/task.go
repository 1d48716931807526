package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task statuses stored for asynchronous extraction requests. Transitions
// are one-directional: pending -> running -> succeeded|failed. Expiry is
// not stored; it is a read-time classification.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusSucceeded = "succeeded"
	TaskStatusFailed    = "failed"
	TaskStatusExpired   = "expired"
)

type Task struct {
	ID          uuid.UUID `gorm:"primaryKey"`
	Status      string    `gorm:"not null"`
	Utterance   string    `gorm:"not null"`
	FormCode    string    `gorm:"not null"`
	CallbackURL *string
	Result      []byte `gorm:"type:jsonb"`
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	ExpiresAt   time.Time `gorm:"not null"`
}

func (t Task) String() string {
	val, _ := json.Marshal(t)
	return string(val)
}
