package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JOB_PENDING    = "pending"
	JOB_DONE       = "done"
	JOB_EXPIRED    = "expired"
	JOB_SUPERSEDED = "superseded"
)

// JobTask persists reminders handed to the local scheduler so they can be
// queued again after a restart.
type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	Name      string    `json:"-"`
	JobType   string    `json:"-"`
	RunsAt    time.Time `gorm:"index" json:"-"`
	MeetingID uint      `gorm:"index" json:"-"`
	Payload   string    `gorm:"type:jsonb" json:"-"`
	Status    string    `gorm:"default:'pending'" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
