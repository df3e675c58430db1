package models

import (
	"meetingroom/src/types"
	"time"

	"github.com/google/uuid"
)

// TrailLog is the append-only history of committed meeting changes.
type TrailLog struct {
	ID        uuid.UUID   `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Type      string      `gorm:"not null" json:"type"`
	Initiator uint        `json:"initiator"`
	Group     string      `gorm:"index:idx_trail_ref" json:"group"`
	Reference uint        `gorm:"index:idx_trail_ref" json:"reference"`
	Payload   types.JSONB `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
