package models

import (
	"meetingroom/src/types"
	"time"
)

type Meeting struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	OwnerID       uint                `gorm:"index;not null" json:"owner_id"`
	RoomID        uint                `gorm:"index:idx_meetings_room_window;not null" json:"room_id"`
	Title         string              `gorm:"not null" json:"title"`
	Description   string              `json:"description,omitempty"`
	StartTime     time.Time           `gorm:"index:idx_meetings_room_window;not null" json:"start_time"`
	EndTime       time.Time           `gorm:"index:idx_meetings_room_window;not null" json:"end_time"`
	Status        types.MeetingStatus `gorm:"type:text;index;default:'CONFIRMED'" json:"status"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	GoogleEventID string              `json:"-"`

	Owner   *User           `gorm:"foreignKey:owner_id" json:"owner,omitempty"`
	Room    *Room           `gorm:"foreignKey:room_id" json:"room,omitempty"`
	Devices []MeetingDevice `gorm:"foreignKey:meeting_id" json:"devices,omitempty"`

	types.Timestamps
}

func (m *Meeting) IsCancelled() bool {
	return m.Status == types.MEETING_CANCELLED
}

func (m *Meeting) IsOwnedBy(userID uint) bool {
	return m.OwnerID == userID
}

// ToCalendarMeeting flattens the meeting and its preloaded room and owner.
func (m *Meeting) ToCalendarMeeting() types.CalendarMeeting {
	cm := types.CalendarMeeting{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		Status:      m.Status,
	}
	if m.Room != nil {
		cm.RoomName = m.Room.Name
		cm.RoomLocation = m.Room.Location
	}
	if m.Owner != nil {
		cm.OrganizerName = m.Owner.FullName
		cm.OrganizerEmail = m.Owner.Email
	}
	return cm
}
