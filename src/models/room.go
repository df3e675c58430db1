package models

import "meetingroom/src/types"

type Room struct {
	ID       uint             `gorm:"primarykey" json:"id"`
	Name     string           `gorm:"not null" json:"name"`
	Slug     string           `gorm:"uniqueIndex;not null" json:"slug"`
	Location string           `json:"location"`
	Capacity uint             `json:"capacity"`
	Status   types.RoomStatus `gorm:"type:text;default:'AVAILABLE'" json:"status"`

	Meetings []Meeting `gorm:"foreignKey:room_id" json:"meetings,omitempty"`

	types.Timestamps
}

func (r *Room) IsBookable() bool {
	return r.Status == types.ROOM_AVAILABLE
}
