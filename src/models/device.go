package models

import (
	"meetingroom/src/types"
	"time"
)

type Device struct {
	ID            uint               `gorm:"primarykey" json:"id"`
	Name          string             `gorm:"not null" json:"name"`
	Description   string             `json:"description,omitempty"`
	TotalQuantity uint               `gorm:"not null" json:"total_quantity"`
	Status        types.DeviceStatus `gorm:"type:text;default:'ACTIVE'" json:"status"`

	types.Timestamps
}

type MeetingDevice struct {
	ID               uint               `gorm:"primarykey" json:"id"`
	MeetingID        uint               `gorm:"index;not null" json:"meeting_id"`
	DeviceID         uint               `gorm:"index;not null" json:"device_id"`
	QuantityBorrowed uint               `gorm:"not null" json:"quantity_borrowed"`
	Status           types.BorrowStatus `gorm:"type:text;index;default:'BORROWED'" json:"status"`
	RequestedBy      uint               `gorm:"index" json:"requested_by"`
	BorrowedAt       time.Time          `json:"borrowed_at"`
	ReturnedAt       *time.Time         `json:"returned_at,omitempty"`

	Device  *Device  `gorm:"foreignKey:device_id" json:"device,omitempty"`
	Meeting *Meeting `gorm:"foreignKey:meeting_id" json:"meeting,omitempty"`

	types.Timestamps
}

type DeviceStats struct {
	Borrowed uint
}
