package models

import (
	"meetingroom/src/types"
	"time"
)

type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`
	Username           string         `gorm:"uniqueIndex;not null" json:"username"`
	FullName           string         `json:"full_name,omitempty"`
	Role               types.UserRole `gorm:"type:text;default:'USER'" json:"role"`
	CognitoSub         string         `gorm:"index" json:"-"`
	GoogleID           string         `json:"-"`
	EmailVerified      bool           `json:"email_verified"`
	CalendarSync       bool           `json:"calendar_sync"`
	GoogleCalendarID   string         `json:"-"`
	GoogleRefreshToken string         `json:"-"`
	LastActive         *time.Time     `json:"last_active,omitempty"`

	Meetings []Meeting `gorm:"foreignKey:owner_id" json:"meetings,omitempty"`

	types.Timestamps
}

func (u *User) IsAdmin() bool {
	return u.Role == types.ROLE_ADMIN
}

func (u *User) CalendarConnected() bool {
	return u.CalendarSync && u.GoogleRefreshToken != ""
}
