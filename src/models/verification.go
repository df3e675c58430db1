package models

import (
	"meetingroom/src/types"
	"time"
)

type VerificationCode struct {
	ID        uint              `gorm:"primarykey" json:"-"`
	Email     string            `gorm:"index:idx_code_lookup;not null" json:"-"`
	Code      string            `gorm:"size:6;not null" json:"-"`
	Purpose   types.CodePurpose `gorm:"type:text;index:idx_code_lookup;not null" json:"-"`
	Used      bool              `gorm:"default:false" json:"-"`
	ExpiresAt time.Time         `json:"-"`

	types.Timestamps
}

func (v *VerificationCode) Usable(now time.Time) bool {
	return !v.Used && now.Before(v.ExpiresAt)
}
