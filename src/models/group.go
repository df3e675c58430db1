package models

import (
	"meetingroom/src/types"
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     uint   `gorm:"index" json:"owner_id"`

	Members []GroupMember `gorm:"foreignKey:group_id" json:"members,omitempty"`

	types.Timestamps
}

type GroupMember struct {
	ID      uint            `gorm:"primarykey" json:"id"`
	GroupID uint            `gorm:"uniqueIndex:idx_group_member;not null" json:"group_id"`
	UserID  uint            `gorm:"uniqueIndex:idx_group_member;not null" json:"user_id"`
	Role    types.GroupRole `gorm:"type:text;default:'MEMBER'" json:"role"`

	User *User `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}

type GroupInvite struct {
	ID         uint               `gorm:"primarykey" json:"id"`
	Token      uuid.UUID          `gorm:"type:uuid;uniqueIndex;not null" json:"token"`
	GroupID    uint               `gorm:"index;not null" json:"group_id"`
	Email      string             `gorm:"index;not null" json:"email"`
	InvitedBy  uint               `json:"invited_by"`
	Status     types.InviteStatus `gorm:"type:text;index;default:'PENDING'" json:"status"`
	ExpiresAt  time.Time          `json:"expires_at"`
	AcceptedAt *time.Time         `json:"accepted_at,omitempty"`

	Group *Group `gorm:"foreignKey:group_id" json:"group,omitempty"`

	types.Timestamps
}

func (i *GroupInvite) IsExpired(now time.Time) bool {
	return i.Status == types.INVITE_EXPIRED || !now.Before(i.ExpiresAt)
}
