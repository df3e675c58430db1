package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type UserRole string

const (
	ROLE_ADMIN UserRole = "ADMIN"
	ROLE_USER  UserRole = "USER"
)

type RoomStatus string

const (
	ROOM_AVAILABLE   RoomStatus = "AVAILABLE"
	ROOM_UNAVAILABLE RoomStatus = "UNAVAILABLE"
	ROOM_MAINTENANCE RoomStatus = "MAINTENANCE"
)

type MeetingStatus string

const (
	MEETING_CONFIRMED MeetingStatus = "CONFIRMED"
	MEETING_CANCELLED MeetingStatus = "CANCELLED"
)

type DeviceStatus string

const (
	DEVICE_ACTIVE  DeviceStatus = "ACTIVE"
	DEVICE_RETIRED DeviceStatus = "RETIRED"
)

type BorrowStatus string

const (
	BORROW_BORROWED  BorrowStatus = "BORROWED"
	BORROW_RETURNED  BorrowStatus = "RETURNED"
	BORROW_CANCELLED BorrowStatus = "CANCELLED"
)

type InviteStatus string

const (
	INVITE_PENDING  InviteStatus = "PENDING"
	INVITE_ACCEPTED InviteStatus = "ACCEPTED"
	INVITE_EXPIRED  InviteStatus = "EXPIRED"
)

type GroupRole string

const (
	GROUP_OWNER  GroupRole = "OWNER"
	GROUP_MEMBER GroupRole = "MEMBER"
)

type CodePurpose string

const (
	CODE_PASSWORD_RESET       CodePurpose = "PASSWORD_RESET"
	CODE_SIGNUP_CONFIRMATION CodePurpose = "SIGNUP_CONFIRMATION"
)

type MeetingEventType string

const (
	MEETING_EVENT_CONFIRMED MeetingEventType = "meeting.confirmed"
	MEETING_EVENT_UPDATED   MeetingEventType = "meeting.updated"
	MEETING_EVENT_CANCELLED MeetingEventType = "meeting.cancelled"
)

// Identity is what an external identity provider knows about a principal.
type Identity struct {
	Subject       string
	Email         string
	Username      string
	FullName      string
	GoogleID      string
	EmailVerified bool
}

// CalendarMeeting is the finalized view of a meeting handed to calendar export.
type CalendarMeeting struct {
	ID             uint
	Title          string
	Description    string
	StartTime      time.Time
	EndTime        time.Time
	RoomName       string
	RoomLocation   string
	OrganizerName  string
	OrganizerEmail string
	Status         MeetingStatus
}

type MeetingEvent struct {
	Type       MeetingEventType `json:"type"`
	MeetingID  uint             `json:"meeting_id"`
	RoomID     uint             `json:"room_id"`
	OwnerID    uint             `json:"owner_id"`
	Title      string           `json:"title"`
	StartTime  string           `json:"start_time"`
	EndTime    string           `json:"end_time"`
	Status     MeetingStatus    `json:"status"`
	OccurredAt string           `json:"occurred_at"`
}

type Oauth2FlowState struct {
	AccountID uint   `json:"account_id"`
	Nonce     string `json:"nonce"`
	Redirect  string `json:"redirect"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type MeetingDeviceRequestParams struct {
	ID       uint `uri:"id" binding:"required"`
	DeviceID uint `uri:"deviceId" binding:"required"`
}

type InviteTokenRequestParams struct {
	Token string `uri:"token" binding:"required,uuid"`
}

type TimeRangeQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required,gtdate=From"`
}

type AvailabilityQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required,gtdate=Start"`
}

type CreateMeetingRequestBody struct {
	RoomID      uint   `json:"room_id" binding:"required"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description,omitempty" binding:"max=2000"`
	StartTime   string `json:"start_time" binding:"required,bookabledate"`
	EndTime     string `json:"end_time" binding:"required,gtdate=StartTime"`
}

type UpdateMeetingRequestBody struct {
	RoomID      uint   `json:"room_id" binding:"required"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description,omitempty" binding:"max=2000"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required,gtdate=StartTime"`
}

type CreateRoomRequestBody struct {
	Name     string     `json:"name" binding:"required,max=120"`
	Location string     `json:"location" binding:"required"`
	Capacity uint       `json:"capacity" binding:"required,min=1"`
	Status   RoomStatus `json:"status,omitempty" binding:"omitempty,oneof=AVAILABLE UNAVAILABLE MAINTENANCE"`
}

type CreateDeviceRequestBody struct {
	Name          string `json:"name" binding:"required,max=120"`
	Description   string `json:"description,omitempty"`
	TotalQuantity uint   `json:"total_quantity" binding:"required,min=1"`
}

type BorrowDeviceRequestBody struct {
	DeviceID uint `json:"device_id" binding:"required"`
	Quantity uint `json:"quantity" binding:"required,min=1,max=10000"`
}

type CreateGroupRequestBody struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description,omitempty"`
}

type InviteRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type RegisterUserRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenExchangeRequestBody struct {
	AccessToken string `json:"access_token" binding:"required"`
}

type ForgotPasswordRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequestBody struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type ConfirmSignupRequestBody struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ChangePasswordRequestBody struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type UpdateProfileRequestBody struct {
	FullName     *string `json:"full_name,omitempty"`
	CalendarSync *bool   `json:"calendar_sync,omitempty"`
}

type CalendarConnectRequestBody struct {
	Redirect string `json:"redirect" binding:"required,url"`
}

type Handler func(payload string)
