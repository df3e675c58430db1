package services

import "meetingroom/src/types"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role types.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == types.ROLE_ADMIN
}
