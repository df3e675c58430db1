package services

import (
	"context"
	"meetingroom/src/repository"
	"time"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

type conflictQueries interface {
	ExistsConflictingMeeting(ctx context.Context, roomID uint, start, end time.Time) (bool, error)
	ExistsConflictingMeetingExcluding(ctx context.Context, roomID uint, start, end time.Time, excludeID uint) (bool, error)
}

type ConflictChecker struct {
	store conflictQueries
}

func NewConflictChecker(store repository.MeetingStore) *ConflictChecker {
	return &ConflictChecker{store: store}
}

// HasConflict reports whether a non-cancelled meeting of the room overlaps
// [start, end). When excludeMeetingID is set that meeting is ignored.
func (c *ConflictChecker) HasConflict(ctx context.Context, roomID uint, start, end time.Time, excludeMeetingID *uint) (bool, error) {
	if excludeMeetingID != nil {
		return c.store.ExistsConflictingMeetingExcluding(ctx, roomID, start, end, *excludeMeetingID)
	}
	return c.store.ExistsConflictingMeeting(ctx, roomID, start, end)
}
