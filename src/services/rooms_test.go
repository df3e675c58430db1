package services

import (
	"context"
	"errors"
	"meetingroom/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomSlugs(t *testing.T) {
	ctx := context.Background()
	store := newMemRoomStore()
	svc := NewRoomService(store)

	first, err := svc.Create(ctx, RoomInput{Name: "Orion Hall", Location: "3F", Capacity: 8})
	require.NoError(t, err)
	assert.Equal(t, "orion-hall", first.Slug)
	assert.Equal(t, types.ROOM_AVAILABLE, first.Status)

	second, err := svc.Create(ctx, RoomInput{Name: "Orion  hall!", Location: "4F", Capacity: 4})
	require.NoError(t, err)
	assert.Equal(t, "orion-hall-2", second.Slug)

	renamed, err := svc.Update(ctx, first.ID, RoomInput{Name: "Vega", Location: "3F", Capacity: 8, Status: types.ROOM_MAINTENANCE})
	require.NoError(t, err)
	assert.Equal(t, "vega", renamed.Slug)
	assert.Equal(t, types.ROOM_MAINTENANCE, renamed.Status)

	same, err := svc.Update(ctx, first.ID, RoomInput{Name: "Vega", Location: "2F", Capacity: 10})
	require.NoError(t, err)
	assert.Equal(t, "vega", same.Slug, "keeping the name keeps the slug")
}

func TestRoomValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewRoomService(newMemRoomStore())

	_, err := svc.Create(ctx, RoomInput{Name: " ", Capacity: 0, Status: "CLOSED"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.FieldErrors, 3)
	assert.Equal(t, "validation failed: capacity: must be at least 1, name: is required, status: must be one of AVAILABLE UNAVAILABLE MAINTENANCE", verr.Error())

	_, err = svc.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 404), ErrNotFound)
}
