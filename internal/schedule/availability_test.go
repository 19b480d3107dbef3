package schedule

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAvailableSlotsBlocksOverlappingEvent(t *testing.T) {
	store := newMemStore()
	addEvent(store, "ev-1", at(testDay, 9, 0), ptr(at(testDay, 11, 0)))
	svc := newTestService(store)

	slots, err := svc.GetAvailableSlots(context.Background(), testDay.Add(15*time.Hour), nil, time.Hour)
	require.NoError(t, err)
	require.Len(t, slots, 19)

	byStart := map[string]bool{}
	for _, slot := range slots {
		byStart[slot.StartTime.Format("15:04")] = slot.Available
	}

	assert.True(t, byStart["08:00"])
	assert.False(t, byStart["08:30"])
	assert.False(t, byStart["09:00"])
	assert.False(t, byStart["10:00"])
	assert.False(t, byStart["10:30"])
	assert.True(t, byStart["11:00"])
	assert.True(t, byStart["17:00"])
}

func TestGetAvailableSlotsEmptyDay(t *testing.T) {
	svc := newTestService(newMemStore())

	slots, err := svc.GetAvailableSlots(context.Background(), testDay, nil, 0)
	require.NoError(t, err)
	require.Len(t, slots, 19)

	assert.Equal(t, at(testDay, 8, 0), slots[0].StartTime)
	assert.Equal(t, at(testDay, 17, 0), slots[len(slots)-1].StartTime)
	assert.Equal(t, at(testDay, 18, 0), slots[len(slots)-1].EndTime)
	for _, slot := range slots {
		assert.True(t, slot.Available)
		assert.Equal(t, time.Hour, slot.EndTime.Sub(slot.StartTime))
		assert.Nil(t, slot.TechnicianID)
	}
}

func TestGetAvailableSlotsTechnicianFilter(t *testing.T) {
	store := newMemStore()
	addEvent(store, "ev-1", at(testDay, 9, 0), ptr(at(testDay, 10, 0)), "t2")
	svc := newTestService(store)

	slots, err := svc.GetAvailableSlots(context.Background(), testDay, []string{"t1"}, time.Hour)
	require.NoError(t, err)
	for _, slot := range slots {
		assert.True(t, slot.Available)
	}

	slots, err = svc.GetAvailableSlots(context.Background(), testDay, []string{"t1", "t2"}, time.Hour)
	require.NoError(t, err)
	assert.False(t, slots[2].Available) // 09:00
}

func TestGetAvailableSlotsIgnoresOtherDays(t *testing.T) {
	store := newMemStore()
	addEvent(store, "ev-1", at(testDay.AddDate(0, 0, 1), 9, 0), ptr(at(testDay.AddDate(0, 0, 1), 12, 0)))
	svc := newTestService(store)

	slots, err := svc.GetAvailableSlots(context.Background(), testDay, nil, time.Hour)
	require.NoError(t, err)
	for _, slot := range slots {
		assert.True(t, slot.Available)
	}
}

func TestGetAvailableSlotsLongerThanWindow(t *testing.T) {
	svc := newTestService(newMemStore())

	slots, err := svc.GetAvailableSlots(context.Background(), testDay, nil, 11*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = svc.GetAvailableSlots(context.Background(), testDay, nil, -time.Hour)
	assert.Error(t, err)
}

func TestGetAvailableSlotsIdempotent(t *testing.T) {
	store := newMemStore()
	addEvent(store, "ev-1", at(testDay, 13, 15), ptr(at(testDay, 14, 45)), "t1")
	addEvent(store, "ev-2", at(testDay, 16, 0), nil, "t1")
	svc := newTestService(store)

	first, err := svc.GetAvailableSlots(context.Background(), testDay, []string{"t1"}, 90*time.Minute)
	require.NoError(t, err)
	second, err := svc.GetAvailableSlots(context.Background(), testDay, []string{"t1"}, 90*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.listCalls)
}

func TestGetAvailableSlotsConfiguredWindow(t *testing.T) {
	opts := DefaultOptions()
	opts.Location = time.UTC
	opts.DayStart = 9 * time.Hour
	opts.DayEnd = 12 * time.Hour
	opts.SlotStride = time.Hour
	svc := New(newMemStore(), nil, nil, nil, opts)

	slots, err := svc.GetAvailableSlots(context.Background(), testDay, nil, time.Hour)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, at(testDay, 11, 0), slots[2].StartTime)
}

func TestGetAvailableSlotsStoreFailure(t *testing.T) {
	store := newMemStore()
	store.err = assert.AnError
	svc := newTestService(store)

	slots, err := svc.GetAvailableSlots(context.Background(), testDay, nil, time.Hour)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, slots)
}

func TestGetAvailableSlotsDaylightSavingDays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Location = loc
	svc := New(newMemStore(), nil, nil, nil, opts)

	for _, day := range []time.Time{
		time.Date(2025, 3, 9, 12, 0, 0, 0, loc),  // 开始夏令时
		time.Date(2025, 11, 2, 12, 0, 0, 0, loc), // 结束夏令时
	} {
		slots, err := svc.GetAvailableSlots(context.Background(), day, nil, time.Hour)
		require.NoError(t, err)
		require.Len(t, slots, 19)

		first, last := slots[0], slots[len(slots)-1]
		assert.Equal(t, "08:00", first.StartTime.In(loc).Format("15:04"))
		assert.Equal(t, "17:00", last.StartTime.In(loc).Format("15:04"))
		assert.Equal(t, "18:00", last.EndTime.In(loc).Format("15:04"))
		assert.Equal(t, day.Day(), first.StartTime.In(loc).Day())
	}
}
