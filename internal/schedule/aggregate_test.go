package schedule

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

func TestGetProjectSchedule(t *testing.T) {
	store := newMemStore()
	store.projects["p1"] = &domain.Project{ID: "p1", Name: "番禺数据中心", CompletionPercentage: 40}
	store.milestones["p1"] = []*domain.Milestone{
		{ID: "m2", ProjectID: "p1", Title: "调试验收", DueDate: testDay.AddDate(0, 1, 0)},
		{ID: "m1", ProjectID: "p1", Title: "设备到货", DueDate: testDay},
	}
	a := addEvent(store, "a", at(testDay, 9, 0), ptr(at(testDay, 11, 0)))
	a.ProjectID = ptr("p1")
	b := addEvent(store, "b", at(testDay, 13, 0), nil)
	b.ProjectID = ptr("p1")
	addEvent(store, "other", at(testDay, 13, 0), ptr(at(testDay, 18, 0)))
	svc := newTestService(store)

	ps, err := svc.GetProjectSchedule(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "番禺数据中心", ps.Project.Name)
	assert.Len(t, ps.Events, 2)
	assert.InDelta(t, 2.0, ps.TotalHours, 1e-9)
	assert.InDelta(t, 40.0, ps.CompletionPercentage, 1e-9)
	require.Len(t, ps.Milestones, 2)
	assert.Equal(t, "m1", ps.Milestones[0].ID)
}

func TestGetProjectScheduleNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	ps, err := svc.GetProjectSchedule(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, ps)
	assert.Zero(t, store.listCalls)
}

func TestGetTechnicianSchedule(t *testing.T) {
	store := newMemStore()
	store.technicians["t1"] = &domain.Technician{ID: "t1", Name: "王伟"}
	addEvent(store, "a", at(testDay, 9, 0), ptr(at(testDay, 11, 0)), "t1")
	b := addEvent(store, "b", at(testDay.AddDate(0, 0, 2), 14, 0), ptr(at(testDay.AddDate(0, 0, 2), 15, 30)), "t1", "t2")
	b.Status = domain.StatusInProgress
	b.ProjectID = ptr("p7")
	addEvent(store, "c", at(testDay, 13, 0), ptr(at(testDay, 14, 0)), "t2")
	svc := newTestService(store)

	ts, err := svc.GetTechnicianSchedule(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "王伟", ts.Technician.Name)
	assert.Len(t, ts.Events, 2)
	assert.InDelta(t, 3.5, ts.TotalHours, 1e-9)
	require.NotNil(t, ts.CurrentProjectID)
	assert.Equal(t, "p7", *ts.CurrentProjectID)

	// 7 天，每天 08:00 到 18:00 共 10 个小时格
	require.Len(t, ts.Availability, 70)
	assert.Equal(t, 1, store.listCalls)

	unavailable := map[time.Time]bool{}
	for _, slot := range ts.Availability {
		require.NotNil(t, slot.TechnicianID)
		assert.Equal(t, "t1", *slot.TechnicianID)
		assert.Equal(t, time.Hour, slot.EndTime.Sub(slot.StartTime))
		if !slot.Available {
			unavailable[slot.StartTime] = true
		}
	}
	assert.Equal(t, map[time.Time]bool{
		at(testDay, 9, 0):                    true,
		at(testDay, 10, 0):                   true,
		at(testDay.AddDate(0, 0, 2), 14, 0): true,
		at(testDay.AddDate(0, 0, 2), 15, 0): true,
	}, unavailable)
	assert.Equal(t, at(testDay, 8, 0), ts.Availability[0].StartTime)
}

func TestGetTechnicianScheduleWithoutAssignment(t *testing.T) {
	store := newMemStore()
	store.technicians["t1"] = &domain.Technician{ID: "t1", Name: "李静"}
	svc := newTestService(store)

	ts, err := svc.GetTechnicianSchedule(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, ts.Events)
	assert.Zero(t, ts.TotalHours)
	assert.Nil(t, ts.CurrentProjectID)
	for _, slot := range ts.Availability {
		assert.True(t, slot.Available)
	}
}

func TestGetTechnicianScheduleGridAcrossDaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	store := newMemStore()
	store.technicians["t1"] = &domain.Technician{ID: "t1", Name: "李静"}
	opts := DefaultOptions()
	opts.Location = loc
	opts.Now = func() time.Time { return time.Date(2025, 3, 8, 10, 0, 0, 0, loc) }
	svc := New(store, store, store, store, opts)

	ts, err := svc.GetTechnicianSchedule(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, ts.Availability, 70)

	// 每天第一个格子都从当地 08:00 开始，包括 3 月 9 日
	for i := 0; i < 7; i++ {
		slot := ts.Availability[i*10].StartTime.In(loc)
		assert.Equal(t, 8+i, slot.Day())
		assert.Equal(t, "08:00", slot.Format("15:04"))
	}
}

func TestGetTechnicianScheduleErrors(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.GetTechnicianSchedule(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	store.technicians["t1"] = &domain.Technician{ID: "t1"}
	store.err = assert.AnError
	_, err = svc.GetTechnicianSchedule(context.Background(), "t1")
	assert.ErrorIs(t, err, assert.AnError)
}
