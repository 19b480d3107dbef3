package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

// memStore 是测试用的内存存储，过滤语义与 Postgres 实现一致
type memStore struct {
	events      map[string]*domain.ScheduleEvent
	conflicts   map[string]*domain.ScheduleConflict
	projects    map[string]*domain.Project
	milestones  map[string][]*domain.Milestone
	technicians map[string]*domain.Technician

	err       error
	listCalls int
}

func newMemStore() *memStore {
	return &memStore{
		events:      map[string]*domain.ScheduleEvent{},
		conflicts:   map[string]*domain.ScheduleConflict{},
		projects:    map[string]*domain.Project{},
		milestones:  map[string][]*domain.Milestone{},
		technicians: map[string]*domain.Technician{},
	}
}

func cloneEvent(ev *domain.ScheduleEvent) *domain.ScheduleEvent {
	cp := *ev
	cp.TechnicianIDs = slices.Clone(ev.TechnicianIDs)
	cp.Reminders = slices.Clone(ev.Reminders)
	cp.Attachments = slices.Clone(ev.Attachments)
	return &cp
}

func matchFilter(ev *domain.ScheduleEvent, f domain.ScheduleFilter) bool {
	if len(f.EventTypes) > 0 && !slices.Contains(f.EventTypes, ev.EventType) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, ev.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, ev.Priority) {
		return false
	}
	if f.ProjectID != nil && (ev.ProjectID == nil || *ev.ProjectID != *f.ProjectID) {
		return false
	}
	if f.CustomerID != nil && (ev.CustomerID == nil || *ev.CustomerID != *f.CustomerID) {
		return false
	}
	if len(f.TechnicianIDs) > 0 && !ev.HasTechnician(f.TechnicianIDs...) {
		return false
	}
	if f.DateRange != nil && !ev.IntersectsRange(f.DateRange.Start, f.DateRange.End) {
		return false
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(ev.Title), q) && !strings.Contains(strings.ToLower(ev.Description), q) {
			return false
		}
	}
	return true
}

func (m *memStore) ListEvents(_ context.Context, filter domain.ScheduleFilter) ([]*domain.ScheduleEvent, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}

	res := []*domain.ScheduleEvent{}
	for _, ev := range m.events {
		if matchFilter(ev, filter) {
			res = append(res, cloneEvent(ev))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].StartTime.Equal(res[j].StartTime) {
			return res[i].ID < res[j].ID
		}
		return res[i].StartTime.Before(res[j].StartTime)
	})
	return res, nil
}

func (m *memStore) GetEvent(_ context.Context, id string) (*domain.ScheduleEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("事件 %s: %w", id, domain.ErrNotFound)
	}
	return cloneEvent(ev), nil
}

func (m *memStore) CreateEvent(_ context.Context, ev *domain.ScheduleEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events[ev.ID] = cloneEvent(ev)
	return nil
}

func (m *memStore) UpdateEvent(_ context.Context, ev *domain.ScheduleEvent) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.events[ev.ID]; !ok {
		return fmt.Errorf("事件 %s: %w", ev.ID, domain.ErrNotFound)
	}
	m.events[ev.ID] = cloneEvent(ev)
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.events[id]; !ok {
		return fmt.Errorf("事件 %s: %w", id, domain.ErrNotFound)
	}
	delete(m.events, id)
	return nil
}

func (m *memStore) UpdateEventStatus(_ context.Context, id string, status domain.EventStatus, actor string, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return fmt.Errorf("事件 %s: %w", id, domain.ErrNotFound)
	}
	ev.Status = status
	ev.UpdatedBy = actor
	ev.UpdatedAt = at
	return nil
}

func (m *memStore) ListUnresolvedConflicts(_ context.Context) ([]*domain.ScheduleConflict, error) {
	if m.err != nil {
		return nil, m.err
	}
	res := []*domain.ScheduleConflict{}
	for _, c := range m.conflicts {
		if c.ResolvedAt == nil {
			cp := *c
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *memStore) ResolveConflict(_ context.Context, id string, actor string, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	c, ok := m.conflicts[id]
	if !ok || c.ResolvedAt != nil {
		return fmt.Errorf("冲突 %s: %w", id, domain.ErrNotFound)
	}
	c.ResolvedAt = &at
	c.ResolvedBy = &actor
	return nil
}

func (m *memStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("项目 %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (m *memStore) ListMilestones(_ context.Context, projectID string) ([]*domain.Milestone, error) {
	if m.err != nil {
		return nil, m.err
	}
	res := slices.Clone(m.milestones[projectID])
	sort.Slice(res, func(i, j int) bool { return res[i].DueDate.Before(res[j].DueDate) })
	return res, nil
}

func (m *memStore) GetTechnician(_ context.Context, id string) (*domain.Technician, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.technicians[id]
	if !ok {
		return nil, fmt.Errorf("技术员 %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

// 2025-03-10 是周一
var (
	testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	testNow = testDay.Add(7 * time.Hour)
)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func ptr[T any](v T) *T {
	return &v
}

func newTestService(store *memStore) *Service {
	opts := DefaultOptions()
	opts.Location = time.UTC
	opts.Now = func() time.Time { return testNow }
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, store, store, store, opts)
}

func addEvent(store *memStore, id string, start time.Time, end *time.Time, technicianIDs ...string) *domain.ScheduleEvent {
	ev := &domain.ScheduleEvent{
		ID:            id,
		Title:         "事件 " + id,
		StartTime:     start,
		EndTime:       end,
		EventType:     domain.EventTypeInstallation,
		Status:        domain.StatusScheduled,
		Priority:      domain.PriorityMedium,
		TechnicianIDs: technicianIDs,
		Reminders:     []domain.Reminder{},
		Attachments:   []domain.Attachment{},
	}
	store.events[id] = ev
	return ev
}
