package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/utils"
)

// ListEvents 返回满足所有过滤条件的事件，按开始时间升序
func (s *Service) ListEvents(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.ScheduleEvent, error) {
	if filter.DateRange != nil {
		if err := utils.ValidateDateRange(filter.DateRange.Start, filter.DateRange.End); err != nil {
			return nil, err
		}
	}

	events, err := s.events.ListEvents(ctx, filter)
	if err != nil {
		return nil, s.storeFailure("查询事件", err)
	}
	if events == nil {
		events = []*domain.ScheduleEvent{}
	}

	return events, nil
}

func (s *Service) GetEvent(ctx context.Context, id string) (*domain.ScheduleEvent, error) {
	ev, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, s.storeFailure("获取事件", err)
	}
	return ev, nil
}

// SaveEvent 在 id 为空时新建事件，否则整体替换事件的可变字段，提醒和附件同时整体替换
func (s *Service) SaveEvent(ctx context.Context, actor string, id string, form *domain.ScheduleFormData) (string, error) {
	if actor == "" {
		return "", domain.ErrActorRequired
	}
	if err := utils.ValidateScheduleForm(form); err != nil {
		return "", err
	}

	now := s.now()

	if id == "" {
		ev := &domain.ScheduleEvent{
			ID:        uuid.NewString(),
			Status:    domain.StatusScheduled,
			CreatedBy: actor,
			CreatedAt: now,
		}
		if err := applyForm(ev, form); err != nil {
			return "", err
		}
		ev.UpdatedBy = actor
		ev.UpdatedAt = now

		if err := s.events.CreateEvent(ctx, ev); err != nil {
			return "", s.storeFailure("创建事件", err)
		}
		return ev.ID, nil
	}

	ev, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return "", s.storeFailure("获取事件", err)
	}

	previous := ev.Status
	if err := applyForm(ev, form); err != nil {
		return "", err
	}
	if !previous.CanTransitionTo(ev.Status) {
		return "", fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, previous, ev.Status)
	}
	ev.UpdatedBy = actor
	ev.UpdatedAt = now

	if err := s.events.UpdateEvent(ctx, ev); err != nil {
		return "", s.storeFailure("更新事件", err)
	}

	return ev.ID, nil
}

// applyForm 覆盖表单中的全部字段，表单未给出状态时保留原状态
func applyForm(ev *domain.ScheduleEvent, form *domain.ScheduleFormData) error {
	ev.Title = strings.TrimSpace(form.Title)
	ev.Description = form.Description
	ev.StartTime = form.StartTime
	ev.EndTime = form.EndTime
	ev.AllDay = form.AllDay
	ev.EventType = form.EventType
	if form.Status != "" {
		ev.Status = form.Status
	}
	ev.Priority = form.Priority
	ev.Color = form.Color
	ev.ProjectID = form.ProjectID
	ev.CustomerID = form.CustomerID
	ev.Location = form.Location
	ev.Notes = form.Notes

	ev.TechnicianIDs = make([]string, 0, len(form.TechnicianIDs))
	seen := make(map[string]bool, len(form.TechnicianIDs))
	for _, techID := range form.TechnicianIDs {
		if seen[techID] {
			continue
		}
		seen[techID] = true
		ev.TechnicianIDs = append(ev.TechnicianIDs, techID)
	}

	ev.RecurringPattern = nil
	if form.RecurringPattern != nil && strings.TrimSpace(*form.RecurringPattern) != "" {
		pattern, err := utils.NormalizeRecurrence(*form.RecurringPattern)
		if err != nil {
			return err
		}
		ev.RecurringPattern = &pattern
	}

	ev.Reminders = make([]domain.Reminder, len(form.Reminders))
	for i, r := range form.Reminders {
		ev.Reminders[i] = domain.Reminder{
			ID:           uuid.NewString(),
			EventID:      ev.ID,
			ReminderTime: r.ReminderTime,
			ReminderType: r.ReminderType,
		}
	}

	ev.Attachments = make([]domain.Attachment, len(form.Attachments))
	for i, a := range form.Attachments {
		ev.Attachments[i] = domain.Attachment{
			ID:      uuid.NewString(),
			EventID: ev.ID,
			Name:    a.Name,
			URL:     a.URL,
		}
	}

	return nil
}

func (s *Service) DeleteEvent(ctx context.Context, actor string, id string) error {
	if actor == "" {
		return domain.ErrActorRequired
	}

	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return s.storeFailure("删除事件", err)
	}

	s.opts.Logger.Info("事件已删除", "id", id, "actor", actor)
	return nil
}

// UpdateStatus 是修改事件状态的专用入口，按状态迁移表校验
func (s *Service) UpdateStatus(ctx context.Context, actor string, id string, status domain.EventStatus) error {
	if actor == "" {
		return domain.ErrActorRequired
	}
	if !status.Valid() {
		return fmt.Errorf("%w: 未知状态 %q", domain.ErrInvalidStatusTransition, status)
	}

	ev, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return s.storeFailure("获取事件", err)
	}
	if !ev.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, ev.Status, status)
	}

	if err := s.events.UpdateEventStatus(ctx, id, status, actor, s.now()); err != nil {
		return s.storeFailure("更新事件状态", err)
	}

	return nil
}
