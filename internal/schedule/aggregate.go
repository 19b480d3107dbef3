package schedule

import (
	"context"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

// totalHours 只统计起止时间都存在的事件
func totalHours(events []*domain.ScheduleEvent) float64 {
	var total float64
	for _, ev := range events {
		if d, ok := ev.Duration(); ok {
			total += d.Hours()
		}
	}
	return total
}

func (s *Service) GetProjectSchedule(ctx context.Context, projectID string) (*domain.ProjectSchedule, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, s.storeFailure("获取项目", err)
	}

	events, err := s.ListEvents(ctx, domain.ScheduleFilter{ProjectID: &projectID})
	if err != nil {
		return nil, err
	}

	milestones, err := s.projects.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, s.storeFailure("获取项目里程碑", err)
	}
	if milestones == nil {
		milestones = []*domain.Milestone{}
	}

	return &domain.ProjectSchedule{
		Project:              project,
		Events:               events,
		Milestones:           milestones,
		TotalHours:           totalHours(events),
		CompletionPercentage: project.CompletionPercentage,
	}, nil
}

// GetTechnicianSchedule 汇总技术员的全部事件，并从今天起按 GridStep 生成 GridDays 天的可用性网格
func (s *Service) GetTechnicianSchedule(ctx context.Context, technicianID string) (*domain.TechnicianSchedule, error) {
	technician, err := s.technicians.GetTechnician(ctx, technicianID)
	if err != nil {
		return nil, s.storeFailure("获取技术员", err)
	}

	events, err := s.ListEvents(ctx, domain.ScheduleFilter{TechnicianIDs: []string{technicianID}})
	if err != nil {
		return nil, err
	}

	var currentProjectID *string
	for _, ev := range events {
		if ev.Status == domain.StatusInProgress {
			currentProjectID = ev.ProjectID
			break
		}
	}

	today := s.startOfDay(s.now())
	availability := []domain.TimeSlot{}
	for i := 0; i < s.opts.GridDays; i++ {
		day := today.AddDate(0, 0, i)
		slots := buildSlots(events, s.atOffset(day, s.opts.DayStart), s.atOffset(day, s.opts.DayEnd), s.opts.GridStep, s.opts.GridStep, &technician.ID)
		availability = append(availability, slots...)
	}

	return &domain.TechnicianSchedule{
		Technician:       technician,
		Events:           events,
		TotalHours:       totalHours(events),
		CurrentProjectID: currentProjectID,
		Availability:     availability,
	}, nil
}
