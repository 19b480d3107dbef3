package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/export"
)

// GetCalendarView 查询 [anchor, anchor + 视图跨度) 内的事件
func (s *Service) GetCalendarView(ctx context.Context, viewType domain.ViewType, anchor time.Time) (*domain.CalendarView, error) {
	start, end, ok := viewType.Range(anchor)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidViewType, viewType)
	}

	events, err := s.ListEvents(ctx, domain.ScheduleFilter{
		DateRange: &domain.DateRange{Start: start, End: end},
	})
	if err != nil {
		return nil, err
	}

	return &domain.CalendarView{
		Type:        viewType,
		CurrentDate: anchor,
		Events:      events,
	}, nil
}

// ExportCalendar 导出满足过滤条件的事件
func (s *Service) ExportCalendar(ctx context.Context, filter domain.ScheduleFilter, format domain.ExportFormat) (string, error) {
	if !export.Supported(format) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExportFormat, format)
	}

	events, err := s.ListEvents(ctx, filter)
	if err != nil {
		return "", err
	}

	return export.Export(events, format)
}
