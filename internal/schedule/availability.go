package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

// GetAvailableSlots 以 SlotStride 为步长枚举 date 当天营业时间内所有长度为 duration 的候选时段。
// 步长小于时长时相邻时段会互相重叠，调用方可以据此找到每一个可行的开始时间。
// duration 为 0 时使用默认时长。
func (s *Service) GetAvailableSlots(ctx context.Context, date time.Time, technicianIDs []string, duration time.Duration) ([]domain.TimeSlot, error) {
	if duration == 0 {
		duration = s.opts.DefaultDuration
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: 时长必须为正数", domain.ErrInvalidTimeRange)
	}

	day := s.startOfDay(date)
	filter := domain.ScheduleFilter{
		TechnicianIDs: technicianIDs,
		DateRange:     &domain.DateRange{Start: day, End: day.AddDate(0, 0, 1)},
	}

	events, err := s.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}

	return buildSlots(events, s.atOffset(day, s.opts.DayStart), s.atOffset(day, s.opts.DayEnd), duration, s.opts.SlotStride, nil), nil
}

// buildSlots 生成 [windowStart, windowEnd) 内的候选时段，只保留能完整放进窗口的时段。
// 与 events 中任何一个事件重叠的时段标记为不可用。
func buildSlots(events []*domain.ScheduleEvent, windowStart, windowEnd time.Time, duration, stride time.Duration, technicianID *string) []domain.TimeSlot {
	slots := []domain.TimeSlot{}
	if duration <= 0 || stride <= 0 {
		return slots
	}

	for cursor := windowStart; !cursor.Add(duration).After(windowEnd); cursor = cursor.Add(stride) {
		slotEnd := cursor.Add(duration)
		available := true
		for _, ev := range events {
			if ev.Overlaps(cursor, slotEnd) {
				available = false
				break
			}
		}

		slots = append(slots, domain.TimeSlot{
			StartTime:    cursor,
			EndTime:      slotEnd,
			Available:    available,
			TechnicianID: technicianID,
		})
	}

	return slots
}
