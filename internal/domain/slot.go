package domain

import "time"

type TimeSlot struct {
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Available    bool      `json:"available"`
	TechnicianID *string   `json:"technicianID"`
}

type ViewType string

const (
	ViewDay   ViewType = "day"
	ViewWeek  ViewType = "week"
	ViewMonth ViewType = "month"
	ViewYear  ViewType = "year"
)

// Range 返回以 anchor 为起点的视图区间 [start, end)
func (v ViewType) Range(anchor time.Time) (time.Time, time.Time, bool) {
	switch v {
	case ViewDay:
		return anchor, anchor.AddDate(0, 0, 1), true
	case ViewWeek:
		return anchor, anchor.AddDate(0, 0, 7), true
	case ViewMonth:
		return anchor, anchor.AddDate(0, 1, 0), true
	case ViewYear:
		return anchor, anchor.AddDate(1, 0, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

type CalendarView struct {
	Type        ViewType         `json:"type"`
	CurrentDate time.Time        `json:"currentDate"`
	Events      []*ScheduleEvent `json:"events"`
}

type ExportFormat string

const (
	ExportICS  ExportFormat = "ics"
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)
