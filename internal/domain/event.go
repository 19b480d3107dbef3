package domain

import (
	"slices"
	"time"
)

type EventType string

const (
	EventTypeInstallation EventType = "installation"
	EventTypeMaintenance  EventType = "maintenance"
	EventTypeRepair       EventType = "repair"
	EventTypeInspection   EventType = "inspection"
	EventTypeSurvey       EventType = "survey"
	EventTypeConsultation EventType = "consultation"
)

var EventTypes = []EventType{
	EventTypeInstallation,
	EventTypeMaintenance,
	EventTypeRepair,
	EventTypeInspection,
	EventTypeSurvey,
	EventTypeConsultation,
}

func (t EventType) Valid() bool {
	return slices.Contains(EventTypes, t)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	return slices.Contains(Priorities, p)
}

type ReminderType string

const (
	ReminderTypeEmail        ReminderType = "email"
	ReminderTypeNotification ReminderType = "notification"
)

func (t ReminderType) Valid() bool {
	return t == ReminderTypeEmail || t == ReminderTypeNotification
}

type Reminder struct {
	ID           string       `json:"id"`
	EventID      string       `json:"eventID"`
	ReminderTime time.Time    `json:"reminderTime"`
	ReminderType ReminderType `json:"reminderType"`
	SentAt       *time.Time   `json:"sentAt"`
}

type Attachment struct {
	ID      string `json:"id"`
	EventID string `json:"eventID"`
	Name    string `json:"name"`
	URL     string `json:"url"`
}

type ScheduleEvent struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	StartTime        time.Time    `json:"startTime"`
	EndTime          *time.Time   `json:"endTime"` // 为空表示结束时间未定
	AllDay           bool         `json:"allDay"`
	EventType        EventType    `json:"eventType"`
	Status           EventStatus  `json:"status"`
	Priority         Priority     `json:"priority"`
	Color            string       `json:"color"`
	ProjectID        *string      `json:"projectID"`
	CustomerID       *string      `json:"customerID"`
	TechnicianIDs    []string     `json:"technicianIDs"`
	Location         string       `json:"location"`
	Notes            string       `json:"notes"`
	RecurringPattern *string      `json:"recurringPattern"`
	Reminders        []Reminder   `json:"reminders"`
	Attachments      []Attachment `json:"attachments"`
	CreatedBy        string       `json:"createdBy"`
	UpdatedBy        string       `json:"updatedBy"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// End 返回用于区间计算的结束时间，未定结束时间的事件视为一个时间点
func (e *ScheduleEvent) End() time.Time {
	if e.EndTime == nil {
		return e.StartTime
	}
	return *e.EndTime
}

// Duration 只有在起止时间都存在时才有意义
func (e *ScheduleEvent) Duration() (time.Duration, bool) {
	if e.EndTime == nil {
		return 0, false
	}
	return e.EndTime.Sub(e.StartTime), true
}

// Overlaps 使用半开区间判断事件是否占用 [start, end)
func (e *ScheduleEvent) Overlaps(start, end time.Time) bool {
	return Overlaps(e.StartTime, e.End(), start, end)
}

// IntersectsRange 判断事件是否落在查询区间 [start, end) 内，结束时间未定的事件按开始时间判断
func (e *ScheduleEvent) IntersectsRange(start, end time.Time) bool {
	if !e.StartTime.Before(end) {
		return false
	}
	return !e.StartTime.Before(start) || e.End().After(start)
}

func (e *ScheduleEvent) HasTechnician(ids ...string) bool {
	for _, id := range ids {
		if slices.Contains(e.TechnicianIDs, id) {
			return true
		}
	}
	return false
}

// Overlaps 半开区间相交判断：aStart < bEnd && bStart < aEnd
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

type ReminderForm struct {
	ReminderTime time.Time    `json:"reminderTime" validate:"required"`
	ReminderType ReminderType `json:"reminderType" validate:"required,oneof=email notification"`
}

type AttachmentForm struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

// ScheduleFormData 是保存事件时可以修改的全部字段
type ScheduleFormData struct {
	Title            string           `json:"title" validate:"required,max=200"`
	Description      string           `json:"description"`
	StartTime        time.Time        `json:"startTime" validate:"required"`
	EndTime          *time.Time       `json:"endTime"`
	AllDay           bool             `json:"allDay"`
	EventType        EventType        `json:"eventType" validate:"required,oneof=installation maintenance repair inspection survey consultation"`
	Status           EventStatus      `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	Priority         Priority         `json:"priority" validate:"required,oneof=low medium high"`
	Color            string           `json:"color" validate:"omitempty,hexcolor"`
	ProjectID        *string          `json:"projectID"`
	CustomerID       *string          `json:"customerID"`
	TechnicianIDs    []string         `json:"technicianIDs" validate:"dive,required"`
	Location         string           `json:"location"`
	Notes            string           `json:"notes"`
	RecurringPattern *string          `json:"recurringPattern"`
	Reminders        []ReminderForm   `json:"reminders" validate:"dive"`
	Attachments      []AttachmentForm `json:"attachments" validate:"dive"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ScheduleFilter 中的每个条件都是可选的，多个条件之间取交集
type ScheduleFilter struct {
	EventTypes    []EventType   `json:"eventTypes"`
	Statuses      []EventStatus `json:"statuses"`
	Priorities    []Priority    `json:"priorities"`
	ProjectID     *string       `json:"projectID"`
	CustomerID    *string       `json:"customerID"`
	TechnicianIDs []string      `json:"technicianIDs"`
	DateRange     *DateRange    `json:"dateRange"`
	Search        string        `json:"search"`
}
