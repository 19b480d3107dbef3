// Package export 把事件列表序列化为日历文件、表格或 JSON
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

const productID = "-//Generator Field Service//Schedule Export//ZH"

func Supported(format domain.ExportFormat) bool {
	switch format {
	case domain.ExportICS, domain.ExportCSV, domain.ExportJSON:
		return true
	default:
		return false
	}
}

// Export 是纯函数，事件按传入顺序输出
func Export(events []*domain.ScheduleEvent, format domain.ExportFormat) (string, error) {
	switch format {
	case domain.ExportICS:
		return toICS(events), nil
	case domain.ExportCSV:
		return toCSV(events), nil
	case domain.ExportJSON:
		return toJSON(events)
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExportFormat, format)
	}
}

var icsStatus = map[domain.EventStatus]ics.ObjectStatus{
	domain.StatusScheduled:  ics.ObjectStatusConfirmed,
	domain.StatusInProgress: ics.ObjectStatusConfirmed,
	domain.StatusCompleted:  ics.ObjectStatusCompleted,
	domain.StatusCancelled:  ics.ObjectStatusCancelled,
}

// RFC 5545 中 1 最高，9 最低
var icsPriority = map[domain.Priority]int{
	domain.PriorityHigh:   1,
	domain.PriorityMedium: 5,
	domain.PriorityLow:    9,
}

// golang-ical 会转义 TEXT 属性中的反斜杠、分号、逗号和换行，但不处理回车
func icsText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func toICS(events []*domain.ScheduleEvent) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	for _, ev := range events {
		vevent := cal.AddEvent(ev.ID)
		vevent.SetDtStampTime(ev.UpdatedAt.UTC())
		vevent.SetStartAt(ev.StartTime.UTC())
		vevent.SetEndAt(ev.End().UTC())
		vevent.SetSummary(icsText(ev.Title))
		if ev.Description != "" {
			vevent.SetDescription(icsText(ev.Description))
		}
		if ev.Location != "" {
			vevent.SetLocation(icsText(ev.Location))
		}
		vevent.SetProperty(ics.ComponentPropertyCategories, string(ev.EventType))
		if status, ok := icsStatus[ev.Status]; ok {
			vevent.SetStatus(status)
		}
		if p, ok := icsPriority[ev.Priority]; ok {
			vevent.SetPriority(p)
		}
		if ev.RecurringPattern != nil && *ev.RecurringPattern != "" {
			vevent.SetProperty(ics.ComponentPropertyRrule, *ev.RecurringPattern)
		}
	}

	return cal.Serialize(ics.WithNewLineWindows)
}

var csvHeader = []string{"Title", "Description", "Start Time", "End Time", "Location", "Type", "Status", "Priority"}

// encoding/csv 只在必要时加引号，这里要求每个字段都加
func csvField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = csvField(f)
	}
	return strings.Join(quoted, ",")
}

func toCSV(events []*domain.ScheduleEvent) string {
	rows := make([]string, 0, len(events)+1)
	rows = append(rows, csvRow(csvHeader))

	for _, ev := range events {
		end := ""
		if ev.EndTime != nil {
			end = ev.EndTime.Format(time.RFC3339)
		}
		rows = append(rows, csvRow([]string{
			ev.Title,
			ev.Description,
			ev.StartTime.Format(time.RFC3339),
			end,
			ev.Location,
			string(ev.EventType),
			string(ev.Status),
			string(ev.Priority),
		}))
	}

	return strings.Join(rows, "\n")
}

func toJSON(events []*domain.ScheduleEvent) (string, error) {
	if events == nil {
		events = []*domain.ScheduleEvent{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
