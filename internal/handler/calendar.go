package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

func (h *Handler) GetCalendarView(w http.ResponseWriter, r *http.Request) {
	viewType := domain.ViewType(r.URL.Query().Get("view"))
	if viewType == "" {
		viewType = domain.ViewWeek
	}

	anchor := time.Now().In(h.location)
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, h.location)
	if v := r.URL.Query().Get("date"); v != "" {
		t, err := h.parseTime(v)
		if err != nil {
			h.errorResponse(w, r, "无效的日期")
			return
		}
		anchor = t
	}

	view, err := h.scheduler.GetCalendarView(r.Context(), viewType, anchor)
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取日历成功", view)
}

func (h *Handler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := time.ParseInLocation(time.DateOnly, q.Get("date"), h.location)
	if err != nil {
		h.errorResponse(w, r, "无效的日期")
		return
	}

	// 时长以分钟为单位，为空时使用默认时长
	var duration time.Duration
	if v := q.Get("duration"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			h.errorResponse(w, r, "无效的时长")
			return
		}
		duration = time.Duration(minutes) * time.Minute
	}

	slots, err := h.scheduler.GetAvailableSlots(r.Context(), date, splitList(q.Get("technicianIDs")), duration)
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取空闲时段成功", slots)
}

var exportContentTypes = map[domain.ExportFormat]string{
	domain.ExportICS:  "text/calendar; charset=utf-8",
	domain.ExportCSV:  "text/csv; charset=utf-8",
	domain.ExportJSON: "application/json",
}

func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	format := domain.ExportFormat(r.URL.Query().Get("format"))
	contentType, ok := exportContentTypes[format]
	if !ok {
		h.errorResponse(w, r, domain.ErrUnsupportedExportFormat.Error())
		return
	}

	filter, err := h.parseFilter(r.URL.Query())
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	content, err := h.scheduler.ExportCalendar(r.Context(), filter, format)
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.writeAttachment(w, r, contentType, "schedule."+string(format), content)
}
