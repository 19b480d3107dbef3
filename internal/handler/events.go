package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/utils"
)

// scheduleError 把引擎返回的错误转换成响应，未知错误一律视为服务器内部错误
func (h *Handler) scheduleError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.errorResponse(w, r, "记录不存在")
	case errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrInvalidRecurrence),
		errors.Is(err, domain.ErrInvalidViewType),
		errors.Is(err, domain.ErrUnsupportedExportFormat),
		errors.Is(err, domain.ErrActorRequired):
		h.errorResponse(w, r, err.Error())
	case errors.As(err, &pgErr):
		switch pgErr.ConstraintName {
		case "schedule_events_project_id_fkey":
			h.errorResponse(w, r, "关联的项目不存在")
		case "schedule_events_time_range_check":
			h.errorResponse(w, r, domain.ErrInvalidTimeRange.Error())
		default:
			h.internalServerError(w, r, err)
		}
	default:
		h.internalServerError(w, r, err)
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	res := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}

type enum interface {
	~string
	Valid() bool
}

func parseEnumList[T enum](v string, name string) ([]T, error) {
	res := []T{}
	for _, item := range splitList(v) {
		e := T(item)
		if !e.Valid() {
			return nil, fmt.Errorf("无效的%s: %s", name, item)
		}
		res = append(res, e)
	}
	return res, nil
}

// parseTime 接受 RFC3339 时间或者按服务时区解释的日期
func (h *Handler) parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, v, h.location)
}

func (h *Handler) parseFilter(q url.Values) (domain.ScheduleFilter, error) {
	var (
		filter domain.ScheduleFilter
		err    error
	)

	if filter.EventTypes, err = parseEnumList[domain.EventType](q.Get("types"), "事件类型"); err != nil {
		return filter, err
	}
	if filter.Statuses, err = parseEnumList[domain.EventStatus](q.Get("statuses"), "事件状态"); err != nil {
		return filter, err
	}
	if filter.Priorities, err = parseEnumList[domain.Priority](q.Get("priorities"), "优先级"); err != nil {
		return filter, err
	}
	if v := q.Get("projectID"); v != "" {
		filter.ProjectID = &v
	}
	if v := q.Get("customerID"); v != "" {
		filter.CustomerID = &v
	}
	filter.TechnicianIDs = splitList(q.Get("technicianIDs"))
	filter.Search = q.Get("search")

	start, end := q.Get("start"), q.Get("end")
	switch {
	case start == "" && end == "":
	case start == "" || end == "":
		return filter, errors.New("start 和 end 必须同时提供")
	default:
		rangeStart, err := h.parseTime(start)
		if err != nil {
			return filter, fmt.Errorf("无效的开始时间: %s", start)
		}
		rangeEnd, err := h.parseTime(end)
		if err != nil {
			return filter, fmt.Errorf("无效的结束时间: %s", end)
		}
		filter.DateRange = &domain.DateRange{Start: rangeStart, End: rangeEnd}
	}

	return filter, nil
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r.URL.Query())
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	events, err := h.scheduler.ListEvents(r.Context(), filter)
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取事件列表成功", events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.scheduler.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取事件成功", ev)
}

func (h *Handler) readScheduleForm(w http.ResponseWriter, r *http.Request) (*domain.ScheduleFormData, bool) {
	form := &domain.ScheduleFormData{}
	if err := h.readJSON(r, form); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	if err := h.validate.Struct(form); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	if err := utils.ValidateScheduleForm(form); err != nil {
		h.errorResponse(w, r, err.Error())
		return nil, false
	}
	if form.TechnicianIDs == nil {
		form.TechnicianIDs = []string{}
	}
	return form, true
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readScheduleForm(w, r)
	if !ok {
		return
	}

	id, err := h.scheduler.SaveEvent(r.Context(), actor(r), "", form)
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	ev, err := h.scheduler.GetEvent(r.Context(), id)
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建事件成功", ev)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readScheduleForm(w, r)
	if !ok {
		return
	}

	id, err := h.scheduler.SaveEvent(r.Context(), actor(r), chi.URLParam(r, "id"), form)
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	ev, err := h.scheduler.GetEvent(r.Context(), id)
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新事件成功", ev)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.DeleteEvent(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除事件成功", nil)
}

func (h *Handler) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.EventStatus `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.scheduler.UpdateStatus(r.Context(), actor(r), chi.URLParam(r, "id"), req.Status); err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新事件状态成功", nil)
}
