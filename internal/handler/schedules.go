package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetProjectSchedule(w http.ResponseWriter, r *http.Request) {
	ps, err := h.scheduler.GetProjectSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取项目排程成功", ps)
}

func (h *Handler) GetTechnicianSchedule(w http.ResponseWriter, r *http.Request) {
	ts, err := h.scheduler.GetTechnicianSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取技术员排程成功", ts)
}
