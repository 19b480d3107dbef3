package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.scheduler.ListConflicts(r.Context())
	if err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取冲突列表成功", conflicts)
}

func (h *Handler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.ResolveConflict(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		h.scheduleError(w, r, err)
		return
	}

	h.successResponse(w, r, "冲突已标记为解决", nil)
}
