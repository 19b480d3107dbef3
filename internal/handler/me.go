package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type myInfoResponse struct {
	*domain.User
	Technician *domain.Technician `json:"technician"`
}

// GetMyInfo 对技术员账号附带其技术员档案
func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	resp := myInfoResponse{User: myInfo}
	if myInfo.TechnicianID != nil {
		technician, err := h.repository.GetTechnician(r.Context(), *myInfo.TechnicianID)
		switch {
		case err == nil:
			resp.Technician = technician
		case errors.Is(err, domain.ErrNotFound):
			// 档案已被删除，只返回账号信息
		default:
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "获取个人信息成功", resp)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(myInfo.PasswordHash), []byte(req.OldPassword)); err != nil {
		h.errorResponse(w, r, "旧密码错误")
		return
	}
	if req.OldPassword == req.NewPassword {
		h.errorResponse(w, r, "新密码不能与旧密码相同")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	myInfo.PasswordHash = string(hashedPassword)

	if err := h.repository.UpdateUser(r.Context(), myInfo); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(w, r, "更新密码失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新密码成功", nil)
}
