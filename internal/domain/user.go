package domain

import (
	"time"
)

type Role string

const (
	RoleTechnician Role = "technician"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	TechnicianID *string   `json:"technicianID"` // 只有技术员账号会关联到技术员档案
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
