package domain

import "time"

type ScheduleConflict struct {
	ID           string     `json:"id"`
	EventIDs     []string   `json:"eventIDs"`
	TechnicianID *string    `json:"technicianID"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"createdAt"`
	ResolvedAt   *time.Time `json:"resolvedAt"`
	ResolvedBy   *string    `json:"resolvedBy"`
}
