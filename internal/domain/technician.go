package domain

import "time"

type Technician struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Skills    []string  `json:"skills"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type TechnicianSchedule struct {
	Technician       *Technician      `json:"technician"`
	Events           []*ScheduleEvent `json:"events"`
	TotalHours       float64          `json:"totalHours"`
	CurrentProjectID *string          `json:"currentProjectID"`
	Availability     []TimeSlot       `json:"availability"`
}
