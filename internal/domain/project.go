package domain

import "time"

type Project struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	CustomerID           *string   `json:"customerID"`
	CompletionPercentage float64   `json:"completionPercentage"`
	CreatedAt            time.Time `json:"createdAt"`
}

type Milestone struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectID"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"dueDate"`
	Completed bool      `json:"completed"`
}

type ProjectSchedule struct {
	Project              *Project         `json:"project"`
	Events               []*ScheduleEvent `json:"events"`
	Milestones           []*Milestone     `json:"milestones"`
	TotalHours           float64          `json:"totalHours"`
	CompletionPercentage float64          `json:"completionPercentage"`
}
