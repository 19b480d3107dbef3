package domain

import "slices"

type EventStatus string

const (
	StatusScheduled  EventStatus = "scheduled"
	StatusInProgress EventStatus = "in_progress"
	StatusCompleted  EventStatus = "completed"
	StatusCancelled  EventStatus = "cancelled"
)

var EventStatuses = []EventStatus{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}

func (s EventStatus) Valid() bool {
	return slices.Contains(EventStatuses, s)
}

// 状态迁移表，保持原状态总是允许的
var statusTransitions = map[EventStatus][]EventStatus{
	StatusScheduled:  {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusScheduled, StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusInProgress},
	StatusCancelled:  {StatusScheduled},
}

func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	return slices.Contains(statusTransitions[s], next)
}
