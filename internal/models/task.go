package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is a state of the task lifecycle.
type TaskStatus string

// Task lifecycle states.
const (
	TaskStatusOpen      TaskStatus = "OPEN"
	TaskStatusScheduled TaskStatus = "SCHEDULED"
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusFinished  TaskStatus = "FINISHED"
	TaskStatusClosed    TaskStatus = "CLOSED"
)

// TaskStatuses lists every known status in lifecycle order.
var TaskStatuses = []TaskStatus{
	TaskStatusOpen,
	TaskStatusScheduled,
	TaskStatusPending,
	TaskStatusFinished,
	TaskStatusClosed,
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Assigned reports whether a task in this status carries a fulfiller.
func (s TaskStatus) Assigned() bool {
	return s == TaskStatusScheduled || s == TaskStatusPending || s == TaskStatusFinished
}

// Terminal reports whether no further transitions leave s.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusFinished || s == TaskStatusClosed
}

// ParseTaskStatus accepts a status name in any case.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown task status %q", ErrValidation, raw)
	}
	return s, nil
}

// Task is a geolocated service request posted by a client.
type Task struct {
	ID          string     `json:"id"`
	RequestorID string     `json:"requestorId"`
	FulfillerID *string    `json:"fulfillerId"`
	Longitude   float64    `json:"longitude"`
	Latitude    float64    `json:"latitude"`
	Category    string     `json:"category"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsFulfiller reports whether personID is the task's assigned fulfiller.
func (t Task) IsFulfiller(personID string) bool {
	return t.FulfillerID != nil && *t.FulfillerID == personID
}

// TaskStatusEvent is one entry of a task's status history. From is nil for creation.
type TaskStatusEvent struct {
	ID        string      `json:"id"`
	TaskID    string      `json:"taskId"`
	From      *TaskStatus `json:"from"`
	To        TaskStatus  `json:"to"`
	ActorID   string      `json:"actorId"`
	CreatedAt time.Time   `json:"createdAt"`
}
