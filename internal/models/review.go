package models

import "time"

// ReviewKind tells which side of a finished task wrote the review.
type ReviewKind string

const (
	// ReviewKindTask is written by the requestor about the fulfiller.
	ReviewKindTask ReviewKind = "TASK"
	// ReviewKindClient is written by the fulfiller about the requestor.
	ReviewKindClient ReviewKind = "CLIENT"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is an immutable rating left after a task finished.
type Review struct {
	ID            string     `json:"id"`
	Kind          ReviewKind `json:"kind"`
	TaskID        string     `json:"taskId"`
	RaterID       string     `json:"raterId"`
	RatedPersonID string     `json:"ratedPersonId"`
	Rating        int        `json:"rating"`
	CreatedAt     time.Time  `json:"createdAt"`
}
