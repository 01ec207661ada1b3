package models

import "time"

// MaxCommentLength bounds the commentary in characters.
const MaxCommentLength = 2000

type Comment struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	PersonID   string    `json:"personId"`
	Commentary string    `json:"commentary"`
	CreatedAt  time.Time `json:"createdAt"`
}
