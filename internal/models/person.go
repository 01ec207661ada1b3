package models

import (
	"math"
	"time"
)

// Person is a registered account. IsClient=true marks a requestor, false a fulfiller.
type Person struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsClient     bool      `json:"isClient"`
	Rating       *float64  `json:"rating"`
	RatingCount  int       `json:"ratingCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicPerson is the view of a person exposed to other callers.
type PublicPerson struct {
	ID            string   `json:"id"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	IsClient      bool     `json:"isClient"`
	Rating        *float64 `json:"rating"`
	RatingDisplay *int     `json:"ratingDisplay"`
	RatingCount   int      `json:"ratingCount"`
}

// Public strips private fields.
func (p Person) Public() PublicPerson {
	return PublicPerson{
		ID:            p.ID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		IsClient:      p.IsClient,
		Rating:        p.Rating,
		RatingDisplay: DisplayRating(p.Rating),
		RatingCount:   p.RatingCount,
	}
}

// DisplayRating rounds a mean rating to the nearest integer, or nil when unrated.
func DisplayRating(mean *float64) *int {
	if mean == nil {
		return nil
	}
	v := int(math.Round(*mean))
	return &v
}
