package domain

import (
	"fmt"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a shopper's rating of a product. User is loaded alongside for
// display and may be nil.
type Review struct {
	ID         string
	UserID     string
	ProductID  string
	Rating     int
	Title      string
	Comment    string
	IsVerified bool
	CreatedAt  time.Time
	User       *User
}

func (r Review) Validate() error {
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d, got %d", ErrInvalidInput, MinRating, MaxRating, r.Rating)
	}
	return nil
}

// ReviewSummary is the average rating and count shown with a product.
type ReviewSummary struct {
	Average float64
	Count   int
}

func Summarize(reviews []Review) ReviewSummary {
	if len(reviews) == 0 {
		return ReviewSummary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return ReviewSummary{Average: float64(total) / float64(len(reviews)), Count: len(reviews)}
}
