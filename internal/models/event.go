package models

import "time"

// Event represents a single event owned by a user.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	UserID      int64     `json:"userId"`
}

// EventDraft holds in-progress form input for a create or edit interaction.
// Everything stays a string until the date is parsed during validation.
type EventDraft struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Location    string `validate:"required"`
	Date        string `validate:"required"`
}

// SortKey selects the event attribute to order by.
type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByTitle    SortKey = "title"
	SortByLocation SortKey = "location"
)

// SortOrder selects the direction of the ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortSpec describes how the event list should be ordered.
type SortSpec struct {
	Key   SortKey
	Order SortOrder
}

// DefaultSort is the ordering applied before the user picks one.
var DefaultSort = SortSpec{Key: SortByDate, Order: SortAsc}
