package domain

import "time"

// Game is the local, normalized representation of one catalog entry.
// Entries sourced from the external catalog carry a non-nil ExternalID;
// admin-created entries leave it nil and set IsCustom.
type Game struct {
	ID               int64
	ExternalID       *int64
	Slug             string
	Name             string
	ReleasedDate     *time.Time
	BackgroundImage  *string
	Rating           *float64
	RatingTop        *int
	RatingsCount     *int
	Metacritic       *int
	Playtime         *int
	SuggestionsCount *int
	Price            float64
	IsCustom         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Rejection describes one upstream record that could not be mapped into a
// Game. It never aborts the page it came from.
type Rejection struct {
	ExternalID int64
	Slug       string
	Reason     string
}

// PageResult is one fetched and mapped page of the external catalog.
type PageResult struct {
	Entries  []Game
	Rejected []Rejection
	HasNext  bool
}
