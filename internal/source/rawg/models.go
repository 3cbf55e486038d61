package rawg

// APIResponse represents the RAWG games list response structure.
type APIResponse struct {
	Count    int          `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []GameResult `json:"results"`
}

// GameResult is one game entry in its raw upstream field-name form.
type GameResult struct {
	ID               int64    `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	Released         string   `json:"released"`
	TBA              bool     `json:"tba"`
	BackgroundImage  *string  `json:"background_image"`
	Rating           *float64 `json:"rating"`
	RatingTop        *int     `json:"rating_top"`
	RatingsCount     *int     `json:"ratings_count"`
	Metacritic       *int     `json:"metacritic"`
	Playtime         *int     `json:"playtime"`
	SuggestionsCount *int     `json:"suggestions_count"`
}
