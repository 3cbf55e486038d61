package rawg

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"catalog_syncer/internal/domain"
)

const (
	minSyntheticPrice = 5.00
	maxSyntheticPrice = 70.00
)

// Map converts one raw upstream record into a Game, or a Rejection when the
// record is missing its identifier, slug or name, or carries an unparseable
// release date. A rejection never aborts the page it came from.
func Map(rec GameResult) (domain.Game, *domain.Rejection) {
	if rec.ID == 0 {
		return domain.Game{}, &domain.Rejection{Slug: rec.Slug, Reason: "missing external id"}
	}
	if rec.Slug == "" {
		return domain.Game{}, &domain.Rejection{ExternalID: rec.ID, Reason: "missing slug"}
	}
	if rec.Name == "" {
		return domain.Game{}, &domain.Rejection{ExternalID: rec.ID, Slug: rec.Slug, Reason: "missing name"}
	}

	var released *time.Time
	if rec.Released != "" {
		t, err := parseReleased(rec.Released)
		if err != nil {
			return domain.Game{}, &domain.Rejection{
				ExternalID: rec.ID,
				Slug:       rec.Slug,
				Reason:     fmt.Sprintf("unparseable release date %q", rec.Released),
			}
		}
		released = &t
	}

	externalID := rec.ID
	return domain.Game{
		ExternalID:       &externalID,
		Slug:             rec.Slug,
		Name:             rec.Name,
		ReleasedDate:     released,
		BackgroundImage:  rec.BackgroundImage,
		Rating:           rec.Rating,
		RatingTop:        rec.RatingTop,
		RatingsCount:     rec.RatingsCount,
		Metacritic:       rec.Metacritic,
		Playtime:         rec.Playtime,
		SuggestionsCount: rec.SuggestionsCount,
		Price:            syntheticPrice(),
		IsCustom:         false,
	}, nil
}

// MapAll maps a page of raw records, partitioning them into mapped entries
// and rejections.
func MapAll(recs []GameResult) ([]domain.Game, []domain.Rejection) {
	entries := make([]domain.Game, 0, len(recs))
	var rejected []domain.Rejection

	for _, rec := range recs {
		game, rej := Map(rec)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		entries = append(entries, game)
	}

	return entries, rejected
}

// parseReleased accepts a full YYYY-MM-DD date or a bare 4-digit year,
// which maps to January 1st of that year.
func parseReleased(s string) (time.Time, error) {
	if len(s) == 4 {
		year, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse year %q: %w", s, err)
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", s)
}

// syntheticPrice fills the pricing gap in the upstream data: RAWG carries no
// prices, so externally-sourced entries get one assigned at creation time.
func syntheticPrice() float64 {
	price := minSyntheticPrice + rand.Float64()*(maxSyntheticPrice-minSyntheticPrice)
	return math.Round(price*100) / 100
}
