package rawg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_syncer/testdata/utils"
)

func validRecord() GameResult {
	return GameResult{
		ID:               3498,
		Slug:             "grand-theft-auto-v",
		Name:             "Grand Theft Auto V",
		Released:         "2013-09-17",
		BackgroundImage:  utils.Ptr("https://media.rawg.io/media/games/gta5.jpg"),
		Rating:           utils.Ptr(4.47),
		RatingTop:        utils.Ptr(5),
		RatingsCount:     utils.Ptr(6040),
		Metacritic:       utils.Ptr(91),
		Playtime:         utils.Ptr(73),
		SuggestionsCount: utils.Ptr(421),
	}
}

func TestMap_ValidRecord(t *testing.T) {
	game, rej := Map(validRecord())

	require.Nil(t, rej)
	require.NotNil(t, game.ExternalID)
	assert.Equal(t, int64(3498), *game.ExternalID)
	assert.Equal(t, "grand-theft-auto-v", game.Slug)
	assert.Equal(t, "Grand Theft Auto V", game.Name)
	require.NotNil(t, game.ReleasedDate)
	assert.Equal(t, time.Date(2013, time.September, 17, 0, 0, 0, 0, time.UTC), *game.ReleasedDate)
	require.NotNil(t, game.Metacritic)
	assert.Equal(t, 91, *game.Metacritic)
	assert.False(t, game.IsCustom)
}

func TestMap_SynthesizesPrice(t *testing.T) {
	// The upstream API carries no pricing; every mapped entry gets one.
	for i := 0; i < 100; i++ {
		game, rej := Map(validRecord())
		require.Nil(t, rej)
		assert.GreaterOrEqual(t, game.Price, minSyntheticPrice)
		assert.LessOrEqual(t, game.Price, maxSyntheticPrice)
	}
}

func TestMap_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GameResult)
		reason string
	}{
		{
			name:   "missing external id",
			mutate: func(r *GameResult) { r.ID = 0 },
			reason: "missing external id",
		},
		{
			name:   "missing slug",
			mutate: func(r *GameResult) { r.Slug = "" },
			reason: "missing slug",
		},
		{
			name:   "missing name",
			mutate: func(r *GameResult) { r.Name = "" },
			reason: "missing name",
		},
		{
			name:   "garbage date",
			mutate: func(r *GameResult) { r.Released = "17-09-2013" },
			reason: `unparseable release date "17-09-2013"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			_, rej := Map(rec)

			require.NotNil(t, rej)
			assert.Equal(t, tt.reason, rej.Reason)
		})
	}
}

func TestMap_BareYearDate(t *testing.T) {
	rec := validRecord()
	rec.Released = "1998"

	game, rej := Map(rec)

	require.Nil(t, rej)
	require.NotNil(t, game.ReleasedDate)
	assert.Equal(t, time.Date(1998, time.January, 1, 0, 0, 0, 0, time.UTC), *game.ReleasedDate)
}

func TestMap_MissingDateIsNotRejected(t *testing.T) {
	rec := validRecord()
	rec.Released = ""

	game, rej := Map(rec)

	require.Nil(t, rej)
	assert.Nil(t, game.ReleasedDate)
}

func TestMap_OptionalFieldsPassThroughAsNil(t *testing.T) {
	rec := GameResult{ID: 1, Slug: "minimal", Name: "Minimal"}

	game, rej := Map(rec)

	require.Nil(t, rej)
	assert.Nil(t, game.BackgroundImage)
	assert.Nil(t, game.Rating)
	assert.Nil(t, game.RatingTop)
	assert.Nil(t, game.RatingsCount)
	assert.Nil(t, game.Metacritic)
	assert.Nil(t, game.Playtime)
	assert.Nil(t, game.SuggestionsCount)
}

func TestMapAll_PartitionsRejections(t *testing.T) {
	broken := validRecord()
	broken.Slug = ""

	entries, rejected := MapAll([]GameResult{validRecord(), broken, validRecord()})

	assert.Len(t, entries, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, int64(3498), rejected[0].ExternalID)
}
