package tmdb

import (
	"strconv"

	"wikimdb/internal/media"
)

// PopularityDivisor scales person popularity onto a 0-10 range.
const PopularityDivisor = 10

// FormatRating renders the rating for kind with one decimal. People are
// rated by popularity / PopularityDivisor, everything else by vote average.
// A missing or zero value yields nil.
func FormatRating(kind media.Kind, voteAverage, popularity *float64) *string {
	value := voteAverage
	scale := 1.0
	if kind == media.KindPerson {
		value = popularity
		scale = PopularityDivisor
	}
	if value == nil || *value == 0 {
		return nil
	}
	s := strconv.FormatFloat(*value/scale, 'f', 1, 64)
	return &s
}
