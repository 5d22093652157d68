package media

import (
	"fmt"
	"regexp"
	"strconv"
)

// ExternalID is the provider-specific key a subject maps to. It has exactly
// two cases: IMDbCode and TMDBRef.
type ExternalID interface {
	// RatingKey is the cache key under which the id's rating is memoised.
	RatingKey() string
	String() string
	externalID()
}

var imdbCodePattern = regexp.MustCompile(`^tt\d{7,}$`)

// IMDbCode is a bare IMDb title code such as "tt1375666".
type IMDbCode string

// ParseIMDbCode validates code.
func ParseIMDbCode(code string) (IMDbCode, error) {
	if !imdbCodePattern.MatchString(code) {
		return "", fmt.Errorf("invalid imdb code %q", code)
	}
	return IMDbCode(code), nil
}

func (c IMDbCode) RatingKey() string { return "rating_" + string(c) }

func (c IMDbCode) String() string { return string(c) }

func (IMDbCode) externalID() {}

// TMDBRef identifies a TMDB resource. Rating is set when the lookup that
// produced the ref already carried a rating.
type TMDBRef struct {
	ID     int64
	Kind   Kind
	Rating *string
}

func (r TMDBRef) RatingKey() string {
	return "rating_" + r.Kind.String() + "_" + strconv.FormatInt(r.ID, 10)
}

func (r TMDBRef) String() string {
	return r.Kind.String() + "/" + strconv.FormatInt(r.ID, 10)
}

func (TMDBRef) externalID() {}
