package media

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a resolved title.
type Kind int

const (
	KindUnknown Kind = iota
	KindMovie
	KindTV
	KindSeason
	KindEpisode
	KindPerson
)

// PriorityOrder is the fixed tie-break used when one external id matches
// several kinds: only the earliest enabled kind is surfaced.
var PriorityOrder = []Kind{KindMovie, KindTV, KindSeason, KindEpisode, KindPerson}

func (k Kind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindTV:
		return "tv"
	case KindSeason:
		return "season"
	case KindEpisode:
		return "episode"
	case KindPerson:
		return "person"
	default:
		return "unknown"
	}
}

// ParseKind accepts singular kind names and the plural forms used in config.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "movies":
		return KindMovie, nil
	case "tv", "show", "shows":
		return KindTV, nil
	case "season", "seasons":
		return KindSeason, nil
	case "episode", "episodes":
		return KindEpisode, nil
	case "person", "people":
		return KindPerson, nil
	default:
		return KindUnknown, fmt.Errorf("unknown media kind %q", value)
	}
}

// Kinds is the set of media kinds a caller wants rated.
type Kinds map[Kind]struct{}

// NewKinds builds a set from the given kinds.
func NewKinds(kinds ...Kind) Kinds {
	set := make(Kinds, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// ParseKinds parses config names into a set. An empty list is an error.
func ParseKinds(names []string) (Kinds, error) {
	set := make(Kinds, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		set[k] = struct{}{}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("at least one media kind must be enabled")
	}
	return set, nil
}

// Has reports whether k is enabled.
func (s Kinds) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// Ordered returns the enabled kinds in priority order.
func (s Kinds) Ordered() []Kind {
	out := make([]Kind, 0, len(s))
	for _, k := range PriorityOrder {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s Kinds) String() string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
