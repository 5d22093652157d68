package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"wikimdb/internal/logging"
	"wikimdb/internal/media"
	"wikimdb/internal/subject"
)

// IDField names the member of a subject record that holds the external id.
// Each provider owns one field, so switching providers never reuses the
// other provider's ids.
type IDField string

const (
	FieldIMDb IDField = "tt"
	FieldTMDB IDField = "tmdbId"
)

type tmdbRecord struct {
	ID     int64   `json:"id"`
	Type   string  `json:"type"`
	Rating *string `json:"rating"`
}

// LookupID returns the id cached for subj under field. found with a nil id
// is a negative entry.
func (s *Store) LookupID(subj subject.Subject, field IDField) (media.ExternalID, bool) {
	raw, ok := s.Get(string(subj))
	if !ok {
		return nil, false
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(raw, &record); err != nil {
		s.logger.Debug("ignoring unreadable subject record",
			logging.String(logging.FieldSubject, string(subj)),
			logging.Error(err))
		return nil, false
	}
	value, ok := record[string(field)]
	if !ok {
		return nil, false
	}
	if isNull(value) {
		return nil, true
	}

	id, err := decodeID(field, value)
	if err != nil {
		s.logger.Debug("ignoring unreadable subject record",
			logging.String(logging.FieldSubject, string(subj)),
			logging.Error(err))
		return nil, false
	}
	return id, true
}

// StoreID records id for subj under field, keeping the record's other
// fields. A nil id stores the negative marker for field but never replaces
// an id already cached there.
func (s *Store) StoreID(ctx context.Context, subj subject.Subject, field IDField, id media.ExternalID) error {
	var value any
	switch v := id.(type) {
	case nil:
	case media.IMDbCode:
		value = string(v)
	case media.TMDBRef:
		value = tmdbRecord{ID: v.ID, Type: v.Kind.String(), Rating: v.Rating}
	default:
		return fmt.Errorf("unsupported external id %T", id)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s id: %w", field, err)
	}

	return s.update(ctx, string(subj), func(existing json.RawMessage) (json.RawMessage, error) {
		record := make(map[string]json.RawMessage)
		if existing != nil {
			if err := json.Unmarshal(existing, &record); err != nil || record == nil {
				record = make(map[string]json.RawMessage)
			}
		}
		if prev, ok := record[string(field)]; ok && id == nil && !isNull(prev) {
			return nil, nil
		}
		record[string(field)] = encoded
		return json.Marshal(record)
	})
}

// LookupRating returns the rating memoised under key. found with a nil
// rating means the id is known to have none.
func (s *Store) LookupRating(key string) (*string, bool) {
	raw, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	if isNull(raw) {
		return nil, true
	}
	var rating string
	if err := json.Unmarshal(raw, &rating); err != nil {
		return nil, false
	}
	return &rating, true
}

// StoreRating memoises rating under key; nil stores null.
func (s *Store) StoreRating(ctx context.Context, key string, rating *string) error {
	return s.Set(ctx, key, rating)
}

func decodeID(field IDField, value json.RawMessage) (media.ExternalID, error) {
	switch field {
	case FieldIMDb:
		var code string
		if err := json.Unmarshal(value, &code); err != nil {
			return nil, fmt.Errorf("decode imdb code: %w", err)
		}
		return media.ParseIMDbCode(code)
	case FieldTMDB:
		var rec tmdbRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil, fmt.Errorf("decode tmdb record: %w", err)
		}
		kind, err := media.ParseKind(rec.Type)
		if err != nil {
			return nil, err
		}
		if rec.ID <= 0 {
			return nil, fmt.Errorf("invalid tmdb id %d", rec.ID)
		}
		return media.TMDBRef{ID: rec.ID, Kind: kind, Rating: rec.Rating}, nil
	default:
		return nil, fmt.Errorf("unknown id field %q", field)
	}
}

// isNegativeRecord reports whether a subject record holds only null ids.
func isNegativeRecord(raw json.RawMessage) bool {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(raw, &record); err != nil || len(record) == 0 {
		return false
	}
	for _, value := range record {
		if !isNull(value) {
			return false
		}
	}
	return true
}
