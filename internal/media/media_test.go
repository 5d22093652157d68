package media

import "testing"

func TestRatingKeys(t *testing.T) {
	if got := IMDbCode("tt1375666").RatingKey(); got != "rating_tt1375666" {
		t.Fatalf("unexpected imdb rating key %q", got)
	}
	ref := TMDBRef{ID: 27205, Kind: KindMovie}
	if got := ref.RatingKey(); got != "rating_movie_27205" {
		t.Fatalf("unexpected tmdb rating key %q", got)
	}
	if got := (TMDBRef{ID: 1399, Kind: KindTV}).String(); got != "tv/1399" {
		t.Fatalf("unexpected tmdb string %q", got)
	}
}

func TestParseIMDbCode(t *testing.T) {
	if _, err := ParseIMDbCode("tt1375666"); err != nil {
		t.Fatalf("expected valid code: %v", err)
	}
	for _, bad := range []string{"", "nm0000138", "tt12", "TT1375666"} {
		if _, err := ParseIMDbCode(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestParseKindsAcceptsConfigNames(t *testing.T) {
	kinds, err := ParseKinds([]string{"movies", "TV", "people"})
	if err != nil {
		t.Fatalf("ParseKinds returned error: %v", err)
	}
	if !kinds.Has(KindMovie) || !kinds.Has(KindTV) || !kinds.Has(KindPerson) {
		t.Fatalf("missing kinds: %v", kinds)
	}
	if kinds.Has(KindSeason) {
		t.Fatal("season should not be enabled")
	}
	if _, err := ParseKinds(nil); err == nil {
		t.Fatal("expected error for empty kinds")
	}
	if _, err := ParseKinds([]string{"podcasts"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestOrderedFollowsPriority(t *testing.T) {
	kinds := NewKinds(KindPerson, KindEpisode, KindMovie)
	got := kinds.Ordered()
	want := []Kind{KindMovie, KindEpisode, KindPerson}
	if len(got) != len(want) {
		t.Fatalf("unexpected order %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v want %v", i, got[i], want[i])
		}
	}
}
