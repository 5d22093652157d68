// Package provider tracks which rating backends are still usable in a run.
package provider

import (
	"fmt"
	"sync/atomic"
)

// Name identifies a rating backend.
type Name string

const (
	OMDb Name = "omdb"
	TMDB Name = "tmdb"
)

// ParseName maps a configured provider name to a Name.
func ParseName(value string) (Name, error) {
	switch Name(value) {
	case OMDb, TMDB:
		return Name(value), nil
	default:
		return "", fmt.Errorf("unknown provider %q", value)
	}
}

// State holds one blocked flag per backend. Each flag moves from false to
// true at most once per run and is never reset.
type State struct {
	omdb atomic.Bool
	tmdb atomic.Bool
}

// Blocked reports whether name has been blocked.
func (s *State) Blocked(name Name) bool {
	if flag := s.flag(name); flag != nil {
		return flag.Load()
	}
	return false
}

// Block sets the flag for name and reports whether this call flipped it.
func (s *State) Block(name Name) bool {
	if flag := s.flag(name); flag != nil {
		return flag.CompareAndSwap(false, true)
	}
	return false
}

// Snapshot returns the current flags.
func (s *State) Snapshot() map[Name]bool {
	return map[Name]bool{
		OMDb: s.omdb.Load(),
		TMDB: s.tmdb.Load(),
	}
}

func (s *State) flag(name Name) *atomic.Bool {
	switch name {
	case OMDb:
		return &s.omdb
	case TMDB:
		return &s.tmdb
	default:
		return nil
	}
}
