// Package blacklist rejects subjects that can never carry a rating (lists,
// namespaces, years, disambiguation pages) before any cache or network work.
package blacklist

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"wikimdb/internal/logging"
	"wikimdb/internal/subject"
)

//go:embed blacklist.json
var bundled []byte

type document struct {
	Patterns []string `json:"patterns"`
}

// Filter holds the compiled exclusion rules. The zero value excludes nothing.
type Filter struct {
	rules   []*regexp.Regexp
	sources []string
}

// Load reads patterns from path, or the bundled list when path is empty.
// Failures never abort the run: an unreadable document yields an empty filter
// and patterns that do not compile are skipped, each with a warning.
func Load(path string, logger *slog.Logger) *Filter {
	logger = logging.NewComponentLogger(logger, "blacklist")

	data := bundled
	source := "bundled"
	if path = strings.TrimSpace(path); path != "" {
		source = path
		raw, err := os.ReadFile(path)
		if err != nil {
			logging.WarnWithContext(logger, "blacklist unavailable", "blacklist_load_failed",
				logging.String("source", source),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check blacklist.path in config"),
				logging.String(logging.FieldImpact, "no subjects will be filtered"))
			return &Filter{}
		}
		data = raw
	}

	filter, err := Parse(data, logger)
	if err != nil {
		logging.WarnWithContext(logger, "blacklist unavailable", "blacklist_parse_failed",
			logging.String("source", source),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, `expected {"patterns": [...]}`),
			logging.String(logging.FieldImpact, "no subjects will be filtered"))
		return &Filter{}
	}

	logger.Debug("blacklist loaded",
		logging.String("source", source),
		logging.Int("pattern_count", filter.Len()))
	return filter
}

// Parse compiles a {"patterns": [...]} document. Every pattern matches
// case-insensitively.
func Parse(data []byte, logger *slog.Logger) (*Filter, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse blacklist: %w", err)
	}

	filter := &Filter{}
	for _, pattern := range doc.Patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			logging.WarnWithContext(logger, "skipping invalid blacklist pattern", "blacklist_pattern_invalid",
				logging.String("pattern", pattern),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "patterns use RE2 syntax"),
				logging.String(logging.FieldImpact, "subjects matching this pattern will be resolved"))
			continue
		}
		filter.rules = append(filter.rules, re)
		filter.sources = append(filter.sources, pattern)
	}
	return filter, nil
}

// IsExcluded reports whether any rule matches subj. Underscores are read as
// spaces so href-derived and display titles match alike.
func (f *Filter) IsExcluded(subj subject.Subject) bool {
	if f == nil || len(f.rules) == 0 {
		return false
	}
	title := strings.ReplaceAll(string(subj), "_", " ")
	for _, re := range f.rules {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// Match returns the first pattern that excludes subj.
func (f *Filter) Match(subj subject.Subject) (string, bool) {
	if f == nil {
		return "", false
	}
	title := strings.ReplaceAll(string(subj), "_", " ")
	for i, re := range f.rules {
		if re.MatchString(title) {
			return f.sources[i], true
		}
	}
	return "", false
}

// Len returns the number of compiled rules.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rules)
}

// Patterns returns the source text of each compiled rule.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.sources...)
}
