package pipeline

import (
	"context"
	"errors"
	"sync"

	"wikimdb/internal/identify"
	"wikimdb/internal/logging"
	"wikimdb/internal/media"
	"wikimdb/internal/rating"
	"wikimdb/internal/scheduler"
	"wikimdb/internal/subject"
)

// State is where a subject's resolution ended.
type State int

const (
	StateUnvisited State = iota
	StateBlacklisted
	StateCacheHit
	StateResolvingID
	StateIDFound
	StateIDNotFound
	StateResolvingRating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateBlacklisted:
		return "blacklisted"
	case StateCacheHit:
		return "cache-hit"
	case StateResolvingID:
		return "resolving-id"
	case StateIDFound:
		return "id-found"
	case StateIDNotFound:
		return "id-not-found"
	case StateResolvingRating:
		return "resolving-rating"
	case StateDone:
		return "done"
	default:
		return "unvisited"
	}
}

// Outcome describes how one subject resolved.
type Outcome struct {
	Subject subject.Subject
	State   State
	// IDFound distinguishes Done after Id-Found from Done after Id-NotFound.
	IDFound    bool
	ExternalID media.ExternalID
	Rating     *string
	// Cached is true when no network call was needed.
	Cached bool
	// Reason is a short diagnostic for nil ratings.
	Reason string
}

type resolution struct {
	done    chan struct{}
	outcome Outcome
}

// Resolve returns the rating for subj, or nil. It never fails: every error
// path is logged and yields nil.
func (r *Run) Resolve(ctx context.Context, subj subject.Subject) *string {
	return r.Outcome(ctx, subj).Rating
}

// Outcome resolves subj once per run. Concurrent and later callers for the
// same subject share the first resolution's result, which runs detached from
// the first caller's cancellation.
func (r *Run) Outcome(ctx context.Context, subj subject.Subject) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	r.mu.Lock()
	if res, ok := r.inflight[subj]; ok {
		r.mu.Unlock()
		<-res.done
		return res.outcome
	}
	res := &resolution{done: make(chan struct{})}
	r.inflight[subj] = res
	r.mu.Unlock()

	res.outcome = r.resolve(context.WithoutCancel(ctx), subj)
	close(res.done)
	return res.outcome
}

// ResolveAll resolves current first, then every other subject, and returns
// a rating (or nil) per subject. Subjects equal to current are not
// resolved twice.
func (r *Run) ResolveAll(ctx context.Context, current subject.Subject, subjects []subject.Subject) map[subject.Subject]*string {
	outcomes := r.ResolveOutcomes(ctx, current, subjects)
	results := make(map[subject.Subject]*string, len(outcomes))
	for _, outcome := range outcomes {
		results[outcome.Subject] = outcome.Rating
	}
	return results
}

// ResolveOutcomes is ResolveAll with full outcomes, current page first and
// the rest in first-seen order.
func (r *Run) ResolveOutcomes(ctx context.Context, current subject.Subject, subjects []subject.Subject) []Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	order := make([]subject.Subject, 0, len(subjects)+1)
	seen := make(map[subject.Subject]struct{}, len(subjects)+1)
	if current != "" {
		order = append(order, current)
		seen[current] = struct{}{}
	}
	for _, subj := range subjects {
		if subj == "" {
			continue
		}
		if _, dup := seen[subj]; dup {
			continue
		}
		seen[subj] = struct{}{}
		order = append(order, subj)
	}

	outcomes := make([]Outcome, len(order))
	var wg sync.WaitGroup
	start := 0

	if current != "" {
		// The current page's first request must enter the scheduler's
		// backlog before any link subject's does.
		admitted := make(chan struct{})
		var once sync.Once
		signal := func() { once.Do(func() { close(admitted) }) }

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer signal()
			outcomes[0] = r.Outcome(scheduler.WithAdmitHook(ctx, signal), current)
		}()
		<-admitted
		start = 1
	}

	for i := start; i < len(order); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = r.Outcome(ctx, order[i])
		}(i)
	}
	wg.Wait()

	r.Logger.Debug("batch resolved",
		logging.Int("subject_count", len(order)),
		logging.Int("rated", countRated(outcomes)))
	return outcomes
}

func (r *Run) resolve(ctx context.Context, subj subject.Subject) Outcome {
	out := Outcome{Subject: subj, State: StateUnvisited}
	ctx = logging.WithSubject(ctx, string(subj))
	logger := logging.WithContext(ctx, r.Logger)

	if r.Blacklist.IsExcluded(subj) {
		out.State = StateBlacklisted
		out.Cached = true
		out.Reason = "blacklisted"
		logger.Debug("subject blacklisted")
		return out
	}

	id, found := r.Cache.LookupID(subj, r.idField)
	if found && id == nil {
		out.State = StateCacheHit
		out.Cached = true
		out.Reason = "cached: no match"
		return out
	}
	if found {
		out.IDFound = true
		out.ExternalID = id
		if cached, ok := r.Cache.LookupRating(id.RatingKey()); ok {
			out.State = StateCacheHit
			out.Cached = true
			out.Rating = cached
			if cached == nil {
				out.Reason = "cached: no rating"
			}
			return out
		}
		return r.resolveRating(ctx, out, true)
	}

	out.State = StateResolvingID
	id, err := r.strategy.Resolve(ctx, subj)
	switch {
	case err == nil:
		out.State = StateIDFound
		out.IDFound = true
		out.ExternalID = id
		if err := r.Cache.StoreID(ctx, subj, r.idField, id); err != nil {
			r.warnCacheWrite(subj, err)
		}
		return r.resolveRating(ctx, out, false)
	case errors.Is(err, identify.ErrNoMatch):
		out.State = StateDone
		out.Reason = "no match"
		if err := r.Cache.StoreID(ctx, subj, r.idField, nil); err != nil {
			r.warnCacheWrite(subj, err)
		}
		logger.Debug("no external id")
		return out
	case errors.Is(err, identify.ErrProviderBlocked):
		out.State = StateDone
		out.Reason = "provider blocked"
		return out
	default:
		out.State = StateDone
		out.Reason = "lookup failed"
		logging.WarnWithContext(logger, "identifier lookup failed", "identify_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "transient; the subject is retried next run"))
		return out
	}
}

func (r *Run) resolveRating(ctx context.Context, out Outcome, idCached bool) Outcome {
	logger := logging.WithContext(ctx, r.Logger)
	out.State = StateResolvingRating

	value, err := r.ratings.Resolve(ctx, out.ExternalID)
	out.State = StateDone
	out.Rating = value
	switch {
	case err == nil:
		if value == nil {
			out.Reason = "no rating"
		}
		// A ref that carried its rating needs no call of its own.
		if ref, ok := out.ExternalID.(media.TMDBRef); ok && ref.Rating != nil {
			out.Cached = idCached
		}
	case errors.Is(err, rating.ErrProviderBlocked):
		out.Reason = "provider blocked"
	default:
		out.Reason = "rating lookup failed"
		logging.WarnWithContext(logger, "rating lookup failed", "rating_failed",
			logging.String("external_id", out.ExternalID.String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "transient; the rating is retried next run"))
	}
	return out
}

func (r *Run) warnCacheWrite(subj subject.Subject, err error) {
	logging.WarnWithContext(r.Logger, "failed to persist subject", "cache_write_failed",
		logging.String(logging.FieldSubject, string(subj)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the cache backend"),
		logging.String(logging.FieldImpact, "the subject will be looked up again next run"))
}

func countRated(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Rating != nil {
			n++
		}
	}
	return n
}
