package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"wikimdb/internal/logging"
)

// maxBodyBytes caps how much of a response body is buffered.
const maxBodyBytes = 8 << 20

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Request is a queued unit of network work.
type Request struct {
	URL    string
	Header http.Header
}

// Response is the buffered outcome of a request. Non-2xx statuses are
// returned as responses so callers can interpret provider-specific codes.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Result settles a submitted job.
type Result struct {
	Response Response
	Err      error
}

// Stats is a point-in-time snapshot of scheduler counters.
type Stats struct {
	Queued       int
	InFlight     int
	PeakInFlight int
	Submitted    int64
	Completed    int64
	Failed       int64
}

type job struct {
	ctx  context.Context
	req  Request
	seq  int64
	done chan Result
}

// Scheduler is a FIFO admission-controlled executor that caps in-flight
// requests at a fixed limit and drains its backlog as slots free up.
// Submitted jobs are never cancelled and never retried: cancelling the
// context passed to Go or Fetch does not abort the request, which still
// runs once its turn comes.
type Scheduler struct {
	doer      Doer
	limit     int
	userAgent string
	logger    *slog.Logger

	mu       sync.Mutex
	backlog  []*job
	inFlight int
	stats    Stats
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithUserAgent sets the User-Agent applied to requests that do not carry one.
func WithUserAgent(ua string) Option {
	return func(s *Scheduler) {
		s.userAgent = ua
	}
}

// New creates a scheduler. A limit below one is raised to one.
func New(doer Doer, limit int, logger *slog.Logger, opts ...Option) *Scheduler {
	if doer == nil {
		doer = &http.Client{Timeout: 20 * time.Second}
	}
	if limit < 1 {
		limit = 1
	}
	s := &Scheduler{
		doer:   doer,
		limit:  limit,
		logger: logging.NewComponentLogger(logger, "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit returns the concurrency ceiling.
func (s *Scheduler) Limit() int { return s.limit }

// Go appends req to the backlog and returns a channel that receives exactly
// one Result once the job has run.
func (s *Scheduler) Go(ctx context.Context, req Request) <-chan Result {
	if ctx == nil {
		ctx = context.Background()
	}
	j := &job{ctx: ctx, req: req, done: make(chan Result, 1)}

	s.mu.Lock()
	s.stats.Submitted++
	j.seq = s.stats.Submitted
	s.backlog = append(s.backlog, j)
	s.mu.Unlock()

	notifyAdmitted(ctx)
	s.drain()
	return j.done
}

// Fetch submits req and waits for its result.
func (s *Scheduler) Fetch(ctx context.Context, req Request) (Response, error) {
	res := <-s.Go(ctx, req)
	return res.Response, res.Err
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.Queued = len(s.backlog)
	out.InFlight = s.inFlight
	return out
}

// drain starts the oldest backlog jobs while slots are free.
func (s *Scheduler) drain() {
	s.mu.Lock()
	var start []*job
	for s.inFlight < s.limit && len(s.backlog) > 0 {
		j := s.backlog[0]
		s.backlog[0] = nil
		s.backlog = s.backlog[1:]
		s.inFlight++
		if s.inFlight > s.stats.PeakInFlight {
			s.stats.PeakInFlight = s.inFlight
		}
		start = append(start, j)
	}
	s.mu.Unlock()

	for _, j := range start {
		go s.run(j)
	}
}

// run executes j, frees its slot, redrains, and only then settles j so a
// freed slot is reused before any caller continuation runs.
func (s *Scheduler) run(j *job) {
	resp, err := s.execute(j)

	s.mu.Lock()
	s.inFlight--
	if err != nil {
		s.stats.Failed++
	} else {
		s.stats.Completed++
	}
	s.mu.Unlock()

	s.drain()
	j.done <- Result{Response: resp, Err: err}
}

// execute runs j detached from its submitter's cancellation; context values
// still flow through.
func (s *Scheduler) execute(j *job) (Response, error) {
	req, err := http.NewRequestWithContext(context.WithoutCancel(j.ctx), http.MethodGet, j.req.URL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	for key, values := range j.req.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if s.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	requestStart := time.Now()
	resp, err := s.doer.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		s.logger.Debug("request failed",
			logging.Int64("job", j.seq),
			logging.Duration("latency", latency),
			logging.Error(err))
		return Response{}, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read response body: %w", err)
	}

	s.logger.Debug("request completed",
		logging.Int64("job", j.seq),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency))

	return Response{URL: j.req.URL, StatusCode: resp.StatusCode, Body: body}, nil
}

type admitHookKey struct{}

// WithAdmitHook returns a context whose jobs invoke fn each time one enters
// the backlog. The pipeline uses it to learn when a subject has claimed its
// place in the FIFO.
func WithAdmitHook(ctx context.Context, fn func()) context.Context {
	return context.WithValue(ctx, admitHookKey{}, fn)
}

func notifyAdmitted(ctx context.Context) {
	if fn, ok := ctx.Value(admitHookKey{}).(func()); ok && fn != nil {
		fn()
	}
}
