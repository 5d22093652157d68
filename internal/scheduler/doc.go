// Package scheduler provides the bounded-concurrency fetch executor shared by
// every network lookup in a run.
//
// Jobs enter an unbounded FIFO backlog and start in submission order while
// fewer than Limit requests are in flight. When a request finishes, its slot
// is released and the backlog is drained again before the job's result is
// delivered, so callers that submit follow-up work from a completion never
// starve the queue. There are no priorities, no cancellation of admitted
// jobs, and no retries. A job's context contributes values only; its
// cancellation is ignored once the job is in the backlog.
package scheduler
