// Package pipeline orchestrates subject resolution for one run.
//
// Each subject moves through blacklist check, cache lookup, identifier
// resolution, and rating resolution, strictly in that order. Run carries
// everything the steps share (cache, scheduler, provider flags, blacklist,
// logger) so nothing lives in package globals. A subject is resolved at most
// once per run; concurrent and repeated requests wait on the first.
//
// Resolution never fails outward: every error path is logged and yields a
// nil rating.
package pipeline
