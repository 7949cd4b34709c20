// Package checkpoint provides the link registry that makes crawling resumable.
//
// The registry maps each fetched source URL to the case number recorded for it
// together with a sequence number that fixes processing order across runs.
// Every successful Record rewrites the checkpoint file atomically, so an
// interrupted run leaves a consistent file and the next run skips everything
// already recorded.
//
// Under parallel fetching, workers Claim a URL before fetching it, then either
// Record it or Release it. A claimed URL cannot be claimed again until released,
// which keeps each URL fetched by at most one worker.
//
// Checkpoint files written by older tooling as a flat {"url": "case number"}
// object are accepted. They are backed up to <path>.backup and rewritten in
// the current format on Open.
package checkpoint
