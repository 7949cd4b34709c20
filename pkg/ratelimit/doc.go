// Package ratelimit paces requests to the judicial archive.
//
// The Limiter interface is satisfied by TokenBucket, a thin wrapper over
// golang.org/x/time/rate with a requests-per-minute
// constructor. Wait honors context cancellation so a shutdown signal
// interrupts a worker blocked on the limiter.
package ratelimit
