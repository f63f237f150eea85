// Package progress carries extraction progress events from the orchestrator
// to pluggable sinks. Events are batched on a background goroutine so that
// emitting never blocks a running job.
package progress
