// Package retry provides bounded retry with exponential backoff and jitter
// for transient cluster API failures (conflicts, timeouts, throttling).
package retry
