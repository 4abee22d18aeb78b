// Package scheduler provides the timer service that wakes the VPN
// orchestrator at a requested instant with an (id, kind) payload.
//
// A single goroutine keeps armed timers in a min-heap sorted by fire time
// and never sleeps longer than 60 seconds, so NTP steps, DST transitions and
// system sleep (macOS monotonic clock pause) are noticed on the next wake.
//
// Armed timers are persisted in the key/value store on every change. Start
// reloads them and fires any that came due while the daemon was down, so
// delivery is at-least-once and callers must tolerate duplicates.
package scheduler
