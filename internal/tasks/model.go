// Package tasks implements the per-profile, per-date journal entry
// collection: create, live subscription, deletion and atomic clear-all.
package tasks

import "time"

// DateLayout is the calendar-day key for date-buckets.
const DateLayout = "2006-01-02"

// Entry is one journal task inside a date-bucket. Timestamp is assigned
// by the backend at creation.
type Entry struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the full materialized entry list of one (profile, date)
// scope, delivered on every change. A non-nil Err means the subscription
// hit a backend failure; the caller may retry or close.
type Snapshot struct {
	Entries []Entry
	Err     error
}
