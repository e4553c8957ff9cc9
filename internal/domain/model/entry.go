package model

import (
	"strings"
	"time"
)

// Entry is one recorded (or in-progress) span of tracked time, cached per account.
// A nil Duration marks the entry as currently running.
type Entry struct {
	ID          int64
	AccountID   int64
	WorkspaceID int64
	Description string
	Start       time.Time
	Stop        *time.Time
	Duration    *int64 // seconds; nil while running
	ProjectID   *int64
	Tags        []string
	Billable    bool
	UpdatedAt   time.Time
}

// IsRunning reports whether the entry is still being tracked.
func (e Entry) IsRunning() bool {
	return e.Duration == nil
}

// ElapsedSeconds returns the recorded duration, or the time elapsed since Start
// when the entry is still running.
func (e Entry) ElapsedSeconds(now time.Time) int64 {
	if e.Duration != nil {
		return *e.Duration
	}
	elapsed := int64(now.Sub(e.Start) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// HasTag reports whether the entry carries the given tag label.
// Tag comparison is case-insensitive.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SameProject reports whether two optional project identifiers are equal.
func SameProject(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
