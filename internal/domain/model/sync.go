package model

import "time"

// ResourceKind names a remote resource tracked in sync metadata.
type ResourceKind string

const (
	ResourceEntries  ResourceKind = "entries"
	ResourceProjects ResourceKind = "projects"
)

// SyncMetadata records the last successful pull of one resource kind for an account.
type SyncMetadata struct {
	AccountID int64
	Kind      ResourceKind
	LastSync  time.Time
}

// WipeScope selects what a data wipe removes.
type WipeScope string

const (
	// WipeEntries removes cached entries and their sync metadata only.
	WipeEntries WipeScope = "entries"
	// WipeAll removes every cached row, including accounts and credentials.
	WipeAll WipeScope = "all"
)
