package model

import "time"

// Project is a remote project cached per account. Entries referencing a
// project that is not cached are shown with an unknown project.
type Project struct {
	ID          int64
	AccountID   int64
	WorkspaceID int64
	ClientID    *int64
	Name        string
	Color       string // hex, e.g. "#06aaf5"
	Active      bool
	Billable    bool
	UpdatedAt   time.Time
}
