package model

import "time"

// Account identifies the authenticated remote user. Every Local Store read
// and write is scoped by Account.ID.
type Account struct {
	ID                 int64
	Email              string
	FullName           string
	DefaultWorkspaceID int64
	LastSeenAt         time.Time
}
