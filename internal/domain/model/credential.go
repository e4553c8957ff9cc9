package model

import "time"

// Credential holds a stored secret for a named service, for example the
// Toggl API token under "toggl".
type Credential struct {
	ID        int64
	Service   string
	Value     string
	UpdatedAt time.Time
}
