package processor

import (
	"time"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func int64Ptr(v int64) *int64 { return &v }

func makeEntry(id int64, desc string, project *int64, start time.Time, secs int64) model.Entry {
	return model.Entry{
		ID:          id,
		AccountID:   1,
		Description: desc,
		ProjectID:   project,
		Start:       start,
		Duration:    int64Ptr(secs),
	}
}
