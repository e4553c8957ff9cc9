package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

func TestGroup_DayModeStandupExample(t *testing.T) {
	entries := []model.Entry{
		makeEntry(1, "Standup", int64Ptr(1), monday, 300),
		makeEntry(2, "Standup", int64Ptr(1), monday.Add(2*time.Hour), 900),
	}

	groups := Group(entries, true, monday, time.UTC)

	require.Len(t, groups, 1)
	assert.Equal(t, int64(1200), groups[0].TotalSeconds)
	// 20 minutes is not a multiple of 15, so it rounds up to 30.
	assert.Equal(t, int64(1800), RoundedDuration(groups[0].TotalSeconds, 15))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), groups[0].Day)
}

func TestGroup_PreservesFirstSeenMemberOrder(t *testing.T) {
	a1 := makeEntry(1, "A", nil, monday, 60)
	b := makeEntry(2, "B", nil, monday.Add(time.Hour), 60)
	a2 := makeEntry(3, "A", nil, monday.Add(-time.Hour), 60)

	groups := Group([]model.Entry{a1, b, a2}, false, monday, time.UTC)

	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].Description)
	assert.Equal(t, []int64{1, 3}, groups[0].IDs())
	assert.Equal(t, "B", groups[1].Description)
}

func TestGroup_DescriptionIsCaseSensitive(t *testing.T) {
	entries := []model.Entry{
		makeEntry(1, "Review", nil, monday, 60),
		makeEntry(2, "review", nil, monday, 60),
	}

	assert.Len(t, Group(entries, false, monday, time.UTC), 2)
}

func TestGroup_ProjectIsPartOfKey(t *testing.T) {
	entries := []model.Entry{
		makeEntry(1, "Work", int64Ptr(1), monday, 60),
		makeEntry(2, "Work", int64Ptr(2), monday, 60),
		makeEntry(3, "Work", nil, monday, 60),
		makeEntry(4, "Work", nil, monday, 60),
	}

	groups := Group(entries, false, monday, time.UTC)

	require.Len(t, groups, 3)
	assert.Equal(t, []int64{3, 4}, groups[2].IDs())
}

func TestGroup_DayModeSplitsAcrossDays(t *testing.T) {
	entries := []model.Entry{
		makeEntry(1, "Work", nil, monday, 60),
		makeEntry(2, "Work", nil, monday.Add(24*time.Hour), 60),
	}

	assert.Len(t, Group(entries, false, monday, time.UTC), 1)
	assert.Len(t, Group(entries, true, monday, time.UTC), 2)
}

func TestGroup_RunningEntryCountsElapsed(t *testing.T) {
	running := model.Entry{ID: 1, Description: "Now", Start: monday}
	now := monday.Add(10 * time.Minute)

	groups := Group([]model.Entry{running}, false, now, time.UTC)

	require.Len(t, groups, 1)
	assert.Equal(t, int64(600), groups[0].TotalSeconds)
}

func TestGroup_EmptyInput(t *testing.T) {
	groups := Group(nil, true, monday, time.UTC)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroup_IsPartition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		byDay := rapid.Bool().Draw(t, "byDay")
		entries := make([]model.Entry, n)
		var sum int64
		for i := range entries {
			desc := rapid.SampledFrom([]string{"", "Standup", "Review", "review"}).Draw(t, "desc")
			var project *int64
			if p := rapid.IntRange(0, 2).Draw(t, "project"); p > 0 {
				project = int64Ptr(int64(p))
			}
			day := rapid.IntRange(0, 3).Draw(t, "day")
			secs := rapid.Int64Range(0, 8*3600).Draw(t, "secs")
			entries[i] = makeEntry(int64(i+1), desc, project, monday.Add(time.Duration(day)*24*time.Hour), secs)
			sum += secs
		}

		groups := Group(entries, byDay, monday, time.UTC)

		seen := make(map[int64]int)
		var total int64
		for _, g := range groups {
			var members int64
			lastIndex := -1
			for _, e := range g.Entries {
				seen[e.ID]++
				members += *e.Duration
				// members keep input order; ids were assigned in input order
				if int(e.ID) <= lastIndex {
					t.Fatalf("group %q members out of input order", g.Description)
				}
				lastIndex = int(e.ID)
			}
			if members != g.TotalSeconds {
				t.Fatalf("group total %d != member sum %d", g.TotalSeconds, members)
			}
			total += g.TotalSeconds
		}
		if total != sum {
			t.Fatalf("sum of group totals %d != sum of durations %d", total, sum)
		}
		for _, e := range entries {
			if seen[e.ID] != 1 {
				t.Fatalf("entry %d appears %d times", e.ID, seen[e.ID])
			}
		}
	})
}
