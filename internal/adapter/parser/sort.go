package parser

import (
	"sort"
	"time"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// SortChronologically orders records by timestamp, oldest first. The sort
// is stable. Records whose timestamp does not parse stay at their index and
// only the parseable records are reordered among the remaining slots, so a
// bad timestamp never drags a message to either end of the conversation.
func SortChronologically(records []domain.MessageRecord) []domain.MessageRecord {
	out := make([]domain.MessageRecord, len(records))
	copy(out, records)

	type keyed struct {
		at     time.Time
		record domain.MessageRecord
	}
	var (
		slots  []int
		sorted []keyed
	)
	for i, r := range records {
		at, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		slots = append(slots, i)
		sorted = append(sorted, keyed{at: at, record: r})
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].at.Before(sorted[j].at)
	})

	for n, slot := range slots {
		out[slot] = sorted[n].record
	}
	return out
}
