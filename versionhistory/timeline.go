package versionhistory

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ValidateTimeline checks that the records of one entity form a contiguous timeline:
// every interval is non-empty, each version starts exactly where its predecessor ended,
// and at most one version is open.
//
// The records do not need to be sorted.
func ValidateTimeline(records HistoryRecords, sentinel time.Time) error {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b HistoryRecord) int {
		return a.ValidFrom.Compare(b.ValidFrom)
	})

	open := 0
	for _, record := range sorted {
		if !record.ValidFrom.Before(record.ValidUntil) {
			return errors.Join(ErrInvalidValidityInterval, fmt.Errorf("record %d", record.ID))
		}

		if record.IsOpen(sentinel) {
			open++
		}
	}

	if open > 1 {
		return errors.Join(ErrMultipleOpenIntervals, fmt.Errorf("%d open records", open))
	}

	for i := 1; i < len(sorted); i++ {
		previous, current := sorted[i-1], sorted[i]

		switch previous.ValidUntil.Compare(current.ValidFrom) {
		case -1:
			return errors.Join(
				ErrTimelineGap,
				fmt.Errorf("record %d ends at %s, record %d starts at %s",
					previous.ID, previous.ValidUntil.Format(time.RFC3339Nano),
					current.ID, current.ValidFrom.Format(time.RFC3339Nano)),
			)
		case 1:
			return errors.Join(
				ErrTimelineOverlap,
				fmt.Errorf("record %d ends at %s, record %d starts at %s",
					previous.ID, previous.ValidUntil.Format(time.RFC3339Nano),
					current.ID, current.ValidFrom.Format(time.RFC3339Nano)),
			)
		}
	}

	return nil
}
