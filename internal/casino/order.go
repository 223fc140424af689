package casino

import (
	"sort"

	"vrfRoulette/internal/model"
)

// SortNewestFirst returns a copy of records ordered by (block, log index)
// descending. Display only; decisions use Latest.
func SortNewestFirst(records []model.RawLogRecord) []model.RawLogRecord {
	out := make([]model.RawLogRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Before(out[i])
	})
	return out
}

// Latest returns the record with the highest (block, log index).
func Latest(records []model.RawLogRecord) (model.RawLogRecord, bool) {
	if len(records) == 0 {
		return model.RawLogRecord{}, false
	}
	latest := records[0]
	for _, record := range records[1:] {
		if latest.Before(record) {
			latest = record
		}
	}
	return latest, true
}
