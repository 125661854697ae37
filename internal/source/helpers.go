package source

import "github.com/pegasus-osint/pegasus-bazooka/internal/model"

// defaultLimit is the per-source result cap when the query sets none.
const defaultLimit = 100

func limitFor(q *model.QuerySpec) int {
	if q.MaxResults > 0 {
		return q.MaxResults
	}
	return defaultLimit
}

func capRecords(records []model.RawRecord, q *model.QuerySpec) []model.RawRecord {
	limit := limitFor(q)
	if len(records) > limit {
		return records[:limit]
	}
	return records
}
