// Package queue provides the shared work queue the publisher's workers
// claim items from. It wraps an immutable record list with an atomic
// cursor so the claim-and-advance step is a single atomic unit.
package queue

import (
	"sync/atomic"

	"backoffice-republisher/internal/module"
)

// Queue hands out records from a fixed, ordered list exactly once each.
// Safe for concurrent use by any number of workers without external
// locking; claim order equals input order.
type Queue struct {
	records []module.Record
	cursor  atomic.Int64
}

// New builds a queue over records. The slice is not copied; callers must
// not mutate it after construction.
func New(records []module.Record) *Queue {
	return &Queue{records: records}
}

// ClaimNext returns the next unclaimed record. ok is false once every
// record has been claimed.
func (q *Queue) ClaimNext() (rec module.Record, ok bool) {
	idx := q.cursor.Add(1) - 1
	if idx >= int64(len(q.records)) {
		return module.Record{}, false
	}
	return q.records[idx], true
}

// Len returns the total number of records in the queue, claimed or not.
func (q *Queue) Len() int {
	return len(q.records)
}

// Remaining returns how many records are still unclaimed.
func (q *Queue) Remaining() int {
	claimed := q.cursor.Load()
	if claimed >= int64(len(q.records)) {
		return 0
	}
	return len(q.records) - int(claimed)
}
