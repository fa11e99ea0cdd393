package sync

import (
	"time"

	"github.com/deemkeen/fedisync/data"
	"github.com/deemkeen/fedisync/domain"
	"github.com/google/uuid"
)

// Result reports one sync pass back to the scheduler.
type Result struct {
	ID       uuid.UUID
	Timeline *domain.Timeline

	Downloaded int64
	Counters   data.Counters

	StartedAt  int64
	FinishedAt int64

	// Err is nil on success. Hard marks errors that must not be
	// retried with the same parameters.
	Err  error
	Hard bool
}

func newResult(timeline *domain.Timeline) *Result {
	return &Result{
		ID:        uuid.New(),
		Timeline:  timeline,
		StartedAt: time.Now().UnixMilli(),
	}
}

func (r *Result) finish(err error, hard bool) *Result {
	r.Err = err
	r.Hard = hard
	r.FinishedAt = time.Now().UnixMilli()
	return r
}

func (r *Result) Ok() bool {
	return r.Err == nil
}
