package quota

import (
	"context"
	"errors"
	"time"
)

// Package quota enforces the per-user daily page limit. Counters are bucketed
// by UTC calendar day; the mutation path is serialized inside the Store so the
// "used never exceeds limit" invariant holds under concurrent requests.

// Unlimited is the limit sentinel reported for paid users. Paid usage is
// never recorded or capped.
const Unlimited = -1

// ErrQuotaStore marks an unreadable or corrupt counter store. Callers must
// treat it as fail-closed: deny the request rather than silently granting
// unlimited access.
var ErrQuotaStore = errors.New("quota store unreadable")

// Result is the outcome of a check-and-consume attempt.
type Result struct {
	Allowed bool
	// Used is the count after consumption when allowed, or the unchanged
	// count when denied.
	Used  int
	Limit int
}

// Store is the keyed counter store behind the gate. Consume atomically applies
// "reject if used+pages would exceed limit, otherwise add pages" for one
// (day, user) key and returns the resulting count. A rejected attempt must not
// mutate the stored count.
type Store interface {
	Consume(ctx context.Context, day, userID string, pages, limit int) (used int, allowed bool, err error)
}

// Gate decides whether a consuming operation is permitted.
type Gate interface {
	CheckAndConsume(ctx context.Context, userID string, isPaid bool, pages int) (Result, error)
}

type gate struct {
	store Store
	limit int
	now   func() time.Time
}

// NewGate creates a Gate over the given counter store with the configured
// daily free-tier limit.
func NewGate(store Store, limit int) Gate {
	return &gate{store: store, limit: limit, now: time.Now}
}

// DayKey formats t as the UTC calendar-day bucket key.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (g *gate) CheckAndConsume(ctx context.Context, userID string, isPaid bool, pages int) (Result, error) {
	if isPaid {
		return Result{Allowed: true, Used: 0, Limit: Unlimited}, nil
	}

	day := DayKey(g.now())
	used, allowed, err := g.store.Consume(ctx, day, userID, pages, g.limit)
	if err != nil {
		return Result{}, err
	}
	return Result{Allowed: allowed, Used: used, Limit: g.limit}, nil
}
