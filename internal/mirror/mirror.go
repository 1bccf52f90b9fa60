// Package mirror pushes a full snapshot of the reports table to external
// sinks after every successful save. Runs are fire-and-forget: the saving
// request never waits on a run and never learns its outcome.
package mirror

import (
	"context"
	"log"
	"sync/atomic"

	"tally/api/internal/store"
)

// snapshotHeader matches the reports table column order.
var snapshotHeader = []string{"community", "year", "period", "indicator_id", "value", "unit", "last_updated"}

// snapshotStore provides the full table dump.
type snapshotStore interface {
	ListAllEntries(ctx context.Context) ([]store.ReportEntry, error)
}

// Sink receives the snapshot as a complete overwrite, header row first.
type Sink interface {
	Name() string
	Publish(ctx context.Context, rows [][]string) error
}

// Locker keeps replicas from overwriting the same shared target at once.
// A failed acquisition skips the run; the holder publishes the same logical
// snapshot anyway.
type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool)
}

type Notifier struct {
	store    snapshotStore
	sinks    []Sink
	lock     Locker
	inFlight atomic.Bool
}

// New creates a notifier. lock may be nil when the process is the only
// writer of the mirror targets.
func New(snapshots snapshotStore, sinks []Sink, lock Locker) *Notifier {
	return &Notifier{store: snapshots, sinks: sinks, lock: lock}
}

// Enabled reports whether any sink is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.sinks) > 0
}

// Trigger starts a mirror run on a detached goroutine and returns
// immediately. At most one run is in flight per process; a trigger landing
// while one runs is dropped, because the running dump publishes a complete
// overwrite of the same table.
func (n *Notifier) Trigger() {
	if !n.Enabled() {
		return
	}
	if !n.inFlight.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer n.inFlight.Store(false)
		n.run(context.Background())
	}()
}

func (n *Notifier) run(ctx context.Context) {
	if n.lock != nil {
		release, ok := n.lock.TryLock(ctx)
		if !ok {
			log.Printf("mirror: another replica holds the lock, skipping run")
			return
		}
		defer release()
	}

	entries, err := n.store.ListAllEntries(ctx)
	if err != nil {
		log.Printf("mirror: load snapshot: %v", err)
		return
	}

	rows := snapshotRows(entries)
	for _, sink := range n.sinks {
		if err := sink.Publish(ctx, rows); err != nil {
			log.Printf("mirror: publish to %s: %v", sink.Name(), err)
		}
	}
}

func snapshotRows(entries []store.ReportEntry) [][]string {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, snapshotHeader)
	for _, e := range entries {
		rows = append(rows, []string{e.Community, e.Year, e.Period, e.IndicatorID, e.Value, e.Unit, e.LastUpdated})
	}
	return rows
}
