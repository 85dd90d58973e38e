/*
scheduler.go - Periodic behind-schedule drift check

PURPOSE:
  On a cron schedule, scans every group and compares the calendar-derived
  current turn against the stored pointer. Groups that have fallen behind
  (payments overdue past the deadline) are logged as warnings for the
  operator. The check NEVER mutates CurrentTurn - advancing the rotation
  stays an explicit admin action.

CONFIGURATION:
  Cron spec comes from config (default hourly). Standard 5-field cron.

USAGE:
  sched, err := NewDriftScheduler(store, "0 * * * *")
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - rotation/advance.go: CurrentTurnFromDate / BehindSchedule
  - config/config.go: drift_check_cron
*/
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/rotation-engine/rotation"
)

// DriftScheduler runs the periodic behind-schedule scan.
type DriftScheduler struct {
	Store rotation.GroupStore

	cron *cron.Cron
	now  func() time.Time
}

// NewDriftScheduler creates a scheduler with the given cron spec.
func NewDriftScheduler(store rotation.GroupStore, spec string) (*DriftScheduler, error) {
	ds := &DriftScheduler{Store: store, cron: cron.New(), now: time.Now}
	if _, err := ds.cron.AddFunc(spec, ds.CheckAll); err != nil {
		return nil, err
	}
	return ds, nil
}

// Start begins the cron loop and runs one scan immediately.
func (ds *DriftScheduler) Start() {
	ds.cron.Start()
	go ds.CheckAll()
	slog.Info("drift scheduler started")
}

// Stop halts the cron loop, waiting for a running scan to finish.
func (ds *DriftScheduler) Stop() {
	ctx := ds.cron.Stop()
	<-ctx.Done()
	slog.Info("drift scheduler stopped")
}

// CheckAll scans every group once. Also reachable directly for tests.
func (ds *DriftScheduler) CheckAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	groups, err := ds.Store.ListAll(ctx)
	if err != nil {
		slog.Error("drift check failed to list groups", "error", err)
		return
	}

	now := ds.now()
	behind := 0
	for _, g := range groups {
		computed := rotation.CurrentTurnFromDate(g.Settings, now)
		if computed > g.Settings.CurrentTurn {
			behind++
			slog.Warn("group behind schedule",
				"group_id", g.ID,
				"group_name", g.Settings.GroupName,
				"stored_turn", g.Settings.CurrentTurn,
				"computed_turn", computed,
			)
		}
	}
	slog.Info("drift check complete", "groups", len(groups), "behind", behind)
}
