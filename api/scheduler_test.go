package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp/rotation-engine/rotation"
	"github.com/warp/rotation-engine/rotation/store"
)

func TestDriftScheduler_CheckAllNeverMutates(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	// Monthly from 2024-01-10, stored pointer still on turn 1
	g := rotation.NewGroup("g-1", testOwner, "Polla", testClock)
	g.Settings.StartDate = rotation.NewPlainDate(2024, time.January, 10)
	g.AppendEntity(rotation.NewSingle("p-1", rotation.Member{Name: "Juan"}))
	g.AppendEntity(rotation.NewSingle("p-2", rotation.Member{Name: "Ana"}))
	require.NoError(t, mem.Create(ctx, g))

	sched, err := NewDriftScheduler(mem, "0 * * * *")
	require.NoError(t, err)

	// Months past the first deadline: the group reads as behind
	sched.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local) }
	sched.CheckAll()

	// The scan only warns; the stored pointer is untouched
	got, err := mem.Get(ctx, "g-1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Settings.CurrentTurn)
}

func TestNewDriftScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewDriftScheduler(store.NewMemory(), "not a cron spec")
	require.Error(t, err)
}
