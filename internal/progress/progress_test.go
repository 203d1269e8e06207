package progress

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("job-1", 10)

	snap, ok := tracker.Snapshot("job-1")
	require.True(t, ok)
	assert.Equal(t, Snapshot{Processed: 0, Total: 10, Status: StatusRunning}, snap)

	tracker.Update("job-1", 4)
	snap, _ = tracker.Snapshot("job-1")
	assert.Equal(t, 4, snap.Processed)

	tracker.Finish("job-1")
	snap, _ = tracker.Snapshot("job-1")
	assert.Equal(t, StatusCompleted, snap.Status)
}

func TestTrackerUnknownJob(t *testing.T) {
	tracker := NewTracker()

	// Updates for ids that were never started must be silent no-ops.
	tracker.Update("missing", 3)
	tracker.SetTotal("missing", 9)
	tracker.Finish("missing")
	tracker.Error("missing")

	_, ok := tracker.Snapshot("missing")
	assert.False(t, ok)
	_, ok = tracker.Pop("missing")
	assert.False(t, ok)
}

func TestTrackerSetTotal(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("job-1", 0)
	tracker.SetTotal("job-1", 25)

	snap, ok := tracker.Snapshot("job-1")
	require.True(t, ok)
	assert.Equal(t, 25, snap.Total)
}

func TestTrackerErrorState(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("job-1", 5)
	tracker.Error("job-1")

	snap, ok := tracker.Snapshot("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusError, snap.Status)
}

func TestTrackerPopRemovesJob(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("job-1", 5)
	tracker.Update("job-1", 5)
	tracker.Finish("job-1")

	snap, ok := tracker.Pop("job-1")
	require.True(t, ok)
	assert.Equal(t, Snapshot{Processed: 5, Total: 5, Status: StatusCompleted}, snap)

	_, ok = tracker.Snapshot("job-1")
	assert.False(t, ok, "popped job must be gone")
}

func TestTrackerRestartResetsJob(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("job-1", 5)
	tracker.Update("job-1", 5)
	tracker.Finish("job-1")

	tracker.Start("job-1", 8)
	snap, ok := tracker.Snapshot("job-1")
	require.True(t, ok)
	assert.Equal(t, Snapshot{Processed: 0, Total: 8, Status: StatusRunning}, snap)
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("job-1", 5)

	snap, _ := tracker.Snapshot("job-1")
	snap.Processed = 99

	fresh, _ := tracker.Snapshot("job-1")
	assert.Equal(t, 0, fresh.Processed)
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", n)
			tracker.Start(id, 100)
			for p := 1; p <= 100; p++ {
				tracker.Update(id, p)
				tracker.Snapshot(id)
			}
			tracker.Finish(id)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		snap, ok := tracker.Pop(fmt.Sprintf("job-%d", i))
		require.True(t, ok)
		assert.Equal(t, StatusCompleted, snap.Status)
		assert.Equal(t, 100, snap.Processed)
	}
}
