package queue

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir())
	require.NoError(t, s.EnsureInitialized())
	return s
}

func TestEnsureInitializedIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Enqueue(Item{Type: TypeRun, TaskID: "T1"}))
	require.NoError(t, s.EnsureInitialized())

	assert.Len(t, s.Items(), 1, "re-initialization must not reset the queue")
}

func TestEnqueueRejectsInvalidItems(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name string
		item Item
	}{
		{"missing task id", Item{Type: TypeRun}},
		{"ci-wait without pr", Item{Type: TypeCIWait, TaskID: "T1"}},
		{"ci-complete without verdict", Item{Type: TypeCIComplete, TaskID: "T1", PR: &PRRef{ID: "42"}}},
		{"unknown type", Item{Type: "mystery", TaskID: "T1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.Enqueue(tt.item))
		})
	}

	assert.Empty(t, s.Items())
}

func TestTakeNextEligibleModeRun(t *testing.T) {
	s := newTestStore(t)

	pr := &PRRef{ID: "42"}
	require.NoError(t, s.Enqueue(Item{Type: TypeCIWait, TaskID: "T1", PR: pr}))
	require.NoError(t, s.Enqueue(Item{Type: TypeRun, TaskID: "T2"}))
	require.NoError(t, s.Enqueue(Item{Type: TypeCIComplete, TaskID: "T3", PR: pr, Verdict: VerdictPassed}))

	// Mode run skips ci-wait and takes items in queue order.
	item, ok, err := s.TakeNextEligible(ModeRun)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T2", item.TaskID)

	item, ok, err = s.TakeNextEligible(ModeRun)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T3", item.TaskID)

	// Only the ci-wait item remains, which mode run never takes.
	_, ok, err = s.TakeNextEligible(ModeRun)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.Items(), 1)
}

func TestTakeNextEligibleModeCI(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Enqueue(Item{Type: TypeRun, TaskID: "T1"}))
	require.NoError(t, s.Enqueue(Item{Type: TypeCIWait, TaskID: "T2", PR: &PRRef{ID: "42"}}))

	item, ok, err := s.TakeNextEligible(ModeCI)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T2", item.TaskID)

	// The run item is not eligible in ci mode.
	_, ok, err = s.TakeNextEligible(ModeCI)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTakeNextEligibleRespectsNextCheckAt(t *testing.T) {
	s := newTestStore(t)

	future := time.Now().Add(time.Hour)
	require.NoError(t, s.Enqueue(Item{Type: TypeCIWait, TaskID: "T1", PR: &PRRef{ID: "42"}, NextCheckAt: &future}))

	_, ok, err := s.TakeNextEligible(ModeCI)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.Items(), 1, "ineligible item must stay in place")

	past := time.Now().Add(-time.Minute)
	require.NoError(t, s.Enqueue(Item{Type: TypeCIWait, TaskID: "T2", PR: &PRRef{ID: "43"}, NextCheckAt: &past}))

	// The delayed item is skipped over by the later-arriving eligible one.
	item, ok, err := s.TakeNextEligible(ModeCI)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T2", item.TaskID)
}

func TestTakeNextEligibleAtMostOnce(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(Item{Type: TypeRun, TaskID: "T1"}))

	before := len(s.Items())
	item, ok, err := s.TakeNextEligible(ModeRun)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T1", item.TaskID)
	assert.Equal(t, before-1, len(s.Items()), "dequeue must shorten the persisted queue by one")

	_, ok, err = s.TakeNextEligible(ModeRun)
	require.NoError(t, err)
	assert.False(t, ok, "a consumed item must never be returned twice")
}

func TestEmptyPollDoesNotTouchStore(t *testing.T) {
	s := newTestStore(t)

	info, err := os.Stat(s.QueuePath())
	require.NoError(t, err)

	_, ok, err := s.TakeNextEligible(ModeRun)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := os.Stat(s.QueuePath())
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime(), "empty poll must be a pure no-op")
}

func TestWorkerState(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetRunning(ModeRun, "T1"))
	state := s.Running(ModeRun)
	assert.Equal(t, "T1", state.RunningTaskID)
	assert.False(t, state.Since.IsZero())

	// Modes keep independent state documents.
	assert.Empty(t, s.Running(ModeCI).RunningTaskID)

	require.NoError(t, s.ClearRunning(ModeRun))
	assert.Empty(t, s.Running(ModeRun).RunningTaskID)
}

func TestCorruptQueueResetsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(Item{Type: TypeRun, TaskID: "T1"}))

	require.NoError(t, os.WriteFile(s.QueuePath(), []byte("{broken"), 0o644))

	_, ok, err := s.TakeNextEligible(ModeRun)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Items())
}
