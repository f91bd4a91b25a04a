package queue

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/foreman/internal/core/logging"
	"github.com/hay-kot/foreman/internal/store/jsonfile"
)

// Mode partitions the item-type space between worker processes. Mode run
// takes every item type except ci-wait; mode ci takes only ci-wait items
// whose NextCheckAt has elapsed. The subsets are disjoint, so one worker
// per mode can run concurrently without contention.
type Mode string

// Operating modes.
const (
	ModeRun Mode = "run"
	ModeCI  Mode = "ci"
)

// Valid reports whether m is a known operating mode.
func (m Mode) Valid() bool {
	return m == ModeRun || m == ModeCI
}

// Store persists the queue document and per-mode worker state under a
// single queue root directory.
type Store struct {
	root string
	log  zerolog.Logger
	now  func() time.Time
}

// NewStore creates a queue store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{
		root: dir,
		log:  logging.Component("queue"),
		now:  time.Now,
	}
}

// QueuePath returns the path of the queue document.
func (s *Store) QueuePath() string {
	return filepath.Join(s.root, "queue.json")
}

// StatePath returns the path of the worker state document for a mode.
func (s *Store) StatePath(mode Mode) string {
	return filepath.Join(s.root, fmt.Sprintf("state-%s.json", mode))
}

// LockPath returns the path of the worker lock file for a mode.
func (s *Store) LockPath(mode Mode) string {
	return filepath.Join(s.root, fmt.Sprintf("worker-%s.lock", mode))
}

// EnsureInitialized creates the queue directory and an empty queue document
// if absent. Idempotent; safe to call on every startup.
func (s *Store) EnsureInitialized() error {
	if _, ok := jsonfile.Read[Document](s.QueuePath()); ok {
		return nil
	}
	if err := jsonfile.WriteAtomic(s.QueuePath(), Document{Items: []Item{}}); err != nil {
		return fmt.Errorf("initialize queue: %w", err)
	}
	return nil
}

// eligible reports whether an item may be dequeued by a worker in the given
// mode at time now.
func eligible(item Item, mode Mode, now time.Time) bool {
	switch mode {
	case ModeCI:
		if item.Type != TypeCIWait {
			return false
		}
		return item.NextCheckAt == nil || !item.NextCheckAt.After(now)
	default:
		return item.Type != TypeCIWait
	}
}

// TakeNextEligible removes and returns the first item eligible for the given
// mode. When nothing is eligible it returns false without touching the
// store, so high-frequency polling is a pure no-op.
//
// The shortened list is persisted before the item is handed to the caller:
// a crash after the write drops the item, which is the deliberate
// at-most-once guarantee. The task record keeps enough state for manual
// reconciliation.
func (s *Store) TakeNextEligible(mode Mode) (Item, bool, error) {
	doc, _ := jsonfile.Read[Document](s.QueuePath())

	idx := -1
	now := s.now()
	for i, item := range doc.Items {
		if eligible(item, mode, now) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Item{}, false, nil
	}

	item := doc.Items[idx]
	doc.Items = append(doc.Items[:idx], doc.Items[idx+1:]...)

	if err := jsonfile.WriteAtomic(s.QueuePath(), doc); err != nil {
		return Item{}, false, fmt.Errorf("persist dequeue: %w", err)
	}

	s.log.Debug().
		Str("task", item.TaskID).
		Str("type", string(item.Type)).
		Int("remaining", len(doc.Items)).
		Msg("dequeued item")

	return item, true, nil
}

// Enqueue validates the item and appends it to the end of the queue.
func (s *Store) Enqueue(item Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	doc, _ := jsonfile.Read[Document](s.QueuePath())
	doc.Items = append(doc.Items, item)

	if err := jsonfile.WriteAtomic(s.QueuePath(), doc); err != nil {
		return fmt.Errorf("persist enqueue: %w", err)
	}

	s.log.Debug().
		Str("task", item.TaskID).
		Str("type", string(item.Type)).
		Int("depth", len(doc.Items)).
		Msg("enqueued item")

	return nil
}

// Items returns a copy of the pending queue contents, for observability.
func (s *Store) Items() []Item {
	doc, _ := jsonfile.Read[Document](s.QueuePath())
	return doc.Items
}

// SetRunning marks taskID as the task currently dispatched by the worker in
// the given mode.
func (s *Store) SetRunning(mode Mode, taskID string) error {
	state := State{RunningTaskID: taskID, Since: s.now()}
	if err := jsonfile.WriteAtomic(s.StatePath(mode), state); err != nil {
		return fmt.Errorf("persist worker state: %w", err)
	}
	return nil
}

// ClearRunning resets the worker state document for the given mode. Called
// unconditionally after every dispatch, including handler failure.
func (s *Store) ClearRunning(mode Mode) error {
	if err := jsonfile.WriteAtomic(s.StatePath(mode), State{}); err != nil {
		return fmt.Errorf("clear worker state: %w", err)
	}
	return nil
}

// Running returns the worker state document for a mode.
func (s *Store) Running(mode Mode) State {
	state, _ := jsonfile.Read[State](s.StatePath(mode))
	return state
}
