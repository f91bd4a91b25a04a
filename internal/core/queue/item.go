// Package queue owns both halves of the worker's shared state: the ordered
// list of pending queue items and the per-mode "currently running task"
// marker.
package queue

import (
	"fmt"
	"time"
)

// ItemType tags the queue item variant and selects its stage handler.
type ItemType string

// Queue item types.
const (
	TypeRun        ItemType = "run"
	TypeCIWait     ItemType = "ci-wait"
	TypeCIComplete ItemType = "ci-complete"
)

// Verdict is the terminal CI classification carried by a ci-complete item.
type Verdict string

// CI verdicts.
const (
	VerdictPassed  Verdict = "passed"
	VerdictFailed  Verdict = "failed"
	VerdictRunning Verdict = "running"
)

// PRRef identifies the external change a ci-wait/ci-complete item polls.
type PRRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// Item is one pending unit of work. It is a tagged union keyed by Type:
// run items carry only the task id, ci-wait items add a PR ref and an
// optional NextCheckAt gate, ci-complete items add a PR ref and a verdict.
// Items have no identity beyond queue position and are consumed exactly
// once by a successful dequeue.
type Item struct {
	Type   ItemType `json:"type"`
	TaskID string   `json:"taskId"`

	// ci-wait / ci-complete
	PR *PRRef `json:"pr,omitempty"`

	// ci-wait: the item is ineligible until this time has elapsed.
	// Absent means eligible immediately.
	NextCheckAt *time.Time `json:"nextCheckAt,omitempty"`

	// ci-complete only.
	Verdict Verdict `json:"verdict,omitempty"`
}

// Validate checks the per-variant required fields.
func (i Item) Validate() error {
	if i.TaskID == "" {
		return fmt.Errorf("queue item missing task id")
	}

	switch i.Type {
	case TypeRun:
		return nil
	case TypeCIWait:
		if i.PR == nil || i.PR.ID == "" {
			return fmt.Errorf("ci-wait item for task %s missing pr reference", i.TaskID)
		}
		return nil
	case TypeCIComplete:
		if i.PR == nil || i.PR.ID == "" {
			return fmt.Errorf("ci-complete item for task %s missing pr reference", i.TaskID)
		}
		if i.Verdict == "" {
			return fmt.Errorf("ci-complete item for task %s missing verdict", i.TaskID)
		}
		return nil
	default:
		return fmt.Errorf("unknown queue item type %q", i.Type)
	}
}

// Document is the persisted queue: an ordered list of pending items.
type Document struct {
	Items []Item `json:"items"`
}

// State is the persisted per-mode worker state document. RunningTaskID is
// empty when no dispatch is in flight.
type State struct {
	RunningTaskID string    `json:"runningTaskId,omitempty"`
	Since         time.Time `json:"since,omitzero"`
}
