// Package task owns the durable per-task record: lifecycle status, the
// linked pull request reference, and the append-only run history that serves
// as the audit trail for everything the worker did to a task.
package task

import "time"

// Status is the lifecycle state of a task.
type Status string

// Task lifecycle states.
const (
	StatusQueued      Status = "queued"
	StatusExecuting   Status = "executing"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
	StatusNeedsManual Status = "needs_manual"
	StatusCIWait      Status = "ci_wait"
)

// Type classifies how a "run" queue item executes for this task.
type Type string

// Task types. Tracker tasks map to a configured automation command;
// manual tasks have no safe automatic action and always end in
// needs_manual when a run item reaches them.
const (
	TypeTracker Type = "tracker"
	TypeManual  Type = "manual"
)

// validTransitions is the allowed status state machine:
// queued → executing → {done, failed, needs_manual, ci_wait};
// ci_wait → queued (via a ci-complete follow-up) → {done, needs_manual}.
var validTransitions = map[Status]map[Status]bool{
	StatusQueued: {
		StatusExecuting:   true,
		StatusNeedsManual: true,
		StatusDone:        true,
		StatusCIWait:      true,
	},
	StatusExecuting: {
		StatusDone:        true,
		StatusFailed:      true,
		StatusNeedsManual: true,
		StatusCIWait:      true,
	},
	StatusCIWait: {
		StatusQueued:      true,
		StatusCIWait:      true,
		StatusNeedsManual: true,
	},
}

// ValidTransition reports whether the status state machine allows from → to.
// Self-transitions are allowed; they occur when a re-enqueued ci-wait item
// re-confirms an unchanged state.
func ValidTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return validTransitions[from][to]
}

// Checks holds the external CI check counts as last reported.
type Checks struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// PullRequest is the linked external change reference, mutated only by the
// ci-wait and ci-complete handlers.
type PullRequest struct {
	ID            string     `json:"id"`
	URL           string     `json:"url,omitempty"`
	CIStatus      string     `json:"ciStatus,omitempty"`
	Checks        *Checks    `json:"checks,omitempty"`
	LastCheckedAt *time.Time `json:"lastCheckedAt,omitempty"`
}

// RunEvent is one entry in a task's append-only run history.
type RunEvent struct {
	Timestamp time.Time `json:"ts"`
	Event     string    `json:"event"`
	Status    Status    `json:"status,omitempty"`
	OK        *bool     `json:"ok,omitempty"`
	LogPath   string    `json:"logPath,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// Run event names.
const (
	EventCreated    = "created"
	EventStatus     = "status"
	EventQueueStart = "queue_start"
	EventQueueDone  = "queue_done"
	EventCICheck    = "ci_check"
	EventCIResult   = "ci_result"
)

// Record is the persisted per-task document.
type Record struct {
	ID    string `json:"id"`
	Type  Type   `json:"type"`
	Title string `json:"title,omitempty"`

	Status Status `json:"status"`

	// Stage is an informational workflow label owned by external
	// collaborators. The engine persists it untouched.
	Stage string `json:"stage,omitempty"`

	PR *PullRequest `json:"pr,omitempty"`

	Runs []RunEvent `json:"runs"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
