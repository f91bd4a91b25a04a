// Package cistatus classifies external CI check counts into the verdicts
// the ci-wait handler acts on.
package cistatus

import (
	"encoding/json"
	"fmt"

	"github.com/hay-kot/foreman/internal/core/queue"
)

// Counts is the structured output expected from the external status command:
// a JSON object with the reported check totals.
type Counts struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Parse decodes the status command's stdout into Counts.
func Parse(out []byte) (Counts, error) {
	var c Counts
	if err := json.Unmarshal(out, &c); err != nil {
		return Counts{}, fmt.Errorf("parse ci status output: %w", err)
	}
	return c, nil
}

// Classify maps check counts to a verdict:
//
//   - failed when any check failed
//   - passed when checks were reported (total > 0) and all of them passed
//   - running otherwise
//
// A total of zero is running, never passed: an external pipeline that has
// not reported any checks yet must not be mistaken for a green one.
func Classify(c Counts) queue.Verdict {
	switch {
	case c.Failed > 0:
		return queue.VerdictFailed
	case c.Total > 0 && c.Passed == c.Total:
		return queue.VerdictPassed
	default:
		return queue.VerdictRunning
	}
}
