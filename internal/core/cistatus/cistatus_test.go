package cistatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/foreman/internal/core/queue"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		want   queue.Verdict
	}{
		{"no checks reported yet", Counts{Total: 0, Passed: 0, Failed: 0}, queue.VerdictRunning},
		{"all passed", Counts{Total: 3, Passed: 3, Failed: 0}, queue.VerdictPassed},
		{"one failed", Counts{Total: 3, Passed: 2, Failed: 1}, queue.VerdictFailed},
		{"still pending", Counts{Total: 2, Passed: 0, Failed: 0, Pending: 2}, queue.VerdictRunning},
		{"partially passed", Counts{Total: 3, Passed: 2, Failed: 0, Pending: 1}, queue.VerdictRunning},
		{"failed wins over passed", Counts{Total: 1, Passed: 1, Failed: 1}, queue.VerdictFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.counts))
		})
	}
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`{"total": 4, "passed": 2, "failed": 1, "pending": 1}`))
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 4, Passed: 2, Failed: 1, Pending: 1}, c)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("not json"))
	assert.Error(t, err)
}
