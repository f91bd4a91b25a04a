package executil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealRunnerCapturesOutput(t *testing.T) {
	r := &RealRunner{}

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Equal(t, "out\nerr\n", string(res.Combined()))
}

func TestRealRunnerNonZeroExitIsNotError(t *testing.T) {
	r := &RealRunner{}

	res, err := r.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRealRunnerMissingCommand(t *testing.T) {
	r := &RealRunner{}

	_, err := r.Run(context.Background(), "definitely-not-a-command-xyz")
	assert.Error(t, err)
}

func TestRecordingRunner(t *testing.T) {
	r := &RecordingRunner{
		Results: map[string]Result{
			"ci-status": {Stdout: []byte(`{"total":1}`)},
		},
	}

	res, err := r.Run(context.Background(), "ci-status", "42")
	require.NoError(t, err)
	assert.Equal(t, `{"total":1}`, string(res.Stdout))

	_, err = r.Run(context.Background(), "unknown")
	assert.Error(t, err, "unstubbed commands must fail loudly")

	require.Len(t, r.Commands, 2)
	assert.Equal(t, RecordedCommand{Name: "ci-status", Args: []string{"42"}}, r.Commands[0])

	r.Reset()
	assert.Empty(t, r.Commands)
}
