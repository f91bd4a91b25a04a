package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name: "both task_id and item_type",
			setupCtx: func() context.Context {
				ctx := context.Background()
				ctx = WithTaskID(ctx, "T1")
				ctx = WithItemType(ctx, "run")
				return ctx
			},
			wantKeys: []string{"task_id", "item_type"},
		},
		{
			name: "only task_id",
			setupCtx: func() context.Context {
				return WithTaskID(context.Background(), "T1")
			},
			wantKeys:  []string{"task_id"},
			wantEmpty: []string{"item_type"},
		},
		{
			name:      "no context values",
			setupCtx:  context.Background,
			wantEmpty: []string{"task_id", "item_type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := tt.setupCtx()

			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(ctx).Msg("test")

			var logEntry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

			for _, key := range tt.wantKeys {
				assert.Contains(t, logEntry, key)
			}
			for _, key := range tt.wantEmpty {
				assert.NotContains(t, logEntry, key)
			}
		})
	}
}

func TestGetTaskID(t *testing.T) {
	assert.Empty(t, GetTaskID(context.Background()))
	assert.Equal(t, "T1", GetTaskID(WithTaskID(context.Background(), "T1")))
}

func TestGetItemType(t *testing.T) {
	assert.Empty(t, GetItemType(context.Background()))
	assert.Equal(t, "ci-wait", GetItemType(WithItemType(context.Background(), "ci-wait")))
}
