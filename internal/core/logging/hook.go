package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts task_id and item_type from context and adds them to
// log events, so every line emitted during a dispatch is attributable to the
// task being processed.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if taskID := GetTaskID(ctx); taskID != "" {
		e.Str("task_id", taskID)
	}
	if itemType := GetItemType(ctx); itemType != "" {
		e.Str("item_type", itemType)
	}
}
