package logging

import "context"

type contextKey string

const (
	taskIDKey   contextKey = "task_id"
	itemTypeKey contextKey = "item_type"
)

// WithTaskID adds a task ID to the context.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// WithItemType adds a queue item type to the context.
func WithItemType(ctx context.Context, itemType string) context.Context {
	return context.WithValue(ctx, itemTypeKey, itemType)
}

// GetTaskID returns the task ID from the context, or empty string.
func GetTaskID(ctx context.Context) string {
	if v, ok := ctx.Value(taskIDKey).(string); ok {
		return v
	}
	return ""
}

// GetItemType returns the queue item type from the context, or empty string.
func GetItemType(ctx context.Context) string {
	if v, ok := ctx.Value(itemTypeKey).(string); ok {
		return v
	}
	return ""
}
