package task

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/foreman/internal/core/logging"
	"github.com/hay-kot/foreman/internal/store/jsonfile"
)

// ErrExists is returned by Create when a record already exists for the id.
var ErrExists = fmt.Errorf("task record already exists")

// Repository persists task records as <root>/<id>/task.json with per-task
// log artifacts under <root>/<id>/logs/.
//
// Mutations are read-modify-write and are not safe under concurrent writers
// to the same task id. The worker lock guarantees a single handler touches a
// given task at a time, which is the only concurrency this layer supports.
type Repository struct {
	root string
	log  zerolog.Logger
	now  func() time.Time
}

// NewRepository creates a repository rooted at the tasks directory.
func NewRepository(root string) *Repository {
	return &Repository{
		root: root,
		log:  logging.Component("tasks"),
		now:  time.Now,
	}
}

// Path returns the document path for a task id.
func (r *Repository) Path(id string) string {
	return filepath.Join(r.root, id, "task.json")
}

// Read loads a task record. Absence (missing or unreadable document) is
// reported via the bool, never as an error.
func (r *Repository) Read(id string) (Record, bool) {
	return jsonfile.Read[Record](r.Path(id))
}

// Write replaces the full task record atomically.
func (r *Repository) Write(id string, rec Record) error {
	rec.UpdatedAt = r.now()
	return jsonfile.WriteAtomic(r.Path(id), rec)
}

// Create writes a new record with status queued and an initial run event.
// It refuses to overwrite an existing record.
func (r *Repository) Create(id string, typ Type, title string) (Record, error) {
	if _, ok := r.Read(id); ok {
		return Record{}, fmt.Errorf("%w: %s", ErrExists, id)
	}

	now := r.now()
	rec := Record{
		ID:        id,
		Type:      typ,
		Title:     title,
		Status:    StatusQueued,
		CreatedAt: now,
		Runs: []RunEvent{
			{Timestamp: now, Event: EventCreated, Status: StatusQueued},
		},
	}

	if err := r.Write(id, rec); err != nil {
		return Record{}, fmt.Errorf("create task %s: %w", id, err)
	}
	return rec, nil
}

// AppendRun appends an event to the task's run history. The history is the
// audit trail: it is never reordered or truncated, only extended.
func (r *Repository) AppendRun(id string, ev RunEvent) error {
	rec, ok := r.Read(id)
	if !ok {
		return fmt.Errorf("append run: task %s not found", id)
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now()
	}
	rec.Runs = append(rec.Runs, ev)

	if err := r.Write(id, rec); err != nil {
		return fmt.Errorf("append run to task %s: %w", id, err)
	}
	return nil
}

// SetStatus moves the task to a new status and appends a status-kind run
// event for traceability. An invalid transition is logged but still applied;
// the record is the source of truth for operators and refusing the write
// would hide the real state.
func (r *Repository) SetStatus(id string, status Status, note string) error {
	rec, ok := r.Read(id)
	if !ok {
		return fmt.Errorf("set status: task %s not found", id)
	}

	if !ValidTransition(rec.Status, status) {
		r.log.Warn().
			Str("task", id).
			Str("from", string(rec.Status)).
			Str("to", string(status)).
			Msg("unexpected status transition")
	}

	rec.Status = status
	rec.Runs = append(rec.Runs, RunEvent{
		Timestamp: r.now(),
		Event:     EventStatus,
		Status:    status,
		Note:      note,
	})

	if err := r.Write(id, rec); err != nil {
		return fmt.Errorf("set status on task %s: %w", id, err)
	}
	return nil
}

// WriteLog stores a free-text log artifact for the task and returns its
// path, suitable for a run event's logPath.
func (r *Repository) WriteLog(id, outcome string, content []byte) (string, error) {
	logsDir := filepath.Join(r.root, id, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return "", fmt.Errorf("create logs dir: %w", err)
	}

	name := fmt.Sprintf("%s.%s.log", r.now().Format("20060102T150405.000"), outcome)
	path := filepath.Join(logsDir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write log artifact: %w", err)
	}
	return path, nil
}

// List returns all task records under the root, sorted by id. Directories
// without a readable task.json are skipped.
func (r *Repository) List() ([]Record, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tasks dir: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if rec, ok := r.Read(entry.Name()); ok {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}
