package worker

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/hay-kot/foreman/internal/core/logging"
)

// ErrLockHeld is returned by Acquire when another live worker owns the lock.
// Callers treat it as the expected concurrent-worker outcome, not a failure.
var ErrLockHeld = errors.New("worker lock held by another process")

// Lock is the exclusive per-mode worker marker. Its presence is the sole
// source of truth for "a worker of this mode is alive". Acquisition is
// create-only; a lock whose recorded owner PID no longer exists is reclaimed.
type Lock struct {
	path string
	log  zerolog.Logger
}

// NewLock creates a lock at the given path.
func NewLock(path string) *Lock {
	return &Lock{path: path, log: logging.Component("lock")}
}

// Acquire creates the lock file with the current PID. If the file already
// exists and its owner is still alive, ErrLockHeld is returned. A stale lock
// (dead owner) is removed and acquisition retried once.
func (l *Lock) Acquire() error {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", os.Getpid())
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				_ = os.Remove(l.path)
				return fmt.Errorf("write lock file: %w", werr)
			}
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("create lock file: %w", err)
		}

		pid, stale := l.staleOwner()
		if !stale {
			return ErrLockHeld
		}

		l.log.Warn().Int("pid", pid).Str("path", l.path).Msg("reclaiming stale worker lock")
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale lock: %w", err)
		}
	}

	return ErrLockHeld
}

// staleOwner reads the owner PID from the lock file and reports whether that
// process is gone. Unreadable or unparseable content is treated as held;
// reclaiming is only safe when the dead owner is positively identified.
func (l *Lock) staleOwner() (int, bool) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	if err := syscall.Kill(pid, 0); errors.Is(err, syscall.ESRCH) {
		return pid, true
	}
	return pid, false
}

// Release removes the lock file. Safe to call when the lock was never
// acquired.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
