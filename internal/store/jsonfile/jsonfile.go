// Package jsonfile provides atomic read/write of JSON documents on disk.
// It is the only package that touches raw file I/O for persisted documents;
// everything above it (queue store, task repository) goes through these
// helpers.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Read loads a JSON document from path into a value of type T.
//
// Absence is not an error: a missing file, an empty file, or unreadable
// content all return (zero, false) and callers fall back to their default
// document. Malformed JSON is additionally quarantined next to the original
// so the corrupt bytes survive the reset and can be inspected.
func Read[T any](path string) (T, bool) {
	var v T

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("read document")
		}
		return v, false
	}

	if len(data) == 0 {
		return v, false
	}

	if err := json.Unmarshal(data, &v); err != nil {
		log.Error().Err(err).Str("path", path).Msg("corrupt document, resetting to default")
		quarantine(path)
		var zero T
		return zero, false
	}

	return v, true
}

// WriteAtomic persists v as indented JSON at path. The document is written
// to a uniquely-named temp file in the same directory and renamed over the
// target, so a concurrent reader never observes a partial write.
func WriteAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".foreman-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// quarantine moves a corrupt document aside as <name>.<timestamp>.corrupt.
// Best effort: if the rename fails the next write will overwrite the corrupt
// file anyway.
func quarantine(path string) {
	stamp := time.Now().Format("20060102T150405")
	dst := fmt.Sprintf("%s.%s.corrupt", path, stamp)
	if err := os.Rename(path, dst); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("quarantine corrupt document")
		return
	}
	log.Warn().Str("path", path).Str("quarantined", dst).Msg("quarantined corrupt document")
}
