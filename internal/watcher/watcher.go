// Package watcher ingests documents dropped into a watched directory.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"asistente-rag/internal/core"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives the writing process time to finish before ingesting.
const settleDelay = 500 * time.Millisecond

// Watcher monitors a directory and ingests every .pdf/.txt file that
// appears in it.
type Watcher struct {
	core   *core.Core
	dir    string
	logger *slog.Logger
}

// New creates a watcher over dir.
func New(c *core.Core, dir string) *Watcher {
	return &Watcher{
		core:   c,
		dir:    dir,
		logger: slog.Default().With("component", "watcher"),
	}
}

// Run blocks watching the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching documents directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Create only: reacting to Write too would re-index a file
			// once per flush while it is still being copied in.
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !ingestible(event.Name) {
				continue
			}

			time.Sleep(settleDelay)
			result := w.core.Ingest(ctx, event.Name)
			if result.Success {
				w.logger.Info("auto-ingested document", "file", event.Name)
			} else {
				w.logger.Warn("auto-ingest failed", "file", event.Name, "message", result.Message)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func ingestible(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt":
		return true
	default:
		return false
	}
}
