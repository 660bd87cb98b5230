package project

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/models"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Replacer receives reloaded projects. *store.Store implements it.
type Replacer interface {
	Replace(p *models.Project) error
}

// Watcher reloads a project file into a Replacer whenever it changes on disk.
// Files that fail to parse or validate are logged and the current project is
// kept.
type Watcher struct {
	path     string
	target   Replacer
	debounce time.Duration
	logger   *log.Entry

	mu       sync.Mutex
	lastHash string

	// reloaded is signalled after every reload attempt (tests)
	reloaded chan error
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, target Replacer) *Watcher {
	return &Watcher{
		path:     path,
		target:   target,
		debounce: DefaultDebounce,
		logger:   log.WithFields(log.Fields{"component": "project-watcher", "file": path}),
	}
}

// Run watches until ctx is cancelled. The directory is watched instead of the
// file so that editors replacing the file by rename are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.path, err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w.logger.Info("Watching project file")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.signal(w.Reload())

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("File watcher error")
		}
	}
}

// Reload loads the file and hands it to the target unless its content is
// unchanged since the last reload.
func (w *Watcher) Reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.WithError(err).Warn("Failed to read project file")
		return err
	}

	hash := hashOf(data)
	if hash == w.hash() {
		w.logger.Debug("Project file unchanged")
		return nil
	}

	p, err := Decode(data, FormatOf(w.path))
	if err != nil {
		w.logger.WithError(err).Error("Failed to parse project file, keeping current project")
		return err
	}
	if err := w.target.Replace(p); err != nil {
		w.logger.WithError(err).Error("Reloaded project rejected, keeping current project")
		return err
	}

	w.setHash(hash)
	w.logger.WithFields(log.Fields{
		"public_endpoints": len(p.PublicEndpoints),
		"upstream_apis":    len(p.UpstreamApis),
	}).Info("Project reloaded")
	return nil
}

func (w *Watcher) hash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastHash
}

func (w *Watcher) setHash(h string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastHash = h
}

func (w *Watcher) signal(err error) {
	if w.reloaded == nil {
		return
	}
	select {
	case w.reloaded <- err:
	default:
	}
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
