package capture

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/rlmtrace/pkg/logger"
)

// DefaultDebounce is how long a capture must stay unchanged before it is
// checked for a terminal event.
const DefaultDebounce = 2 * time.Second

// Watcher reports capture files in a directory once writes to them settle
// and the stream they hold has ended.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher returns a watcher for dir. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(dir string, debounce time.Duration, l *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, logger: logger.OrNop(l)}
}

type settled struct {
	path string
	gen  int
}

// Run watches until ctx is done, calling handle from the Run goroutine for
// each capture file that was created or written, then left untouched for
// the debounce interval, and that ends with a complete or error event. A
// capture still missing its terminal event is checked again after its next
// write.
func (w *Watcher) Run(ctx context.Context, handle func(ctx context.Context, path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating capture watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching capture dir: %w", err)
	}
	w.logger.Info("watching captures", "dir", w.dir)

	ready := make(chan settled)
	timers := map[string]*time.Timer{}
	gens := map[string]int{}
	// seq only grows, so a stale timer never matches a later generation.
	seq := 0
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsCapture(ev.Name) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			path := filepath.Clean(ev.Name)
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			seq++
			gens[path] = seq
			s := settled{path: path, gen: seq}
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- s:
				case <-ctx.Done():
				}
			})

		case s := <-ready:
			// A timer that fired while being replaced is stale.
			if gens[s.path] != s.gen {
				continue
			}
			delete(timers, s.path)
			delete(gens, s.path)

			finished, err := Finished(s.path)
			switch {
			case err != nil:
				w.logger.Warn("checking capture", "path", s.path, "error", err)
			case !finished:
				w.logger.Debug("capture still streaming", "path", s.path)
			default:
				w.logger.Debug("capture settled", "path", s.path)
				handle(ctx, s.path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("capture watcher error", "error", err)
		}
	}
}
