// Package watch owns the file-side of score tracking: it watches the
// game's scoredata.bin for writes, debounces the burst of events one save
// produces, and hands stable byte buffers to a reconcile callback. The
// callback owns everything else (decode, diff, persist, submit); this
// package never interprets the bytes.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReconcileFunc receives one complete, settled read of the score store.
type ReconcileFunc func(ctx context.Context, data []byte) error

// Config tunes the watcher.
type Config struct {
	// Path is the scoredata.bin location.
	Path string
	// Debounce is how long to wait after the last write event before
	// reading. The game writes the file in several chunks.
	Debounce time.Duration
	// Settle is an extra delay between the debounce firing and the read,
	// covering writers that pause mid-save.
	Settle time.Duration
}

// Watcher triggers reconcile runs from filesystem activity. Reconcile calls
// are made from a single goroutine, one at a time, which is the
// serialization the tracking core requires.
type Watcher struct {
	cfg       Config
	reconcile ReconcileFunc
	readFile  func(string) ([]byte, error)
	sleep     func(context.Context, time.Duration)
}

// New creates a watcher; cfg.Debounce and cfg.Settle fall back to 2s and
// 500ms, matching how long the game takes to finish a save.
func New(cfg Config, reconcile ReconcileFunc) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 500 * time.Millisecond
	}
	return &Watcher{
		cfg:       cfg,
		reconcile: reconcile,
		readFile:  os.ReadFile,
		sleep:     sleepCtx,
	}
}

// Run performs a catch-up pass over the current file (covering scores
// earned while the tracker was not running), then watches for writes until
// ctx is cancelled. Reconcile errors are logged, not fatal: one unreadable
// write must not kill tracking, and the next stable write gets a fresh
// decode.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.runOnce(ctx, "catch-up"); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "watch: create fsnotify watcher")
	}
	defer func() { _ = fsw.Close() }()

	// Watch the containing directory: the game replaces the file on save,
	// and a watch on the file itself dies with the old inode.
	dir := filepath.Dir(w.cfg.Path)
	if err := fsw.Add(dir); err != nil {
		return eris.Wrapf(err, "watch: add %s", dir)
	}

	zap.L().Info("watch: watching score store",
		zap.String("path", w.cfg.Path),
		zap.Duration("debounce", w.cfg.Debounce),
	)

	target := filepath.Base(w.cfg.Path)
	relevant := make(chan struct{}, 1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != target {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				select {
				case relevant <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				zap.L().Warn("watch: fsnotify error", zap.Error(err))
			}
		}
	}()

	return w.loop(ctx, relevant)
}

// loop debounces events and runs reconcile passes. Split out from Run so
// the timing behavior is testable without a real filesystem watcher.
func (w *Watcher) loop(ctx context.Context, events <-chan struct{}) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-events:
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.Debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			w.sleep(ctx, w.cfg.Settle)
			if ctx.Err() != nil {
				return nil
			}
			if err := w.runOnce(ctx, "change"); err != nil {
				zap.L().Error("watch: reconcile failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, reason string) error {
	data, err := w.readFile(w.cfg.Path)
	if os.IsNotExist(err) {
		// The game has never saved a score. Not an error; the first save
		// will raise a write event.
		zap.L().Debug("watch: score store does not exist yet", zap.String("path", w.cfg.Path))
		return nil
	}
	if err != nil {
		return eris.Wrapf(err, "watch: read %s", w.cfg.Path)
	}

	zap.L().Debug("watch: reconciling",
		zap.String("reason", reason),
		zap.Int("bytes", len(data)),
	)
	return w.reconcile(ctx, data)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
