package cmd

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/linegen/log"
)

// Watch regenerates templates whenever they change.
type Watch struct {
	GenFlags `embed:""`

	Debounce time.Duration `default:"100ms" help:"Quiet period after a change before regenerating."`
}

// Run executes the watch command. It generates once, then again after each
// burst of template changes, until ctx is canceled.
func (w *Watch) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if slices.Contains(w.Templates, stdinSource) {
		return ErrWatch.Wrap(ErrNoTemplates).With(slog.String("source", stdinSource))
	}

	gen, err := w.generator()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}
	defer watcher.Close()

	match, err := w.watchTargets(watcher)
	if err != nil {
		return err
	}

	regenerate := func(ctx context.Context) error {
		templates, err := collectTemplates(w.sources(), w.Suffix)
		if err != nil {
			return err
		}

		return gen.run(ctx, templates)
	}

	if err := regenerate(ctx); err != nil {
		log.ErrorContext(ctx, "generation failed", slog.Any("error", err))
	}

	return watchLoop(ctx, watcher.Events, watcher.Errors, w.Debounce, match,
		func(ctx context.Context, ev fsnotify.Event) {
			// New directories under a watched tree must be watched too.
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addTree(watcher, ev.Name)
				}
			}
		},
		func(ctx context.Context) {
			if err := regenerate(ctx); err != nil {
				log.ErrorContext(ctx, "generation failed", slog.Any("error", err))
			}
		},
	)
}

// watchTargets adds the watches for every template source and returns a
// predicate reporting whether a changed path is a template.
func (w *Watch) watchTargets(watcher *fsnotify.Watcher) (func(string) bool, error) {
	var files []string

	for _, src := range w.sources() {
		info, err := os.Stat(src)
		if err != nil {
			return nil, ErrWatch.Wrap(err).With(slog.String("path", src))
		}

		if info.IsDir() {
			if err := addTree(watcher, src); err != nil {
				return nil, err
			}

			continue
		}

		// Watch the parent so editors that replace files are observed.
		if err := watcher.Add(filepath.Dir(src)); err != nil {
			return nil, ErrWatch.Wrap(err).With(slog.String("path", src))
		}

		files = append(files, filepath.Clean(src))
	}

	suffix := w.Suffix

	return func(path string) bool {
		path = filepath.Clean(path)

		return slices.Contains(files, path) ||
			(suffix != "" && strings.HasSuffix(path, suffix))
	}, nil
}

// addTree watches root and every directory below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if err := watcher.Add(path); err != nil {
			return ErrWatch.Wrap(err).With(slog.String("path", path))
		}

		return nil
	})
}

// watchLoop consumes file system events until ctx is canceled or a channel
// closes. Every event is passed to observe. Events on paths accepted by
// match (re)arm a timer of length delay, and run is called once the timer
// fires, so a burst of changes causes a single regeneration.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	delay time.Duration,
	match func(string) bool,
	observe func(context.Context, fsnotify.Event),
	run func(context.Context),
) error {
	timer := time.NewTimer(delay)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}

			if observe != nil {
				observe(ctx, ev)
			}

			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) || !match(ev.Name) {
				continue
			}

			log.DebugContext(ctx, "template changed",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()),
			)

			timer.Reset(delay)

		case err, ok := <-errs:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "watch error", slog.String("error", err.Error()))

		case <-timer.C:
			run(ctx)
		}
	}
}
