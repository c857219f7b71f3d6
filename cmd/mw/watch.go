package main

import (
	"context"
	"fmt"
	"io"

	"github.com/vanderheijden86/mindwork/pkg/config"
	"github.com/vanderheijden86/mindwork/pkg/watcher"
)

// watchMap reloads the session whenever the map changes on disk and calls
// onReload after each successful reload. When relayout is set the reloaded
// map is laid out and written back; that write is not reported again.
func watchMap(ctx context.Context, s *session, cfg config.WatchConfig, relayout bool, stderr io.Writer, onReload func()) error {
	w, err := watcher.New(s.path,
		watcher.WithDebounceDuration(cfg.Debounce),
		watcher.WithPollInterval(cfg.PollInterval),
		watcher.WithForcePoll(cfg.ForcePoll),
		watcher.WithOnError(func(err error) {
			fmt.Fprintf(stderr, "Watch error: %v\n", err)
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	mode := "fsnotify"
	if w.IsPolling() {
		mode = fmt.Sprintf("polling every %s", w.PollInterval())
	}
	fmt.Fprintf(stderr, "Watching %s (%s, %s filesystem). Ctrl-C to stop.\n", w.Path(), mode, w.FilesystemType())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Changed():
		}
		if err := s.reload(ctx); err != nil {
			fmt.Fprintf(stderr, "Reload failed: %v\n", err)
			continue
		}
		if relayout {
			if err := s.editor.RelayoutAll(); err != nil {
				fmt.Fprintf(stderr, "Layout failed: %v\n", err)
				continue
			}
			if _, err := s.save(ctx, false); err != nil {
				fmt.Fprintf(stderr, "Save failed: %v\n", err)
				continue
			}
			w.MarkOwnWrite()
		}
		onReload()
	}
}
