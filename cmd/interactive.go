package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/lingo/internal/config"
	"github.com/oakwood-commons/lingo/internal/ui"
	"github.com/oakwood-commons/lingo/internal/watch"
	"github.com/oakwood-commons/lingo/pkg/logger"
	"github.com/oakwood-commons/lingo/pkg/settings"
	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

// runInteractive opens the browser. The terminal belongs to the browser, so
// logs go to the configured log file or nowhere.
func runInteractive(ctx context.Context, opts *rootOptions, cfg config.Config, src input, tree []treefilter.Node) error {
	log, closeLog, err := interactiveLogger(ctx, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	textFn, err := searchableText(cfg, log)
	if err != nil {
		return err
	}
	m, err := ui.New(ui.Options{
		Tree: tree,
		Filter: treefilter.Config{
			DebounceMs:     cfg.Filter.DebounceMs,
			RenderCap:      cfg.Filter.RenderCap,
			SearchableText: textFn,
		},
		Theme:   cfg.ActiveTheme(),
		Indent:  cfg.UI.Indent,
		NoColor: opts.noColor,
		Query:   opts.filter,
		Logger:  log.WithName("ui"),
	})
	if err != nil {
		return err
	}

	progOpts, cleanup := programOptions(ctx, src.path == "")
	defer cleanup()

	var attach ui.Attach
	if cfg.Watch.Enabled && src.path != "" {
		var w *watch.Watcher
		defer func() {
			if w != nil {
				_ = w.Close()
			}
		}()
		attach = func(send func(tea.Msg)) error {
			watcher, err := newReloadWatcher(src, cfg, opts.focus, log, send)
			if err != nil {
				return err
			}
			w = watcher
			return w.Start(ctx)
		}
	}

	log.Info("browser started", "source", src.name(), "watch", attach != nil)
	return ui.Run(ctx, m, attach, progOpts...)
}

// newReloadWatcher reloads the tree on its own goroutine and hands the
// result to the browser, which applies it inside Update.
func newReloadWatcher(src input, cfg config.Config, focus string, log logr.Logger, send func(tea.Msg)) (*watch.Watcher, error) {
	return watch.New(src.path,
		watch.WithDebounce(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond),
		watch.WithLogger(log.WithName("watch")),
		watch.WithOnChange(func() {
			tree, err := src.load(cfg, focus)
			if err != nil {
				err = fmt.Errorf("reload %s: %w", filepath.Base(src.path), err)
			}
			send(ui.TreeLoaded(tree, err))
		}),
		watch.WithOnError(func(err error) {
			send(ui.TreeLoaded(nil, err))
		}),
	)
}

func interactiveLogger(ctx context.Context, path string) (logr.Logger, func(), error) {
	if path == "" {
		return logr.Discard(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("open log file: %w", err)
	}
	level := logger.InfoLevel
	if run, ok := settings.FromContext(ctx); ok {
		level = run.MinLogLevel
	}
	return logger.New(f, level), func() { _ = f.Close() }, nil
}
