package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/lingo/internal/config"
	"github.com/oakwood-commons/lingo/internal/formatter"
	"github.com/oakwood-commons/lingo/internal/watch"
	"github.com/oakwood-commons/lingo/pkg/reactive"
	"github.com/oakwood-commons/lingo/pkg/schedule"
	"github.com/oakwood-commons/lingo/pkg/thesaurus"
	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

// session is a Filter with its input cells. All of its methods must run on
// the loop goroutine.
type session struct {
	tree     *reactive.Cell[[]treefilter.Node]
	expanded *reactive.Cell[treefilter.ExpandedKeys]
	query    *reactive.Cell[string]
	filter   *treefilter.Filter
	cfg      treefilter.Config
}

func newSession(tree []treefilter.Node, cfg treefilter.Config, sched schedule.Scheduler, log logr.Logger) (*session, error) {
	scope := reactive.NewScope()
	s := &session{
		tree:     reactive.NewCell(scope, tree),
		expanded: reactive.NewCell(scope, treefilter.ExpandedKeys{}),
		query:    reactive.NewCell(scope, "", reactive.WithEqual(reactive.Equal[string])),
		cfg:      cfg,
	}
	filter, err := treefilter.New(scope, s.tree, s.expanded, s.query, cfg,
		treefilter.WithScheduler(sched),
		treefilter.WithLogger(log.WithName("filter")))
	if err != nil {
		return nil, fmt.Errorf("create filter: %w", err)
	}
	s.filter = filter
	return s, nil
}

// apply sets the filter text and calls settled once the debounced pass
// for it has run. An empty query settles at once.
func (s *session) apply(query string, settled func()) {
	if query == "" {
		settled()
		return
	}
	done := false
	var cancel func()
	cancel = s.filter.DebouncedFilterValue().Observe(func() {
		if done {
			return
		}
		done = true
		cancel()
		settled()
	})
	s.query.Set(query)
}

// result snapshots the outputs. A capped pass reports the match count at
// which filtering stopped.
func (s *session) result() formatter.Result {
	tree := s.filter.FilteredTree().Get()
	res := formatter.Result{
		Query:    s.filter.DebouncedFilterValue().Get(),
		Capped:   s.filter.IsFilterCapped().Get(),
		Expanded: s.expanded.Get().Clone(),
		Tree:     tree,
	}
	switch {
	case res.Capped:
		res.Matched = s.cfg.RenderCap + 1
	case treefilter.Normalize(res.Query) != "":
		res.Matched = thesaurus.Count(tree)
	}
	return res
}

// startLoop runs a loop until ctx is done or the returned stop is called.
func startLoop(ctx context.Context) (*schedule.Loop, func()) {
	loop := schedule.NewLoop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	return loop, func() {
		loop.Stop()
		<-done
	}
}

// openSession creates a session on loop and waits until query has been
// applied.
func openSession(ctx context.Context, loop *schedule.Loop, tree []treefilter.Node, cfg treefilter.Config, query string, log logr.Logger) (*session, error) {
	var (
		s   *session
		err error
	)
	settled := make(chan struct{})
	if doErr := loop.Do(ctx, func() {
		if s, err = newSession(tree, cfg, loop.Scheduler(), log); err != nil {
			return
		}
		s.apply(query, func() { close(settled) })
	}); doErr != nil {
		return nil, doErr
	}
	if err != nil {
		return nil, err
	}
	select {
	case <-settled:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runOnce filters tree by query and returns the settled result.
func runOnce(ctx context.Context, tree []treefilter.Node, cfg treefilter.Config, query string, log logr.Logger) (formatter.Result, error) {
	loop, stop := startLoop(ctx)
	defer stop()

	s, err := openSession(ctx, loop, tree, cfg, query, log)
	if err != nil {
		return formatter.Result{}, err
	}
	var res formatter.Result
	err = loop.Do(ctx, func() {
		res = s.result()
		s.filter.Close()
	})
	return res, err
}

// runWatch prints the filtered tree, then again after every change to the
// input file, until ctx is done.
func runWatch(ctx context.Context, src input, appCfg config.Config, opts *rootOptions, cfg treefilter.Config, tree []treefilter.Node, p printer, log logr.Logger) error {
	loop, stop := startLoop(ctx)
	defer stop()

	s, err := openSession(ctx, loop, tree, cfg, opts.filter, log)
	if err != nil {
		return err
	}
	defer func() { _ = loop.Do(context.Background(), s.filter.Close) }()

	var printErr error
	if err := loop.Do(ctx, func() { printErr = p.print(s.result()) }); err != nil {
		return err
	}
	if printErr != nil {
		return printErr
	}

	w, err := watch.New(src.path,
		watch.WithDebounce(time.Duration(appCfg.Watch.DebounceMs)*time.Millisecond),
		watch.WithScheduler(schedule.RealTime{Post: loop.Post}),
		watch.WithLogger(log.WithName("watch")),
		watch.WithOnChange(func() {
			next, err := src.load(appCfg, opts.focus)
			if err != nil {
				log.Error(err, "reload failed", "path", src.path)
				fmt.Fprintf(p.errOut, "reload failed: %v\n", err)
				return
			}
			s.tree.Set(next)
			if err := p.print(s.result()); err != nil {
				log.Error(err, "print failed")
			}
		}),
		watch.WithOnError(watchErrorReporter(loop.Post, p, src.path, log)),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Close()

	<-ctx.Done()
	return nil
}

// watchErrorReporter reports watcher errors on the loop goroutine, where all
// other output is written.
func watchErrorReporter(post func(func()), p printer, path string, log logr.Logger) func(error) {
	return func(err error) {
		post(func() {
			log.Error(err, "watch error", "path", path)
			fmt.Fprintf(p.errOut, "watch: %v\n", err)
		})
	}
}
