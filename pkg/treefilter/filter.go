package treefilter

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/lingo/pkg/reactive"
	"github.com/oakwood-commons/lingo/pkg/schedule"
)

// Config holds the tuning constants of a Filter.
type Config struct {
	DebounceMs     int      // Delay before a typed query is applied (0 = next timer tick)
	RenderCap      int      // Maximum number of included nodes before the filter gives up
	SearchableText TextFunc // Extracts the text matched against the query
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("debounce must be non-negative, got %d", c.DebounceMs))
	}
	if c.RenderCap <= 0 {
		errs = append(errs, fmt.Errorf("render cap must be positive, got %d", c.RenderCap))
	}
	if c.SearchableText == nil {
		errs = append(errs, errors.New("searchable text function is required"))
	}
	return errors.Join(errs...)
}

// ErrNoScheduler is returned by New when WithScheduler was not given.
var ErrNoScheduler = errors.New("treefilter: a scheduler is required (use WithScheduler)")

// Option configures a Filter.
type Option func(*Filter)

// WithScheduler sets the scheduler used for the debounce timer. It is
// required. Callbacks must arrive on the goroutine that drives the filter's
// scope, e.g. schedule.Loop.Scheduler or schedule.RealTime with a Post hook.
func WithScheduler(s schedule.Scheduler) Option {
	return func(f *Filter) {
		f.sched = s
	}
}

// WithLogger sets the logger. Passes are logged at V(1).
func WithLogger(log logr.Logger) Option {
	return func(f *Filter) {
		f.log = log
	}
}

// Filter keeps a filtered view of a tree in sync with a debounced query.
//
// Inputs are the tree, the expansion state (read and written), and the raw
// query text. Outputs are the debounced query, the filtered tree and the
// capped flag. The expansion state in effect when a filter session starts is
// restored when the query is cleared, and also when a pass is capped.
type Filter struct {
	scope    *reactive.Scope
	tree     reactive.Value[[]Node]
	expanded reactive.Var[ExpandedKeys]
	query    reactive.Var[string]
	cfg      Config
	sched    schedule.Scheduler
	log      logr.Logger

	debounced *reactive.Cell[string]
	filtered  *reactive.Cell[[]Node]
	capped    *reactive.Cell[bool]

	snapshot      ExpandedKeys
	prevDebounced string
	pending       schedule.Timer
	stops         []func()
	closed        bool
}

// New creates a Filter and runs the first pass immediately with the current
// input values. The filter must be driven from the goroutine that owns scope,
// and WithScheduler is required.
func New(
	scope *reactive.Scope,
	tree reactive.Value[[]Node],
	expanded reactive.Var[ExpandedKeys],
	query reactive.Var[string],
	cfg Config,
	opts ...Option,
) (*Filter, error) {
	if scope == nil || tree == nil || expanded == nil || query == nil {
		return nil, errors.New("treefilter: scope, tree, expanded keys and query are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("treefilter: %w", err)
	}

	f := &Filter{
		scope:     scope,
		tree:      tree,
		expanded:  expanded,
		query:     query,
		cfg:       cfg,
		log:       logr.Discard(),
		debounced: reactive.NewCell(scope, "", reactive.WithEqual(reactive.Equal[string])),
		filtered:  reactive.NewCell[[]Node](scope, nil),
		capped:    reactive.NewCell(scope, false, reactive.WithEqual(reactive.Equal[bool])),
		snapshot:  ExpandedKeys{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.sched == nil {
		return nil, ErrNoScheduler
	}

	f.stops = append(f.stops, query.Observe(func() { f.onQuery(query.Get()) }))
	f.stops = append(f.stops, scope.Watch(f.run, tree, f.debounced))

	f.run()
	return f, nil
}

// DebouncedFilterValue is the query after debouncing.
func (f *Filter) DebouncedFilterValue() reactive.Value[string] {
	return reactive.ReadOnly[string](f.debounced)
}

// FilteredTree is the tree to render.
func (f *Filter) FilteredTree() reactive.Value[[]Node] {
	return reactive.ReadOnly[[]Node](f.filtered)
}

// IsFilterCapped reports whether the last pass gave up because too many
// nodes matched. The filtered tree is then the whole input tree.
func (f *Filter) IsFilterCapped() reactive.Value[bool] {
	return reactive.ReadOnly[bool](f.capped)
}

// Close cancels a pending debounce and stops reacting to inputs.
func (f *Filter) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.cancelPending()
	for _, stop := range f.stops {
		stop()
	}
	f.stops = nil
}

func (f *Filter) cancelPending() {
	if f.pending != nil {
		f.pending.Stop()
		f.pending = nil
	}
}

// onQuery debounces raw query changes. Clearing is applied at once.
func (f *Filter) onQuery(next string) {
	if f.closed {
		return
	}
	f.cancelPending()

	if next == "" {
		f.debounced.Set("")
		return
	}

	delay := time.Duration(f.cfg.DebounceMs) * time.Millisecond
	var timer schedule.Timer
	timer = f.sched.AfterFunc(delay, func() {
		if f.closed || f.pending != timer {
			return
		}
		f.pending = nil
		f.debounced.Set(next)
	})
	f.pending = timer
}

// run is one filtering pass over the current tree and debounced query.
func (f *Filter) run() {
	if f.closed {
		return
	}
	tree := f.tree.Get()
	current := f.debounced.Get()
	previous := f.prevDebounced
	f.prevDebounced = current

	query := Normalize(current)
	hadFilter := Normalize(previous) != ""
	hasFilter := query != ""

	if !hadFilter && hasFilter {
		f.snapshot = f.expanded.Get().Clone()
	}

	if hadFilter && !hasFilter {
		restored := f.snapshot.Clone()
		f.snapshot = ExpandedKeys{}
		f.scope.Batch(func() {
			f.expanded.Set(restored)
			f.capped.Set(false)
			f.filtered.Set(tree)
		})
		f.log.V(1).Info("filter session ended", "restoredKeys", len(restored))
		return
	}

	if !hasFilter {
		f.scope.Batch(func() {
			f.capped.Set(false)
			f.filtered.Set(tree)
		})
		return
	}

	res := Prune(tree, query, f.cfg.RenderCap, f.cfg.SearchableText)
	f.log.V(1).Info("filter pass", "query", query, "matched", res.Matched, "capped", res.Capped)

	if res.Capped {
		restored := f.snapshot.Clone()
		f.scope.Batch(func() {
			f.capped.Set(true)
			f.filtered.Set(tree)
			f.expanded.Set(restored)
		})
		return
	}

	f.scope.Batch(func() {
		f.capped.Set(false)
		f.filtered.Set(res.Roots)
		f.expanded.Set(res.Expanded)
	})
}
