package treefilter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/lingo/pkg/reactive"
	"github.com/oakwood-commons/lingo/pkg/schedule"
)

// schemeTree is:
//
//	Scheme A
//	├── Concept 1
//	│   ├── Concept 2
//	│   └── Concept 3
//	└── Concept 4
func schemeTree() []Node {
	return []Node{
		{Key: "scheme-a", Label: "Scheme A", Kind: "scheme", Children: []Node{
			{Key: "concept-1", Label: "Concept 1", Kind: "concept", Children: []Node{
				{Key: "concept-2", Label: "Concept 2", Kind: "concept"},
				{Key: "concept-3", Label: "Concept 3", Kind: "concept"},
			}},
			{Key: "concept-4", Label: "Concept 4", Kind: "concept"},
		}},
	}
}

type harness struct {
	scope    *reactive.Scope
	clock    *schedule.Manual
	tree     *reactive.Cell[[]Node]
	expanded *reactive.Cell[ExpandedKeys]
	query    *reactive.Cell[string]
	filter   *Filter
	passes   int
}

func newHarness(t *testing.T, tree []Node, debounceMs, renderCap int) *harness {
	t.Helper()
	h := &harness{
		scope: reactive.NewScope(),
		clock: schedule.NewManual(),
	}
	h.tree = reactive.NewCell(h.scope, tree)
	h.expanded = reactive.NewCell(h.scope, ExpandedKeys{})
	h.query = reactive.NewCell(h.scope, "", reactive.WithEqual(reactive.Equal[string]))

	f, err := New(h.scope, h.tree, h.expanded, h.query, Config{
		DebounceMs:     debounceMs,
		RenderCap:      renderCap,
		SearchableText: LabelText,
	}, WithScheduler(h.clock))
	require.NoError(t, err)
	t.Cleanup(f.Close)
	h.filter = f

	h.scope.Watch(func() { h.passes++ }, f.FilteredTree())
	return h
}

func (h *harness) typeQuery(q string, wait time.Duration) {
	h.query.Set(q)
	h.clock.Advance(wait)
}

func TestNewRunsImmediately(t *testing.T) {
	h := newHarness(t, schemeTree(), 100, 10)
	assert.Equal(t, schemeTree(), h.filter.FilteredTree().Get())
	assert.False(t, h.filter.IsFilterCapped().Get())
	assert.Equal(t, "", h.filter.DebouncedFilterValue().Get())
}

func TestNewValidatesConfig(t *testing.T) {
	s := reactive.NewScope()
	tree := reactive.NewCell[[]Node](s, nil)
	expanded := reactive.NewCell(s, ExpandedKeys{})
	query := reactive.NewCell(s, "")

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "negative debounce", cfg: Config{DebounceMs: -1, RenderCap: 1, SearchableText: LabelText}, want: "debounce must be non-negative"},
		{name: "zero cap", cfg: Config{RenderCap: 0, SearchableText: LabelText}, want: "render cap must be positive"},
		{name: "missing text func", cfg: Config{RenderCap: 1}, want: "searchable text function is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(s, tree, expanded, query, tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := New(nil, tree, expanded, query, Config{RenderCap: 1, SearchableText: LabelText})
	require.Error(t, err)
}

func TestNewRequiresScheduler(t *testing.T) {
	s := reactive.NewScope()
	tree := reactive.NewCell(s, schemeTree())
	expanded := reactive.NewCell(s, ExpandedKeys{})
	query := reactive.NewCell(s, "")

	f, err := New(s, tree, expanded, query, Config{DebounceMs: 1, RenderCap: 10, SearchableText: LabelText})
	require.ErrorIs(t, err, ErrNoScheduler)
	assert.Nil(t, f)

	_, err = New(s, tree, expanded, query, Config{DebounceMs: 1, RenderCap: 10, SearchableText: LabelText},
		WithScheduler(nil))
	require.ErrorIs(t, err, ErrNoScheduler)
}

// Wall-clock timers posted into a Loop: every cell access happens on the
// loop goroutine, so this stays clean under -race.
func TestLoopSchedulerKeepsFilterOnOneGoroutine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	loop := schedule.NewLoop()
	go func() { _ = loop.Run(ctx) }()
	defer loop.Stop()

	var (
		h   harness
		err error
	)
	require.NoError(t, loop.Do(ctx, func() {
		h.scope = reactive.NewScope()
		h.tree = reactive.NewCell(h.scope, schemeTree())
		h.expanded = reactive.NewCell(h.scope, ExpandedKeys{})
		h.query = reactive.NewCell(h.scope, "", reactive.WithEqual(reactive.Equal[string]))
		h.filter, err = New(h.scope, h.tree, h.expanded, h.query,
			Config{DebounceMs: 1, RenderCap: 10, SearchableText: LabelText},
			WithScheduler(loop.Scheduler()))
	}))
	require.NoError(t, err)

	for range 20 {
		require.NoError(t, loop.Do(ctx, func() { h.query.Set("concept") }))
		time.Sleep(time.Millisecond)
		require.NoError(t, loop.Do(ctx, func() {
			h.expanded.Set(ExpandedKeys{"concept-1": true})
			h.query.Set("")
		}))
	}

	require.NoError(t, loop.Do(ctx, func() {
		h.expanded.Set(ExpandedKeys{"concept-1": true})
		h.query.Set("concept 4")
	}))
	assert.Eventually(t, func() bool {
		var got string
		_ = loop.Do(ctx, func() { got = h.filter.DebouncedFilterValue().Get() })
		return got == "concept 4"
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, loop.Do(ctx, func() {
		assert.Equal(t, ExpandedKeys{"scheme-a": true}, h.expanded.Get())
		h.query.Set("")
		assert.Equal(t, ExpandedKeys{"concept-1": true}, h.expanded.Get())
		h.filter.Close()
	}))
}

func TestScenarioSingleMatchExpandsAncestors(t *testing.T) {
	h := newHarness(t, schemeTree(), 50, 10)

	h.typeQuery("concept 2", 50*time.Millisecond)

	want := []Node{
		{Key: "scheme-a", Label: "Scheme A", Kind: "scheme", Children: []Node{
			{Key: "concept-1", Label: "Concept 1", Kind: "concept", Children: []Node{
				{Key: "concept-2", Label: "Concept 2", Kind: "concept"},
			}},
		}},
	}
	assert.Equal(t, want, h.filter.FilteredTree().Get())
	assert.Equal(t, ExpandedKeys{"scheme-a": true, "concept-1": true}, h.expanded.Get())
	assert.False(t, h.filter.IsFilterCapped().Get())
	assert.Equal(t, "concept 2", h.filter.DebouncedFilterValue().Get())
}

func TestScenarioCapFallsBackToFullTree(t *testing.T) {
	h := newHarness(t, schemeTree(), 0, 1)
	before := ExpandedKeys{"scheme-a": true}
	h.expanded.Set(before)

	h.typeQuery("concept", 0)

	assert.True(t, h.filter.IsFilterCapped().Get())
	assert.Equal(t, schemeTree(), h.filter.FilteredTree().Get())
	assert.Equal(t, before, h.expanded.Get())
}

func TestScenarioClearBeforeDebounceFires(t *testing.T) {
	h := newHarness(t, schemeTree(), 100, 10)

	var debouncedChanges int
	h.scope.Watch(func() { debouncedChanges++ }, h.filter.DebouncedFilterValue())

	h.query.Set("x")
	h.clock.Advance(50 * time.Millisecond)
	h.query.Set("")
	h.clock.Advance(time.Second)

	assert.Equal(t, 0, debouncedChanges)
	assert.Equal(t, 0, h.passes)
	assert.Equal(t, "", h.filter.DebouncedFilterValue().Get())
	assert.Equal(t, 0, h.clock.Pending())
}

func TestDebounceCoalescesRapidInput(t *testing.T) {
	h := newHarness(t, schemeTree(), 100, 10)

	for _, q := range []string{"c", "co", "con", "concept 4"} {
		h.query.Set(q)
		h.clock.Advance(40 * time.Millisecond)
	}
	assert.Equal(t, 0, h.passes, "no pass before the input settles")

	h.clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, h.passes)
	assert.Equal(t, "concept 4", h.filter.DebouncedFilterValue().Get())

	want := []Node{
		{Key: "scheme-a", Label: "Scheme A", Kind: "scheme", Children: []Node{
			{Key: "concept-4", Label: "Concept 4", Kind: "concept"},
		}},
	}
	assert.Equal(t, want, h.filter.FilteredTree().Get())
}

func TestZeroDebounceStillUsesTimer(t *testing.T) {
	h := newHarness(t, schemeTree(), 0, 10)

	h.query.Set("concept 3")
	assert.Equal(t, "", h.filter.DebouncedFilterValue().Get())
	assert.Equal(t, 1, h.clock.Pending())

	h.clock.Advance(0)
	assert.Equal(t, "concept 3", h.filter.DebouncedFilterValue().Get())
}

func TestClearingIsImmediate(t *testing.T) {
	h := newHarness(t, schemeTree(), 200, 10)
	h.typeQuery("concept 2", 200*time.Millisecond)
	require.Equal(t, "concept 2", h.filter.DebouncedFilterValue().Get())

	h.query.Set("")
	assert.Equal(t, "", h.filter.DebouncedFilterValue().Get())
	assert.Equal(t, schemeTree(), h.filter.FilteredTree().Get())
}

func TestExpansionRoundTrip(t *testing.T) {
	h := newHarness(t, schemeTree(), 10, 10)
	original := ExpandedKeys{"concept-1": true, "concept-4": false}
	h.expanded.Set(original)

	h.typeQuery("concept 3", 10*time.Millisecond)
	assert.Equal(t, ExpandedKeys{"scheme-a": true, "concept-1": true}, h.expanded.Get())

	h.typeQuery("concept 2", 10*time.Millisecond)
	assert.Equal(t, ExpandedKeys{"scheme-a": true, "concept-1": true}, h.expanded.Get())

	h.query.Set("")
	assert.Equal(t, original, h.expanded.Get())
	assert.False(t, h.filter.IsFilterCapped().Get())
}

func TestSnapshotIsIsolatedFromLaterMutation(t *testing.T) {
	h := newHarness(t, schemeTree(), 0, 10)
	original := ExpandedKeys{"concept-1": true}
	h.expanded.Set(original)

	h.typeQuery("scheme", 0)
	original["concept-4"] = true

	h.query.Set("")
	assert.Equal(t, ExpandedKeys{"concept-1": true}, h.expanded.Get())
}

func TestCappedSessionRecoversWhenQueryNarrows(t *testing.T) {
	h := newHarness(t, schemeTree(), 0, 2)
	h.expanded.Set(ExpandedKeys{"concept-1": true})

	h.typeQuery("concept", 0)
	require.True(t, h.filter.IsFilterCapped().Get())

	h.typeQuery("concept 4", 0)
	assert.False(t, h.filter.IsFilterCapped().Get())
	assert.Equal(t, ExpandedKeys{"scheme-a": true}, h.expanded.Get())

	h.query.Set("")
	assert.Equal(t, ExpandedKeys{"concept-1": true}, h.expanded.Get())
}

func TestTreeChangeRefiltersActiveSession(t *testing.T) {
	h := newHarness(t, schemeTree(), 0, 10)
	h.typeQuery("concept 5", 0)
	assert.Empty(t, h.filter.FilteredTree().Get())

	updated := schemeTree()
	updated[0].Children = append(updated[0].Children, Node{Key: "concept-5", Label: "Concept 5"})
	h.tree.Set(updated)

	got := h.filter.FilteredTree().Get()
	require.Len(t, got, 1)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, "concept-5", got[0].Children[0].Key)
}

func TestTreeChangeWithoutFilterPassesThrough(t *testing.T) {
	h := newHarness(t, schemeTree(), 0, 10)
	h.expanded.Set(ExpandedKeys{"scheme-a": true})

	h.tree.Set(nil)
	assert.Empty(t, h.filter.FilteredTree().Get())
	assert.Equal(t, ExpandedKeys{"scheme-a": true}, h.expanded.Get())
}

func TestTreeEmptiedDuringActiveSession(t *testing.T) {
	h := newHarness(t, schemeTree(), 0, 10)
	before := ExpandedKeys{"concept-4": true}
	h.expanded.Set(before)
	h.typeQuery("concept 2", 0)
	require.Len(t, h.filter.FilteredTree().Get(), 1)

	h.tree.Set(nil)
	assert.Empty(t, h.filter.FilteredTree().Get())
	assert.False(t, h.filter.IsFilterCapped().Get())
	assert.Equal(t, ExpandedKeys{}, h.expanded.Get())

	h.tree.Set(schemeTree())
	require.Len(t, h.filter.FilteredTree().Get(), 1)
	assert.Equal(t, ExpandedKeys{"scheme-a": true, "concept-1": true}, h.expanded.Get())

	h.query.Set("")
	assert.Equal(t, before, h.expanded.Get())
	assert.Equal(t, schemeTree(), h.filter.FilteredTree().Get())
}

func TestCloseCancelsPendingTimer(t *testing.T) {
	h := newHarness(t, schemeTree(), 100, 10)
	h.query.Set("concept")
	require.Equal(t, 1, h.clock.Pending())

	h.filter.Close()
	h.filter.Close()
	assert.Equal(t, 0, h.clock.Pending())

	h.clock.Advance(time.Second)
	h.query.Set("scheme")
	h.clock.Advance(time.Second)
	assert.Equal(t, "", h.filter.DebouncedFilterValue().Get())
	assert.Equal(t, 0, h.passes)
}

func TestOutputsPublishedTogether(t *testing.T) {
	h := newHarness(t, schemeTree(), 0, 10)

	var seen []struct {
		capped bool
		roots  int
	}
	h.scope.Watch(func() {
		seen = append(seen, struct {
			capped bool
			roots  int
		}{h.filter.IsFilterCapped().Get(), len(h.filter.FilteredTree().Get())})
	}, h.filter.FilteredTree(), h.filter.IsFilterCapped(), h.expanded)

	h.typeQuery("nothing matches this", 0)
	require.Len(t, seen, 1)
	assert.Equal(t, 0, seen[0].roots)
}
