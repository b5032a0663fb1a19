package thesaurus

import (
	"strings"

	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

// TreeOptions controls how schemes become tree nodes.
type TreeOptions struct {
	Language       string // Preferred label language
	SystemLanguage string // Fallback label language
	Focus          string // Scheme or concept id to focus; empty shows everything
}

// TreeFromSchemes builds one root node per scheme, with top concepts and
// narrower concepts as children. Each node's Data holds the source Scheme or
// Concept. With a Focus, only the path to the focused node and its subtree
// are kept; an unknown focus id leaves the tree whole.
func TreeFromSchemes(schemes []Scheme, opts TreeOptions) []treefilter.Node {
	nodes := make([]treefilter.Node, 0, len(schemes))
	for _, s := range schemes {
		nodes = append(nodes, schemeNode(s, opts))
	}
	if opts.Focus == "" {
		return nodes
	}
	path := FindPath(nodes, opts.Focus)
	if path == nil {
		return nodes
	}
	return []treefilter.Node{focusPath(nodes, path)}
}

func schemeNode(s Scheme, opts TreeOptions) treefilter.Node {
	n := treefilter.Node{
		Key:   s.ID,
		Label: displayLabel(s.Labels, s.ID, opts),
		Kind:  KindScheme,
		Data:  s,
	}
	for _, c := range s.TopConcepts {
		n.Children = append(n.Children, conceptNode(c, opts))
	}
	return n
}

func conceptNode(c Concept, opts TreeOptions) treefilter.Node {
	n := treefilter.Node{
		Key:   c.ID,
		Label: displayLabel(c.Labels, c.ID, opts),
		Kind:  KindConcept,
		Data:  c,
	}
	for _, child := range c.Narrower {
		n.Children = append(n.Children, conceptNode(child, opts))
	}
	return n
}

func displayLabel(labels []Label, id string, opts TreeOptions) string {
	if l, ok := PreferredLabel(labels, opts.Language, opts.SystemLanguage); ok && l.Value != "" {
		return l.Value
	}
	return id
}

// focusPath rebuilds the branch along path: ancestors keep only the on-path
// child, the last node keeps its whole subtree.
func focusPath(nodes []treefilter.Node, path []string) treefilter.Node {
	var n treefilter.Node
	for _, candidate := range nodes {
		if candidate.Key == path[0] {
			n = candidate
			break
		}
	}
	if len(path) == 1 {
		return n
	}
	out := n
	out.Children = []treefilter.Node{focusPath(n.Children, path[1:])}
	return out
}

// FindPath returns the keys from a root down to key, or nil if key is absent.
func FindPath(nodes []treefilter.Node, key string) []string {
	for _, n := range nodes {
		if n.Key == key {
			return []string{n.Key}
		}
		if rest := FindPath(n.Children, key); rest != nil {
			return append([]string{n.Key}, rest...)
		}
	}
	return nil
}

// Walk visits nodes depth-first, parents before children. Returning false
// from fn skips the node's children.
func Walk(nodes []treefilter.Node, fn func(n treefilter.Node, depth int) bool) {
	var visit func(ns []treefilter.Node, depth int)
	visit = func(ns []treefilter.Node, depth int) {
		for _, n := range ns {
			if fn(n, depth) {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(nodes, 0)
}

// Count returns the number of nodes in the forest.
func Count(nodes []treefilter.Node) int {
	total := 0
	Walk(nodes, func(treefilter.Node, int) bool {
		total++
		return true
	})
	return total
}

// SearchableText matches against the lower-cased display label.
func SearchableText(n treefilter.Node) string {
	return strings.ToLower(n.Label)
}

// AllLabelsText matches against every label value of the underlying scheme or
// concept, so alternate and hidden labels are searchable too.
func AllLabelsText(n treefilter.Node) string {
	var labels []Label
	switch d := n.Data.(type) {
	case Scheme:
		labels = d.Labels
	case Concept:
		labels = d.Labels
	default:
		return strings.ToLower(n.Label)
	}
	values := make([]string, 0, len(labels)+1)
	values = append(values, n.Label)
	for _, l := range labels {
		if l.Value != n.Label {
			values = append(values, l.Value)
		}
	}
	return strings.ToLower(strings.Join(values, "\n"))
}
