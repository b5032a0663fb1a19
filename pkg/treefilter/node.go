// Package treefilter filters a tree of nodes by a debounced text query,
// caps the number of matched nodes, and preserves the caller's expansion
// state across filter sessions.
package treefilter

import "strings"

// Node is a node in an n-ary tree. Keys are unique within one tree snapshot.
type Node struct {
	Key      string `json:"key" yaml:"key"`
	Label    string `json:"label" yaml:"label"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Data     any    `json:"-" yaml:"-"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsLeaf reports whether n has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// TextFunc derives the searchable text of a node. It must be pure.
type TextFunc func(Node) string

// LabelText is the default TextFunc: the node label.
func LabelText(n Node) string {
	return n.Label
}

// ExpandedKeys maps node keys to their expanded state.
type ExpandedKeys map[string]bool

// Clone returns an independent copy. Cloning nil yields an empty map.
func (e ExpandedKeys) Clone() ExpandedKeys {
	out := make(ExpandedKeys, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// IsExpanded reports whether key is expanded.
func (e ExpandedKeys) IsExpanded(key string) bool {
	return e[key]
}

// Normalize trims whitespace and lower-cases a query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
