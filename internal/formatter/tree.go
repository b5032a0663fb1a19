// Package formatter renders filtered thesaurus trees for the terminal and as
// structured JSON or YAML.
package formatter

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

// TreeOptions controls tree output formatting.
type TreeOptions struct {
	// ShowKeys appends each node's key after its label.
	ShowKeys bool
	// MaxDepth limits tree depth (0 = unlimited).
	MaxDepth int
	// Expanded, when non-nil, hides the children of collapsed nodes and
	// shows a "(+N)" child count instead.
	Expanded treefilter.ExpandedKeys
	// MaxLabelLen truncates labels to this display width (0 = unlimited).
	MaxLabelLen int
	// Highlight marks occurrences of this query in labels.
	Highlight *Highlighter
}

// FormatTree renders nodes as an ASCII tree under a "." root.
func FormatTree(nodes []treefilter.Node, opts TreeOptions) string {
	tree := treeprint.New()
	addNodes(tree, nodes, opts, 0)
	return tree.String()
}

func addNodes(branch treeprint.Tree, nodes []treefilter.Node, opts TreeOptions, depth int) {
	for _, n := range nodes {
		text := nodeText(n, opts)

		switch {
		case n.IsLeaf():
			branch.AddNode(text)
		case opts.Expanded != nil && !opts.Expanded.IsExpanded(n.Key):
			branch.AddNode(fmt.Sprintf("%s (+%d)", text, len(n.Children)))
		case opts.MaxDepth > 0 && depth+1 >= opts.MaxDepth:
			branch.AddBranch(text).AddNode("...")
		default:
			addNodes(branch.AddBranch(text), n.Children, opts, depth+1)
		}
	}
}

func nodeText(n treefilter.Node, opts TreeOptions) string {
	label := n.Label
	if opts.MaxLabelLen > 0 {
		label = runewidth.Truncate(label, opts.MaxLabelLen, "...")
	}
	if opts.Highlight != nil {
		label = opts.Highlight.Apply(label)
	}
	if opts.ShowKeys && n.Key != n.Label {
		label = fmt.Sprintf("%s [%s]", label, n.Key)
	}
	return label
}
