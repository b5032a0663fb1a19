package treefilter

import "strings"

// Result is the outcome of one match-and-prune pass.
type Result struct {
	// Roots holds the pruned tree. It is nil when the pass was capped.
	Roots []Node
	// Expanded marks every included node that kept at least one child.
	Expanded ExpandedKeys
	// Matched counts included nodes: text matches plus the ancestors needed
	// to reach them.
	Matched int
	// Capped is set when Matched would exceed the render cap.
	Capped bool
}

// Prune keeps the nodes whose searchable text contains query, together with
// their ancestors. The query is normalized first; an empty query keeps
// nothing. Once more than renderCap nodes have been included the pass stops
// and returns a capped Result with no partial tree.
func Prune(roots []Node, query string, renderCap int, text TextFunc) Result {
	p := pruner{
		query:    Normalize(query),
		cap:      renderCap,
		text:     text,
		expanded: ExpandedKeys{},
	}

	filtered := make([]Node, 0, len(roots))
	for _, root := range roots {
		node, ok := p.filter(root)
		if p.capped {
			break
		}
		if ok {
			filtered = append(filtered, node)
		}
	}

	if p.capped {
		return Result{Expanded: ExpandedKeys{}, Matched: p.included, Capped: true}
	}
	return Result{Roots: filtered, Expanded: p.expanded, Matched: p.included}
}

type pruner struct {
	query    string
	cap      int
	text     TextFunc
	included int
	capped   bool
	expanded ExpandedKeys
}

// include counts one node against the cap.
func (p *pruner) include() {
	p.included++
	if p.included > p.cap {
		p.capped = true
	}
}

// filter is post-order: children are decided before their parent, so a
// parent is kept whenever any descendant matched.
func (p *pruner) filter(n Node) (Node, bool) {
	if p.capped {
		return Node{}, false
	}

	var children []Node
	for _, child := range n.Children {
		kept, ok := p.filter(child)
		if ok {
			children = append(children, kept)
		}
		if p.capped {
			break
		}
	}
	if p.capped {
		return Node{}, false
	}

	matches := p.query != "" && strings.Contains(strings.ToLower(p.text(n)), p.query)
	if !matches && len(children) == 0 {
		return Node{}, false
	}

	p.include()
	if p.capped {
		return Node{}, false
	}

	if len(children) > 0 {
		p.expanded[n.Key] = true
	}

	out := n
	out.Children = children
	return out, true
}
