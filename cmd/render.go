package cmd

import (
	"fmt"
	"io"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/lingo/internal/config"
	"github.com/oakwood-commons/lingo/internal/formatter"
	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

// printer writes filter results in the requested output format.
type printer struct {
	out     io.Writer
	errOut  io.Writer
	opts    *rootOptions
	cfg     config.Config
	colored bool
}

func (p printer) print(res formatter.Result) error {
	if res.Capped {
		fmt.Fprintf(p.errOut, "warning: more than %d nodes match %q; showing the whole tree\n", p.cfg.Filter.RenderCap, res.Query)
	}

	var (
		text string
		err  error
	)
	switch p.opts.output {
	case formatter.OutputJSON:
		text, err = formatter.FormatJSON(res)
	case formatter.OutputYAML:
		text, err = formatter.FormatYAML(res)
	default:
		text = formatter.FormatTree(res.Tree, p.treeOptions(res))
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.out, text)
	return err
}

func (p printer) treeOptions(res formatter.Result) formatter.TreeOptions {
	opts := formatter.TreeOptions{
		ShowKeys: p.opts.showKeys,
		MaxDepth: p.opts.maxDepth,
	}
	if p.opts.collapse {
		opts.Expanded = res.Expanded
		if opts.Expanded == nil {
			opts.Expanded = treefilter.ExpandedKeys{}
		}
	}
	if p.colored && !res.Capped {
		match := p.cfg.ActiveTheme().Match
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(string(match))).Bold(true)
		opts.Highlight = formatter.NewHighlighter(res.Query, style)
	}
	return opts
}
