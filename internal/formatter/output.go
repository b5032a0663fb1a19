package formatter

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

// Output formats.
const (
	OutputTree = "tree"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// ValidOutputs lists the accepted output formats.
var ValidOutputs = []string{OutputTree, OutputJSON, OutputYAML}

// ValidateOutput returns an error if format is not a known output format.
func ValidateOutput(format string) error {
	for _, valid := range ValidOutputs {
		if format == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid output %q: valid values are %s", format, strings.Join(ValidOutputs, ", "))
}

// Result is the structured form of one filtered tree.
type Result struct {
	Query    string                  `json:"query" yaml:"query"`
	Capped   bool                    `json:"capped" yaml:"capped"`
	Matched  int                     `json:"matched" yaml:"matched"`
	Expanded treefilter.ExpandedKeys `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Tree     []treefilter.Node       `json:"tree" yaml:"tree"`
}

// FormatJSON renders r as indented JSON with a trailing newline.
func FormatJSON(r Result) (string, error) {
	if r.Tree == nil {
		r.Tree = []treefilter.Node{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data) + "\n", nil
}

// FormatYAML renders r as YAML. Labels spanning lines use literal blocks.
func FormatYAML(r Result) (string, error) {
	if r.Tree == nil {
		r.Tree = []treefilter.Node{}
	}
	var node yaml.Node
	if err := node.Encode(r); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	applyLiteralStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return buf.String(), nil
}

func applyLiteralStyle(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}
