// Package textexpr compiles CEL expressions that derive the searchable text
// of a tree node.
//
// An expression sees one variable, node, a map with:
//
//	key     string
//	label   string
//	kind    string
//	labels  list of {value, language, valuetype} maps
//
// It must produce a string or a list of strings (joined with spaces).
// Example: node.labels.filter(l, l.valuetype != "hiddenLabel").map(l, l.value)
package textexpr

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/lingo/pkg/thesaurus"
	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

// NodeVar is the name the expression uses for the node.
const NodeVar = "node"

// Option configures an Expr.
type Option func(*Expr)

// WithLogger sets the logger used to report the first evaluation failure.
func WithLogger(log logr.Logger) Option {
	return func(e *Expr) {
		e.log = log
	}
}

// Expr is a compiled searchable-text expression.
type Expr struct {
	source string
	prg    cel.Program
	log    logr.Logger
	warned sync.Once
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(NodeVar, cel.MapType(cel.StringType, cel.DynType)),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
}

// Compile parses and type-checks source once.
func Compile(source string, opts ...Option) (*Expr, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", source, issues.Err())
	}
	if err := checkFields(ast); err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	switch ast.OutputType().Kind() {
	case types.StringKind, types.ListKind, types.DynKind, types.AnyKind:
	default:
		return nil, fmt.Errorf("compile %q: result must be a string or a list of strings, got %s",
			source, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", source, err)
	}

	e := &Expr{source: source, prg: prg, log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// String returns the expression source.
func (e *Expr) String() string {
	return e.source
}

// Eval computes the searchable text of n.
func (e *Expr) Eval(n treefilter.Node) (string, error) {
	out, _, err := e.prg.Eval(map[string]any{NodeVar: Vars(n)})
	if err != nil {
		return "", fmt.Errorf("eval %q: %w", e.source, err)
	}
	return toText(out)
}

// Text is a treefilter.TextFunc. A failing evaluation falls back to the
// node label; only the first failure is logged.
func (e *Expr) Text(n treefilter.Node) string {
	text, err := e.Eval(n)
	if err != nil {
		e.warned.Do(func() {
			e.log.Error(err, "searchable text expression failed, matching labels instead", "key", n.Key)
		})
		return n.Label
	}
	return text
}

// Vars builds the node variable for n.
func Vars(n treefilter.Node) map[string]any {
	var labels []thesaurus.Label
	switch d := n.Data.(type) {
	case thesaurus.Scheme:
		labels = d.Labels
	case thesaurus.Concept:
		labels = d.Labels
	}
	list := make([]any, 0, len(labels))
	for _, l := range labels {
		list = append(list, map[string]any{
			"value":     l.Value,
			"language":  l.LanguageID,
			"valuetype": l.ValueType,
		})
	}
	return map[string]any{
		"key":    n.Key,
		"label":  n.Label,
		"kind":   n.Kind,
		"labels": list,
	}
}

var stringSlice = reflect.TypeOf([]string(nil))

func toText(val ref.Val) (string, error) {
	switch v := val.(type) {
	case types.String:
		return string(v), nil
	case traits.Lister:
		native, err := v.ConvertToNative(stringSlice)
		if err != nil {
			return "", fmt.Errorf("result must be a list of strings: %w", err)
		}
		return strings.Join(native.([]string), " "), nil
	}
	return "", fmt.Errorf("result %v is %s, not a string", val, val.Type().TypeName())
}
