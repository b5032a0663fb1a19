package textexpr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// nodeFields are the keys of the node variable.
var nodeFields = map[string]bool{"key": true, "label": true, "kind": true, "labels": true}

// checkFields rejects references to node fields that do not exist. The node
// variable is a map, so the type checker cannot catch a misspelled field and
// every evaluation would fail.
func checkFields(ast *cel.Ast) error {
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return err
	}
	var unknown []string
	for _, f := range referencedFields(parsed.GetExpr()) {
		if !nodeFields[f] {
			unknown = append(unknown, f)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	known := make([]string, 0, len(nodeFields))
	for f := range nodeFields {
		known = append(known, f)
	}
	sort.Strings(known)
	return fmt.Errorf("unknown node field %s (available: %s)",
		strings.Join(unknown, ", "), strings.Join(known, ", "))
}

// referencedFields lists node.<field> and node["<field>"] references in
// source order.
func referencedFields(root *exprpb.Expr) []string {
	var out []string
	seen := map[string]bool{}
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}

	var walk func(*exprpb.Expr)
	walk = func(e *exprpb.Expr) {
		if e == nil {
			return
		}
		switch e.ExprKind.(type) {
		case *exprpb.Expr_SelectExpr:
			sel := e.GetSelectExpr()
			if isNodeIdent(sel.GetOperand()) {
				add(sel.GetField())
				return
			}
			walk(sel.GetOperand())
		case *exprpb.Expr_CallExpr:
			call := e.GetCallExpr()
			if call.GetFunction() == "_[_]" && len(call.GetArgs()) == 2 && isNodeIdent(call.GetArgs()[0]) {
				if c := call.GetArgs()[1].GetConstExpr(); c != nil {
					if s, ok := c.ConstantKind.(*exprpb.Constant_StringValue); ok {
						add(s.StringValue)
						return
					}
				}
			}
			walk(call.GetTarget())
			for _, arg := range call.GetArgs() {
				walk(arg)
			}
		case *exprpb.Expr_ListExpr:
			for _, el := range e.GetListExpr().GetElements() {
				walk(el)
			}
		case *exprpb.Expr_StructExpr:
			for _, entry := range e.GetStructExpr().GetEntries() {
				walk(entry.GetMapKey())
				walk(entry.GetValue())
			}
		case *exprpb.Expr_ComprehensionExpr:
			c := e.GetComprehensionExpr()
			walk(c.GetIterRange())
			walk(c.GetAccuInit())
			walk(c.GetLoopCondition())
			walk(c.GetLoopStep())
			walk(c.GetResult())
		}
	}
	walk(root)
	return out
}

func isNodeIdent(e *exprpb.Expr) bool {
	return e.GetIdentExpr().GetName() == NodeVar
}
