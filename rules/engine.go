// Package rules provides a compiled CEL evaluation environment over a
// single free variable, used as an independent cross-check oracle for
// decoded predicates and by the demo command to evaluate, per row, the
// predicate terms that were not attributed to an index column.
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
)

// Oracle compiles and evaluates boolean CEL expressions against a single
// row-shaped variable, caching compiled programs by source text.
type Oracle struct {
	env      *cel.Env
	rowName  string
	prgCache sync.Map // map[string]cel.Program
}

// NewOracle builds an Oracle whose expressions reference a single free
// variable named rowName, typed as a dynamic map (mirroring how a decoded
// row is passed in for evaluation).
func NewOracle(rowName string) (*Oracle, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar(rowName, decls.NewMapType(decls.String, decls.Dyn)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("rules: building CEL environment: %w", err)
	}
	return &Oracle{env: env, rowName: rowName}, nil
}

// Evaluate compiles (or reuses a cached compilation of) expression and
// evaluates it against row, which must be a map of field name to value.
func (o *Oracle) Evaluate(expression string, row map[string]any) (bool, error) {
	var prg cel.Program
	if cached, ok := o.prgCache.Load(expression); ok {
		prg = cached.(cel.Program)
	} else {
		ast, issues := o.env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return false, fmt.Errorf("rules: compile error: %w", issues.Err())
		}
		p, err := o.env.Program(ast)
		if err != nil {
			return false, fmt.Errorf("rules: program construction error: %w", err)
		}
		prg = p
		o.prgCache.Store(expression, prg)
	}

	out, _, err := prg.Eval(map[string]any{o.rowName: row})
	if err != nil {
		return false, fmt.Errorf("rules: eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rules: expression %q did not evaluate to a boolean", expression)
	}
	return result, nil
}
