package expr

import (
	"fmt"

	celpb "cel.dev/expr"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
	"google.golang.org/protobuf/proto"
)

// Env parses source text into the dialect's Node tree. It deliberately
// never type-checks: C2/C4 only need the syntactic shape of an expression,
// and the column descriptors already carry whatever type knowledge the
// planner needs.
type Env struct {
	cenv *cel.Env
	Row  *Param
}

// NewEnv creates an Env whose single free identifier rowName is bound to
// the returned Param, so that source text referencing rowName parses into
// KindParam nodes rather than KindFreeVar nodes.
func NewEnv(rowName string) (*Env, error) {
	cenv, err := cel.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("expr: building CEL environment: %w", err)
	}
	return &Env{cenv: cenv, Row: NewParam(rowName)}, nil
}

// Parse compiles source into a Node tree. Occurrences of the row identifier
// become KindParam nodes carrying e.Row; every other identifier becomes a
// KindFreeVar node.
func (e *Env) Parse(source string) (*Node, error) {
	ast, issues := e.cenv.Parse(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("expr: parse error: %w", issues.Err())
	}

	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("expr: converting parsed AST: %w", err)
	}

	canonical, err := exprToCanonicalProto(parsed.GetExpr())
	if err != nil {
		return nil, fmt.Errorf("expr: converting parsed AST: %w", err)
	}

	return fromProto(canonical, e.Row), nil
}

// exprToCanonicalProto re-encodes a google.golang.org/genproto Expr (the type
// cel-go's AstToParsedExpr returns) as the wire-identical cel.dev/expr.Expr
// type that fromProto operates on.
func exprToCanonicalProto(e *exprpb.Expr) (*celpb.Expr, error) {
	data, err := proto.Marshal(e)
	if err != nil {
		return nil, err
	}
	canonical := &celpb.Expr{}
	if err := proto.Unmarshal(data, canonical); err != nil {
		return nil, err
	}
	return canonical, nil
}

// fromProto recursively translates a CEL proto Expr into the tagged-union
// Node dialect. Constructs the CEL parser cannot produce (KindLambda beyond
// comprehensions, KindDefault) are never emitted here; callers build those
// directly with the expr package's constructors.
func fromProto(e *celpb.Expr, row *Param) *Node {
	if e == nil {
		return nil
	}

	if c := e.GetConstExpr(); c != nil {
		return Const(constantValue(c))
	}

	if id := e.GetIdentExpr(); id != nil {
		if row != nil && id.GetName() == row.Name {
			return row.AsNode()
		}
		return FreeVar(id.GetName())
	}

	if sel := e.GetSelectExpr(); sel != nil {
		return Member(fromProto(sel.GetOperand(), row), sel.GetField())
	}

	if call := e.GetCallExpr(); call != nil {
		return callFromProto(call, row)
	}

	if lst := e.GetListExpr(); lst != nil {
		elems := make([]*Node, 0, len(lst.GetElements()))
		for _, el := range lst.GetElements() {
			elems = append(elems, fromProto(el, row))
		}
		return NewArray("", elems...)
	}

	if st := e.GetStructExpr(); st != nil {
		fields := make([]FieldInit, 0, len(st.GetEntries()))
		for _, entry := range st.GetEntries() {
			fields = append(fields, FieldInit{
				Name:  entry.GetFieldKey(),
				Value: fromProto(entry.GetValue(), row),
			})
		}
		return NewStruct(st.GetMessageName(), fields...)
	}

	if comp := e.GetComprehensionExpr(); comp != nil {
		// Simplified per DESIGN.md: fold the comprehension down to a single
		// parameter (the iteration variable) and a body built from the loop
		// step, which is sufficient for structural comparisons of predicate
		// subtrees; full comprehension semantics are not part of this dialect.
		return Lambda([]string{comp.GetIterVar()}, fromProto(comp.GetLoopStep(), row))
	}

	return Opaque(e)
}

func callFromProto(call *celpb.Expr_Call, row *Param) *Node {
	fn := call.GetFunction()
	args := call.GetArgs()

	if bop, ok := binaryOpFor(fn); ok && len(args) == 2 {
		return Binary(bop, fromProto(args[0], row), fromProto(args[1], row))
	}

	switch fn {
	case operators.LogicalNot:
		if len(args) == 1 {
			return Unary(UnaryNot, fromProto(args[0], row))
		}
	case operators.Negate:
		if len(args) == 1 {
			return Unary(UnaryNegate, fromProto(args[0], row))
		}
	case operators.Index:
		if len(args) == 2 {
			return IndexOf(fromProto(args[0], row), fromProto(args[1], row))
		}
	}

	var target *Node
	if t := call.GetTarget(); t != nil {
		target = fromProto(t, row)
	}
	nodeArgs := make([]*Node, 0, len(args))
	for _, a := range args {
		nodeArgs = append(nodeArgs, fromProto(a, row))
	}
	return Call(target, fn, nodeArgs...)
}

func binaryOpFor(fn string) (BinaryOp, bool) {
	switch fn {
	case operators.Equals:
		return BinaryEqual, true
	case operators.NotEquals:
		return BinaryNotEqual, true
	case operators.Less:
		return BinaryLess, true
	case operators.LessEquals:
		return BinaryLessEqual, true
	case operators.Greater:
		return BinaryGreater, true
	case operators.GreaterEquals:
		return BinaryGreaterEqual, true
	case operators.LogicalAnd:
		return BinaryAnd, true
	case operators.LogicalOr:
		return BinaryOr, true
	default:
		return BinaryOther, false
	}
}

func constantValue(c *celpb.Constant) any {
	switch k := c.GetConstantKind().(type) {
	case *celpb.Constant_BoolValue:
		return k.BoolValue
	case *celpb.Constant_Int64Value:
		return k.Int64Value
	case *celpb.Constant_Uint64Value:
		return k.Uint64Value
	case *celpb.Constant_DoubleValue:
		return k.DoubleValue
	case *celpb.Constant_StringValue:
		return k.StringValue
	case *celpb.Constant_BytesValue:
		return k.BytesValue
	default:
		return nil
	}
}
