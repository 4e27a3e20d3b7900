// Package expr implements the expression-tree dialect consumed by structural
// equality (C2) and predicate decoding (C4): a small tagged-union node type,
// structural equality up to a single unification pair, and a CEL-backed
// parser that translates source text into the tagged union.
package expr

// Kind tags the shape of a Node.
type Kind int

const (
	KindOpaque Kind = iota
	KindConst
	KindParam
	KindFreeVar
	KindUnary
	KindBinary
	KindMember
	KindIndex
	KindCall
	KindNewArray
	KindNew
	KindLambda
	KindDefault
)

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryNegate
)

// BinaryOp identifies a binary operator recognized structurally by C2/C4.
type BinaryOp int

const (
	BinaryEqual BinaryOp = iota
	BinaryNotEqual
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual
	BinaryAnd
	BinaryOr
	BinaryOther
)

// Node is the tagged union every expression-tree node in the dialect reduces
// to. Only the fields relevant to Kind are meaningful; the rest are zero.
type Node struct {
	Kind Kind

	// KindConst
	ConstValue any

	// KindParam: identity of the row-variable placeholder. Two Param nodes
	// are structurally distinct unless they are pointer-identical or form
	// the single unification pair passed to Equal.
	Param *Param

	// KindFreeVar: an identifier that is not the row variable.
	VarName string

	// KindUnary
	UnaryOp  UnaryOp
	Operand  *Node

	// KindBinary
	BinaryOp BinaryOp
	Left     *Node
	Right    *Node

	// KindMember: field/property access, Target.Field
	Target *Node
	Field  string

	// KindIndex: Target[Index]
	Index *Node

	// KindCall: optional Target (nil for a free function), Function name,
	// Args. MethodID distinguishes otherwise-identically-named bound
	// methods/functions when the dialect exposes overloads.
	Function string
	Args     []*Node
	MethodID string

	// KindNewArray: element values.
	Elements []*Node
	ElemType string

	// KindNew: constructor invocation. TypeName plus field/value entries
	// (order-independent; compared as a set of (name, value) pairs).
	TypeName string
	Fields   []FieldInit

	// KindLambda: parameter names (simplified equality, see DESIGN.md) and body.
	Params []string
	Body   *Node

	// KindDefault: the declared type of a default-value placeholder.
	DefaultType string

	// KindOpaque: nodes outside the recognized dialect fall back to
	// referential identity; Raw carries whatever the producer wants to
	// compare two Opaque nodes by pointer through.
	Raw any
}

// FieldInit is a single named field initializer inside a KindNew node.
type FieldInit struct {
	Name  string
	Value *Node
}

// Param is the row-variable placeholder. Its identity (pointer) is what
// ColumnDescriptor's row-expression and a predicate's row variable are
// unified against.
type Param struct {
	Name string
}

// NewParam constructs a fresh row-variable placeholder.
func NewParam(name string) *Param {
	return &Param{Name: name}
}

// AsNode wraps a Param as a KindParam Node.
func (p *Param) AsNode() *Node {
	return &Node{Kind: KindParam, Param: p}
}

// Const builds a KindConst node.
func Const(v any) *Node { return &Node{Kind: KindConst, ConstValue: v} }

// FreeVar builds a KindFreeVar node.
func FreeVar(name string) *Node { return &Node{Kind: KindFreeVar, VarName: name} }

// Member builds a KindMember node.
func Member(target *Node, field string) *Node {
	return &Node{Kind: KindMember, Target: target, Field: field}
}

// Unary builds a KindUnary node.
func Unary(op UnaryOp, operand *Node) *Node {
	return &Node{Kind: KindUnary, UnaryOp: op, Operand: operand}
}

// Binary builds a KindBinary node.
func Binary(op BinaryOp, left, right *Node) *Node {
	return &Node{Kind: KindBinary, BinaryOp: op, Left: left, Right: right}
}

// Call builds a KindCall node. target is nil for a free function.
func Call(target *Node, function string, args ...*Node) *Node {
	return &Node{Kind: KindCall, Target: target, Function: function, Args: args}
}

// IndexOf builds a KindIndex node.
func IndexOf(target, idx *Node) *Node {
	return &Node{Kind: KindIndex, Target: target, Index: idx}
}

// NewArray builds a KindNewArray node.
func NewArray(elemType string, elements ...*Node) *Node {
	return &Node{Kind: KindNewArray, ElemType: elemType, Elements: elements}
}

// NewStruct builds a KindNew (constructor invocation) node.
func NewStruct(typeName string, fields ...FieldInit) *Node {
	return &Node{Kind: KindNew, TypeName: typeName, Fields: fields}
}

// Lambda builds a KindLambda node.
func Lambda(params []string, body *Node) *Node {
	return &Node{Kind: KindLambda, Params: params, Body: body}
}

// Default builds a KindDefault node standing for the zero/default value of typeName.
func Default(typeName string) *Node {
	return &Node{Kind: KindDefault, DefaultType: typeName}
}

// Opaque wraps an unsupported node kind, compared by referential identity of raw.
func Opaque(raw any) *Node {
	return &Node{Kind: KindOpaque, Raw: raw}
}
