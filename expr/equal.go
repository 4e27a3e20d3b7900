package expr

// Equal decides whether x and y represent the same computation, treating
// the two distinguished parameter nodes u1 and u2 as equivalent wherever
// either appears (C2). u1/u2 may be nil to disable unification entirely.
func Equal(x, y *Node, u1, u2 *Param) bool {
	if x == nil && y == nil {
		return true
	}
	if x == nil || y == nil {
		return false
	}

	if isUnified(x, u1, u2) && isUnified(y, u1, u2) {
		return true
	}

	if x.Kind != y.Kind {
		return false
	}

	switch x.Kind {
	case KindConst:
		return constEqual(x.ConstValue, y.ConstValue)

	case KindParam:
		return x.Param == y.Param

	case KindFreeVar:
		return x.VarName == y.VarName

	case KindUnary:
		return x.UnaryOp == y.UnaryOp && Equal(x.Operand, y.Operand, u1, u2)

	case KindBinary:
		return x.BinaryOp == y.BinaryOp &&
			Equal(x.Left, y.Left, u1, u2) &&
			Equal(x.Right, y.Right, u1, u2)

	case KindMember:
		return x.Field == y.Field && Equal(x.Target, y.Target, u1, u2)

	case KindIndex:
		return Equal(x.Target, y.Target, u1, u2) && Equal(x.Index, y.Index, u1, u2)

	case KindCall:
		if x.Function != y.Function || x.MethodID != y.MethodID {
			return false
		}
		if (x.Target == nil) != (y.Target == nil) {
			return false
		}
		if x.Target != nil && !Equal(x.Target, y.Target, u1, u2) {
			return false
		}
		return nodeSliceEqual(x.Args, y.Args, u1, u2)

	case KindNewArray:
		return x.ElemType == y.ElemType && nodeSliceEqual(x.Elements, y.Elements, u1, u2)

	case KindNew:
		if x.TypeName != y.TypeName || len(x.Fields) != len(y.Fields) {
			return false
		}
		// Fields are an unordered set of (name, value) pairs, so each of x's
		// fields must find a distinct, still-unmatched counterpart in y —
		// not the field at the same index.
		matched := make([]bool, len(y.Fields))
		for i := range x.Fields {
			found := false
			for j := range y.Fields {
				if matched[j] || x.Fields[i].Name != y.Fields[j].Name {
					continue
				}
				if Equal(x.Fields[i].Value, y.Fields[j].Value, u1, u2) {
					matched[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true

	case KindLambda:
		if len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if x.Params[i] != y.Params[i] {
				return false
			}
		}
		return Equal(x.Body, y.Body, u1, u2)

	case KindDefault:
		return x.DefaultType == y.DefaultType

	case KindOpaque:
		return x.Raw == y.Raw

	default:
		return x == y
	}
}

// isUnified reports whether n is one of the two nodes in the unification pair.
func isUnified(n *Node, u1, u2 *Param) bool {
	if n.Kind != KindParam || n.Param == nil {
		return false
	}
	return n.Param == u1 || n.Param == u2
}

func nodeSliceEqual(xs, ys []*Node, u1, u2 *Param) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i], u1, u2) {
			return false
		}
	}
	return true
}

// constEqual compares boxed constant values under value equality, with
// numeric widening so e.g. int64(4) and float64(4) compare as the producer
// intends when a literal was parsed as one numeric kind but built as another.
func constEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
