package expr

import "testing"

func TestParseComparisonShapes(t *testing.T) {
	env, err := NewEnv("row")
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}

	cases := []struct {
		src  string
		kind Kind
		op   BinaryOp
	}{
		{"row.age == 4", KindBinary, BinaryEqual},
		{"row.age != 4", KindBinary, BinaryNotEqual},
		{"row.age < 4", KindBinary, BinaryLess},
		{"row.age <= 4", KindBinary, BinaryLessEqual},
		{"row.age > 4", KindBinary, BinaryGreater},
		{"row.age >= 4", KindBinary, BinaryGreaterEqual},
	}

	for _, c := range cases {
		n, err := env.Parse(c.src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.src, err)
		}
		if n.Kind != c.kind {
			t.Errorf("Parse(%q).Kind = %v, want %v", c.src, n.Kind, c.kind)
		}
		if n.BinaryOp != c.op {
			t.Errorf("Parse(%q).BinaryOp = %v, want %v", c.src, n.BinaryOp, c.op)
		}
		if n.Left == nil || n.Left.Kind != KindMember {
			t.Errorf("Parse(%q).Left should be a member access, got %+v", c.src, n.Left)
		}
		if n.Right == nil || n.Right.Kind != KindConst {
			t.Errorf("Parse(%q).Right should be a constant, got %+v", c.src, n.Right)
		}
	}
}

func TestParseNegation(t *testing.T) {
	env, err := NewEnv("row")
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	n, err := env.Parse("!(row.age == 4)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindUnary || n.UnaryOp != UnaryNot {
		t.Fatalf("expected top-level logical not, got %+v", n)
	}
	if n.Operand == nil || n.Operand.Kind != KindBinary || n.Operand.BinaryOp != BinaryEqual {
		t.Fatalf("expected negated equality, got %+v", n.Operand)
	}
}

func TestParseMemberAccessOnRowVariable(t *testing.T) {
	env, err := NewEnv("row")
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	n, err := env.Parse("row.address.city")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Kind != KindMember || n.Field != "city" {
		t.Fatalf("unexpected top node: %+v", n)
	}
	if n.Target == nil || n.Target.Kind != KindMember || n.Target.Field != "address" {
		t.Fatalf("unexpected target: %+v", n.Target)
	}
	if n.Target.Target == nil || n.Target.Target.Kind != KindParam || n.Target.Target.Param != env.Row {
		t.Fatalf("innermost target should be the row parameter, got %+v", n.Target.Target)
	}
}
