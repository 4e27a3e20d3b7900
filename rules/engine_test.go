package rules

import "testing"

func TestOracleEvaluatesFieldComparison(t *testing.T) {
	o, err := NewOracle("row")
	if err != nil {
		t.Fatalf("NewOracle: %v", err)
	}

	ok, err := o.Evaluate("row.age >= 18 && row.age < 65", map[string]any{"age": int64(30)})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ok {
		t.Error("expected expression to hold for age 30")
	}

	ok, err = o.Evaluate("row.age >= 18 && row.age < 65", map[string]any{"age": int64(10)})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ok {
		t.Error("expected expression to fail for age 10")
	}
}

func TestOracleCachesCompiledProgram(t *testing.T) {
	o, err := NewOracle("row")
	if err != nil {
		t.Fatalf("NewOracle: %v", err)
	}

	const expr = "row.name == 'a'"
	for i := 0; i < 3; i++ {
		if _, err := o.Evaluate(expr, map[string]any{"name": "a"}); err != nil {
			t.Fatalf("Evaluate iteration %d: %v", i, err)
		}
	}
	if _, ok := o.prgCache.Load(expr); !ok {
		t.Error("expected the compiled program to be cached")
	}
}
