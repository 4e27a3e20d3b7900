// Command idxquerydemo wires the full planning and cursor stack together
// over a real on-disk B+Tree: it builds a two-column index, validates and
// inserts sample documents, parses a CEL predicate against that index, and
// drains a FilteredCursor over the attributed range. Predicate terms that
// couldn't be attributed to an index column are evaluated against each row
// through the CEL oracle, and rows failing any of them are skipped.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kartikbazzad/idxquery/column"
	"github.com/kartikbazzad/idxquery/cursor"
	"github.com/kartikbazzad/idxquery/expr"
	"github.com/kartikbazzad/idxquery/internal/config"
	"github.com/kartikbazzad/idxquery/internal/obslog"
	"github.com/kartikbazzad/idxquery/planindex"
	"github.com/kartikbazzad/idxquery/rules"
	"github.com/kartikbazzad/idxquery/storage"
)

// Settings is the demo's ambient configuration, loaded from an optional
// .env file plus IDXQUERYDEMO_-prefixed environment variables.
type Settings struct {
	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Predicate string `mapstructure:"predicate"`
}

const personSchema = `{
	"type": "object",
	"required": ["_id", "name", "age"],
	"properties": {
		"_id":  {"type": "string"},
		"name": {"type": "string"},
		"age":  {"type": "integer", "minimum": 0}
	}
}`

func main() {
	settings := Settings{Predicate: `row.age >= 25 && row.age < 40 && row.name != "Eve"`}
	settings.DB.Path = "./idxquerydemo-data/people.db"
	settings.Log.Level = "INFO"
	settings.Log.Format = "text"
	if err := config.Load("IDXQUERYDEMO", &settings); err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	obslog.Init(obslog.Config{Level: settings.Log.Level, Format: settings.Log.Format})
	logger := obslog.Get()

	schemaLoader := gojsonschema.NewStringLoader(personSchema)
	schema, err := gojsonschema.NewSchema(schemaLoader)
	if err != nil {
		log.Fatalf("compiling document schema: %v", err)
	}

	pager, err := storage.NewPager(settings.DB.Path)
	if err != nil {
		log.Fatalf("opening pager: %v", err)
	}
	defer pager.Close()
	bp := storage.NewBufferPool(256, pager)
	tree, err := storage.NewBPlusTree(bp)
	if err != nil {
		log.Fatalf("opening index tree: %v", err)
	}

	kinds := []storage.ValueKind{storage.KindInt64, storage.KindString}

	people := []storage.Document{
		{"_id": "p1", "name": "Alice", "age": int64(30)},
		{"_id": "p2", "name": "Bob", "age": int64(22)},
		{"_id": "p3", "name": "Carol", "age": int64(35)},
		{"_id": "p4", "name": "Dave", "age": int64(30)},
		{"_id": "p5", "name": "Eve", "age": int64(28)},
		{"_id": "p6", "name": "Frank", "age": int64(41)},
	}

	logger.Info("inserting documents", "count", len(people))
	for _, doc := range people {
		if err := validateDocument(schema, doc); err != nil {
			log.Fatalf("document %v failed schema validation: %v", doc["_id"], err)
		}
		age, _ := doc["age"].(int64)
		name, _ := doc["name"].(string)
		value, err := doc.Serialize()
		if err != nil {
			log.Fatalf("serializing %v: %v", doc["_id"], err)
		}
		if err := tree.InsertColumns(kinds, []any{age, name}, value); err != nil {
			log.Fatalf("inserting %v: %v", doc["_id"], err)
		}
	}

	rowVar := expr.NewParam("row")
	ageCol := column.NewOrdered("age", rowVar, expr.Member(rowVar.AsNode(), "age"), int64Order, false)
	nameCol := column.NewOrdered("name", rowVar, expr.Member(rowVar.AsNode(), "name"), stringOrder, false)
	index := column.NewTableIndex(ageCol, nameCol)

	protected, probation := bp.Stats()
	logger.Debug("buffer pool state after load", "protected", protected, "probation", probation)

	env, err := expr.NewEnv("row")
	if err != nil {
		log.Fatalf("building expression environment: %v", err)
	}
	predicateNode, err := env.Parse(settings.Predicate)
	if err != nil {
		log.Fatalf("parsing predicate %q: %v", settings.Predicate, err)
	}
	terms := splitConjuncts(predicateNode)
	logger.Info("decomposed predicate", "predicate", settings.Predicate, "terms", len(terms))

	matches := planindex.Attribute(index, env.Row, terms)
	leftover := planindex.Leftover(terms)
	for _, m := range matches {
		logger.Debug("attributed column", "column", m.Column.Name, "interval", describeInterval(m))
	}
	if len(leftover) > 0 {
		logger.Info("predicate terms left unattributed; will be re-checked per row", "count", len(leftover))
	}

	underlying, err := storage.NewTreeCursor(tree, kinds)
	if err != nil {
		log.Fatalf("building tree cursor: %v", err)
	}
	filtered, err := cursor.New(underlying, matches, len(matches))
	if err != nil {
		log.Fatalf("building filtered cursor: %v", err)
	}
	defer filtered.Close()

	oracle, err := rules.NewOracle("row")
	if err != nil {
		log.Fatalf("building oracle: %v", err)
	}

	fmt.Printf("rows matching %q:\n", settings.Predicate)
	matched := 0
	for {
		ok, err := filtered.MoveNext()
		if err != nil {
			log.Fatalf("advancing cursor: %v", err)
		}
		if !ok {
			break
		}
		doc, err := storage.DeserializeDocument(filtered.Row().([]byte))
		if err != nil {
			log.Fatalf("decoding document: %v", err)
		}

		accepted := true
		for _, term := range leftover {
			expression, ok := reconstructCEL(term)
			if !ok {
				continue
			}
			pass, err := oracle.Evaluate(expression, doc)
			if err != nil {
				log.Fatalf("oracle evaluation of %q: %v", expression, err)
			}
			if !pass {
				accepted = false
				break
			}
		}
		if !accepted {
			continue
		}

		matched++
		fmt.Printf("  - %s: %s (age %v)\n", doc["_id"], doc["name"], doc["age"])
	}
	fmt.Printf("%d row(s) matched\n", matched)

	os.Exit(0)
}

func validateDocument(schema *gojsonschema.Schema, doc storage.Document) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if !result.Valid() {
		var msg string
		for _, e := range result.Errors() {
			msg += e.String() + "; "
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func int64Order(a, b any) int {
	x, y := a.(int64), b.(int64)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func stringOrder(a, b any) int {
	x, y := a.(string), b.(string)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func describeInterval(m *planindex.ColumnMatch) string {
	iv := m.Interval
	if iv.Empty {
		return "empty"
	}
	lo, hi := "-inf", "+inf"
	if iv.HasLower {
		lo = fmt.Sprintf("%v", iv.Lower)
	}
	if iv.HasUpper {
		hi = fmt.Sprintf("%v", iv.Upper)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

// splitConjuncts flattens the top-level conjunction of e into its leaf
// terms; e.g. "(a && b) && c" becomes [a, b, c]. Anything that isn't a
// top-level BinaryAnd node is returned as a single-element slice.
func splitConjuncts(e *expr.Node) []*expr.Node {
	if e == nil {
		return nil
	}
	if e.Kind == expr.KindBinary && e.BinaryOp == expr.BinaryAnd {
		return append(splitConjuncts(e.Left), splitConjuncts(e.Right)...)
	}
	return []*expr.Node{e}
}

// reconstructCEL turns a single leftover comparison term back into CEL
// source text so the oracle can evaluate it against the raw document. Only
// the "row.<field> <op> <const>" shape handled by the decoder is supported;
// anything else is reported as unsupported so the caller can skip it.
func reconstructCEL(e *expr.Node) (string, bool) {
	if e == nil || e.Kind != expr.KindBinary {
		return "", false
	}
	lhs, lok := memberPath(e.Left)
	rhs, rok := constLiteral(e.Right)
	if !lok || !rok {
		return "", false
	}
	op, ok := binaryOpSymbol(e.BinaryOp)
	if !ok {
		return "", false
	}
	return lhs + " " + op + " " + rhs, true
}

func memberPath(e *expr.Node) (string, bool) {
	if e == nil || e.Kind != expr.KindMember || e.Target == nil || e.Target.Kind != expr.KindParam {
		return "", false
	}
	return e.Target.Param.Name + "." + e.Field, true
}

func constLiteral(e *expr.Node) (string, bool) {
	if e == nil || e.Kind != expr.KindConst {
		return "", false
	}
	switch v := e.ConstValue.(type) {
	case string:
		return fmt.Sprintf("%q", v), true
	case int64, float64, bool:
		return fmt.Sprintf("%v", v), true
	default:
		return "", false
	}
}

func binaryOpSymbol(op expr.BinaryOp) (string, bool) {
	switch op {
	case expr.BinaryEqual:
		return "==", true
	case expr.BinaryNotEqual:
		return "!=", true
	case expr.BinaryLess:
		return "<", true
	case expr.BinaryLessEqual:
		return "<=", true
	case expr.BinaryGreater:
		return ">", true
	case expr.BinaryGreaterEqual:
		return ">=", true
	default:
		return "", false
	}
}
