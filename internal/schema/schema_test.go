package schema_test

import (
	"context"
	"strings"
	"testing"

	"github.com/andrewwphillips/clubql/internal/field"
	"github.com/andrewwphillips/clubql/internal/schema"
)

func resolveNil(context.Context, interface{}, field.Args) (interface{}, error) { return nil, nil }

func subscribeNil(context.Context, field.Args) (<-chan interface{}, error) { return nil, nil }

// newCyclic returns a query type using 2 object types that refer to each other
func newCyclic() *schema.Object {
	var a, b *schema.Object
	a = &schema.Object{
		Name: "A",
		Fields: func() []*schema.Field {
			return []*schema.Field{
				{Name: "b", Type: b},
				{Name: "n", Type: schema.NonNull(schema.Int)},
			}
		},
	}
	b = &schema.Object{
		Name:        "B",
		Description: "the B",
		Fields: func() []*schema.Field {
			return []*schema.Field{
				{Name: "as", Type: schema.ListOf(a)},
			}
		},
	}
	return &schema.Object{
		Name: "Query",
		Fields: func() []*schema.Field {
			return []*schema.Field{
				{Name: "a", Type: a, Args: []*schema.Arg{{Name: "id", Type: schema.Int, Default: "1"}}, Resolve: resolveNil},
			}
		},
	}
}

func fields(f ...*schema.Field) func() []*schema.Field {
	return func() []*schema.Field { return f }
}

func TestSDL(t *testing.T) {
	direction := &schema.Enum{Name: "Direction", Values: []string{"UP", "DOWN"}}
	sdlData := map[string]struct {
		s        *schema.Schema
		expected string
	}{
		"Simple": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(
				&schema.Field{Name: "message", Type: schema.NonNull(schema.String), Resolve: resolveNil},
			)}, nil, nil),
			"schema {\n query: Query\n}\ntype Query {\n message: String!\n}\n",
		},
		"Cyclic": {
			schema.New(newCyclic(), nil, nil),
			"schema {\n query: Query\n}\n" +
				"type A {\n b: B\n n: Int!\n}\n" +
				"\"the B\"\ntype B {\n as: [A]\n}\n" +
				"type Query {\n a(id: Int = 1): A\n}\n",
		},
		"AllRoots": {
			schema.New(
				&schema.Object{Name: "Query", Fields: fields(&schema.Field{Name: "q", Type: schema.Int, Resolve: resolveNil})},
				&schema.Object{Name: "Mutation", Fields: fields(&schema.Field{
					Name: "m", Type: schema.Int, Resolve: resolveNil,
					Args: []*schema.Arg{{Name: "s", Type: schema.NonNull(schema.String), Description: "text"}},
				})},
				&schema.Object{Name: "Subscription", Fields: fields(&schema.Field{Name: "s", Type: schema.NonNull(schema.Int), Subscribe: subscribeNil})},
			),
			"schema {\n query: Query\n mutation: Mutation\n subscription: Subscription\n}\n" +
				"type Mutation {\n m(\"text\" s: String!): Int\n}\n" +
				"type Query {\n q: Int\n}\n" +
				"type Subscription {\n s: Int!\n}\n",
		},
		"EnumAndDesc": {
			schema.New(&schema.Object{Name: "Query", Description: "multi\nline", Fields: fields(
				&schema.Field{Name: "d", Type: schema.ListOf(schema.NonNull(direction)), Description: `say "hi"`, Resolve: resolveNil},
			)}, nil, nil),
			"schema {\n query: Query\n}\n" +
				"enum Direction {\n UP\n DOWN\n}\n" +
				"\"\"\"multi\nline\"\"\"\ntype Query {\n \"say \\\"hi\\\"\"\n d: [Direction!]\n}\n",
		},
	}

	for name, data := range sdlData {
		got, err := data.s.SDL()
		Assertf(t, err == nil, "%12s: expected no error got %v", name, err)
		Assertf(t, got == data.expected, "%12s: expected:\n%s\ngot:\n%s", name, data.expected, got)

		// Check that gqlparser accepts what we generated
		_, err = data.s.Load()
		Assertf(t, err == nil, "%12s: expected no error loading schema, got %v", name, err)
	}
}

func TestFieldLookup(t *testing.T) {
	s := schema.New(newCyclic(), nil, nil)

	a, _ := s.Query.Field("a").Type.(*schema.Object)
	Assertf(t, a != nil && a.Name == "A", "expected to find object A")
	Assertf(t, a.Field("n") != nil && a.Field("n").Type.String() == "Int!", "expected A.n to be Int!")
	Assertf(t, a.Field("missing") == nil, "expected nil for unknown field")
	Assertf(t, s.Query.Field("missing") == nil, "expected nil for unknown root field")

	b, _ := a.Field("b").Type.(*schema.Object)
	Assertf(t, b != nil && b.Name == "B", "expected to find object B")
	of, _, isList := schema.Unwrap(b.Field("as").Type)
	Assertf(t, isList && of == schema.Type(a), "expected B.as to be a list of A")
	Assertf(t, schema.Named(schema.NonNull(schema.ListOf(schema.NonNull(a)))) == schema.Type(a), "expected Named to remove all modifiers")
	Assertf(t, schema.NonNull(schema.NonNull(schema.Int)).String() == "Int!", "expected NonNull to not be repeated")
}

func TestValidate(t *testing.T) {
	other := &schema.Object{Name: "A", Fields: fields(&schema.Field{Name: "x", Type: schema.Int})}
	validateData := map[string]struct {
		s     *schema.Schema
		inErr string
	}{
		"NoQuery": {schema.New(nil, nil, nil), "must have a query"},
		"NoFields": {
			schema.New(&schema.Object{Name: "Query"}, nil, nil),
			"has no fields",
		},
		"BadTypeName": {
			schema.New(&schema.Object{Name: "__Query", Fields: fields(&schema.Field{Name: "q", Type: schema.Int, Resolve: resolveNil})}, nil, nil),
			"not a valid type name",
		},
		"BadFieldName": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(&schema.Field{Name: "a-b", Type: schema.Int, Resolve: resolveNil})}, nil, nil),
			"not a valid field name",
		},
		"DupeField": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(
				&schema.Field{Name: "q", Type: schema.Int, Resolve: resolveNil},
				&schema.Field{Name: "q", Type: schema.String, Resolve: resolveNil},
			)}, nil, nil),
			`field "q" is repeated`,
		},
		"NoType": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(&schema.Field{Name: "q", Resolve: resolveNil})}, nil, nil),
			"missing type",
		},
		"DupeType": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(
				&schema.Field{Name: "a1", Type: other, Resolve: resolveNil},
				&schema.Field{Name: "a2", Type: &schema.Object{Name: "A", Fields: fields(&schema.Field{Name: "y", Type: schema.Int})}, Resolve: resolveNil},
			)}, nil, nil),
			`two different types are called "A"`,
		},
		"NoResolver": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(&schema.Field{Name: "q", Type: schema.Int})}, nil, nil),
			"has no resolver",
		},
		"NoSubscribe": {
			schema.New(
				&schema.Object{Name: "Query", Fields: fields(&schema.Field{Name: "q", Type: schema.Int, Resolve: resolveNil})},
				nil,
				&schema.Object{Name: "Subscription", Fields: fields(&schema.Field{Name: "s", Type: schema.Int, Resolve: resolveNil})},
			),
			"has no Subscribe func",
		},
		"ObjectArg": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(&schema.Field{
				Name: "q", Type: schema.Int, Resolve: resolveNil,
				Args: []*schema.Arg{{Name: "a", Type: other}},
			})}, nil, nil),
			"cannot be an object type",
		},
		"DupeArg": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(&schema.Field{
				Name: "q", Type: schema.Int, Resolve: resolveNil,
				Args: []*schema.Arg{{Name: "a", Type: schema.Int}, {Name: "a", Type: schema.Int}},
			})}, nil, nil),
			`argument "a" is repeated`,
		},
		"BadDefault": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(&schema.Field{
				Name: "q", Type: schema.Int, Resolve: resolveNil,
				Args: []*schema.Arg{{Name: "a", Type: schema.Int, Default: `"x"`}},
			})}, nil, nil),
			"default value",
		},
		"BadEnum": {
			schema.New(&schema.Object{Name: "Query", Fields: fields(&schema.Field{
				Name: "q", Type: &schema.Enum{Name: "E", Values: []string{"A", "A"}}, Resolve: resolveNil,
			})}, nil, nil),
			"repeated enum value",
		},
	}

	for name, data := range validateData {
		err := data.s.Validate()
		Assertf(t, err != nil, "%12s: expected error containing %q, got nil", name, data.inErr)
		if err != nil {
			Assertf(t, strings.Contains(err.Error(), data.inErr), "%12s: expected error containing %q, got %q", name, data.inErr, err.Error())
		}
	}
}

func TestLazyFields(t *testing.T) {
	calls := 0
	obj := &schema.Object{Name: "Query", Fields: func() []*schema.Field {
		calls++
		return []*schema.Field{{Name: "q", Type: schema.Int, Resolve: resolveNil}}
	}}
	Assertf(t, calls == 0, "expected fields thunk not to be called before use")
	s := schema.New(obj, nil, nil)
	_, _ = s.SDL()
	_ = obj.Field("q")
	_ = obj.FieldList()
	Assertf(t, calls == 1, "expected fields thunk to be called once, got %d", calls)
}

func Assertf(t *testing.T, succeeded bool, format string, args ...interface{}) {
	const (
		succeed = "\u2713" // tick
		failed  = "X"      //"\u2717" // cross
	)

	t.Helper()
	if !succeeded {
		t.Errorf("%s\t"+format, append([]interface{}{failed}, args...)...)
	} else {
		t.Logf("%s\t"+format, append([]interface{}{succeed}, args...)...)
	}
}
