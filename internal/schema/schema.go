// Package schema is used to declare a GraphQL schema as Go values - objects with fields that have
// types, arguments and resolver functions. It can generate the schema document (SDL) that
// goes hand-in-hand with the "handler" which uses the same objects to find the resolvers that
// fulfill a query (mutation/subscription).
package schema

// schema.go contains the Schema type and functions to generate and load the schema document

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

const (
	openString  = " {\n"
	closeString = "}\n"

	gqlObjectType = "type"
	gqlEnumType   = "enum"
	gqlScalarType = "scalar"
)

// Schema holds the root types (query, mutation, subscription) of a GraphQL schema
type Schema struct {
	Query, Mutation, Subscription *Object

	types map[string]Type // all named types reachable from the roots (filled in by Validate)
}

// New creates a schema given the root types. The query type is required but mutation and
// subscription may be nil.
func New(query, mutation, subscription *Object) *Schema {
	return &Schema{Query: query, Mutation: mutation, Subscription: subscription}
}

// SDL generates the schema document. Types are written in name order so the output is always the same.
func (s *Schema) SDL() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	builder := &strings.Builder{}
	builder.Grow(256) // Even simple schemas are at least this big

	// Create the "schema" clause of the schema document with query name etc
	builder.WriteString("schema")
	builder.WriteString(openString)
	for _, root := range []struct {
		name string
		obj  *Object
	}{{"query", s.Query}, {"mutation", s.Mutation}, {"subscription", s.Subscription}} {
		if root.obj == nil {
			continue
		}
		builder.WriteString(" ")
		builder.WriteString(root.name)
		builder.WriteString(": ")
		builder.WriteString(root.obj.Name)
		builder.WriteRune('\n')
	}
	builder.WriteString(closeString)

	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names) // we need to always output the types in the same order (eg for consistency in tests)

	for _, name := range names {
		switch t := s.types[name].(type) {
		case *Object:
			writeDescription(builder, "", t.Description)
			builder.WriteString(gqlObjectType)
			builder.WriteRune(' ')
			builder.WriteString(t.Name)
			builder.WriteString(openString)
			for _, f := range t.FieldList() {
				writeField(builder, f)
			}
			builder.WriteString(closeString)

		case *Enum:
			writeDescription(builder, "", t.Description)
			builder.WriteString(gqlEnumType)
			builder.WriteRune(' ')
			builder.WriteString(t.Name)
			builder.WriteString(openString)
			for _, v := range t.Values {
				builder.WriteRune(' ')
				builder.WriteString(v)
				builder.WriteRune('\n')
			}
			builder.WriteString(closeString)

		case *Scalar:
			if builtIn[t.Name] {
				continue
			}
			writeDescription(builder, "", t.Description)
			builder.WriteString(gqlScalarType)
			builder.WriteRune(' ')
			builder.WriteString(t.Name)
			builder.WriteRune('\n')
		}
	}
	return builder.String(), nil
}

// Load generates the schema document and parses it (with gqlparser) to get the schema used
// to validate and execute queries.
func (s *Schema) Load() (*ast.Schema, error) {
	sdl, err := s.SDL()
	if err != nil {
		return nil, err
	}
	r, pgqlError := gqlparser.LoadSchema(&ast.Source{
		Name:  "schema",
		Input: sdl,
	})
	if pgqlError != nil {
		return nil, fmt.Errorf("error loading schema: %s", pgqlError.Message)
	}
	return r, nil
}

// writeField adds a field declaration (with arguments, if any) to the schema
func writeField(builder *strings.Builder, f *Field) {
	writeDescription(builder, " ", f.Description)
	builder.WriteRune(' ')
	builder.WriteString(f.Name)
	if len(f.Args) > 0 {
		builder.WriteRune('(')
		for i, arg := range f.Args {
			if i > 0 {
				builder.WriteString(", ")
			}
			if arg.Description != "" {
				builder.WriteString(quote(arg.Description))
				builder.WriteRune(' ')
			}
			builder.WriteString(arg.Name)
			builder.WriteString(": ")
			builder.WriteString(arg.Type.String())
			if arg.Default != "" {
				builder.WriteString(" = ")
				builder.WriteString(arg.Default)
			}
		}
		builder.WriteRune(')')
	}
	builder.WriteString(": ")
	builder.WriteString(f.Type.String())
	builder.WriteRune('\n')
}

func writeDescription(builder *strings.Builder, indent, desc string) {
	if desc == "" {
		return
	}
	builder.WriteString(indent)
	builder.WriteString(quote(desc))
	builder.WriteRune('\n')
}

// quote returns a description as a GraphQL string (block string if it has more than one line)
func quote(desc string) string {
	if strings.ContainsRune(desc, '\n') {
		return `"""` + strings.ReplaceAll(desc, `"""`, `\"""`) + `"""`
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(desc) + `"`
}

var errNoQuery = errors.New("a schema must have a query type")
