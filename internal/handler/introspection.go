package handler

// introspection.go implements the types which handle the GraphQL __schema and __type queries.
// The values are taken from the schema as loaded by gqlparser, which includes the built-in
// scalars, directives and the introspection types themselves.

import (
	"context"
	"sort"

	"github.com/andrewwphillips/clubql/internal/field"
	"github.com/andrewwphillips/clubql/internal/schema"
	"github.com/vektah/gqlparser/v2/ast"
)

type (
	// introType is the value of a __Type. Named types have a definition; list and non-null
	// types have the type reference (t) instead.
	introType struct {
		s   *ast.Schema
		t   *ast.Type
		def *ast.Definition
	}

	introField struct {
		s *ast.Schema
		f *ast.FieldDefinition
	}

	introInputValue struct {
		s *ast.Schema
		a *ast.ArgumentDefinition
	}

	introDirective struct {
		s *ast.Schema
		d *ast.DirectiveDefinition
	}
)

var (
	typeKindEnum = &schema.Enum{Name: "__TypeKind",
		Values: []string{"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL"}}

	directiveLocationEnum = &schema.Enum{Name: "__DirectiveLocation",
		Values: []string{"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
			"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
			"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT", "INPUT_FIELD_DEFINITION"}}

	schemaType, typeType, fieldType, inputValueType, enumValueType, directiveType *schema.Object
)

// The introspection objects refer to each other so are created here rather than in var declarations
func init() {
	includeDeprecated := []*schema.Arg{{Name: "includeDeprecated", Type: schema.Boolean, Default: "false"}}

	schemaType = &schema.Object{Name: "__Schema", Fields: func() []*schema.Field {
		return []*schema.Field{
			{Name: "description", Type: schema.String, Resolve: resolveNull},
			{Name: "types", Type: schema.NonNull(schema.ListOf(schema.NonNull(typeType))), Resolve: schemaTypes},
			{Name: "queryType", Type: schema.NonNull(typeType), Resolve: rootType(func(s *ast.Schema) *ast.Definition { return s.Query })},
			{Name: "mutationType", Type: typeType, Resolve: rootType(func(s *ast.Schema) *ast.Definition { return s.Mutation })},
			{Name: "subscriptionType", Type: typeType, Resolve: rootType(func(s *ast.Schema) *ast.Definition { return s.Subscription })},
			{Name: "directives", Type: schema.NonNull(schema.ListOf(schema.NonNull(directiveType))), Resolve: schemaDirectives},
		}
	}}

	typeType = &schema.Object{Name: "__Type", Fields: func() []*schema.Field {
		return []*schema.Field{
			{Name: "kind", Type: schema.NonNull(typeKindEnum), Resolve: onType(func(t introType, _ field.Args) interface{} {
				return t.kind()
			})},
			{Name: "name", Type: schema.String, Resolve: onType(func(t introType, _ field.Args) interface{} {
				if t.def == nil {
					return nil
				}
				return t.def.Name
			})},
			{Name: "description", Type: schema.String, Resolve: onType(func(t introType, _ field.Args) interface{} {
				if t.def == nil {
					return nil
				}
				return optional(t.def.Description)
			})},
			{Name: "fields", Type: schema.ListOf(schema.NonNull(fieldType)), Args: includeDeprecated, Resolve: onType(typeFields)},
			{Name: "interfaces", Type: schema.ListOf(schema.NonNull(typeType)), Resolve: onType(typeInterfaces)},
			{Name: "possibleTypes", Type: schema.ListOf(schema.NonNull(typeType)), Resolve: onType(typePossibleTypes)},
			{Name: "enumValues", Type: schema.ListOf(schema.NonNull(enumValueType)), Args: includeDeprecated, Resolve: onType(typeEnumValues)},
			{Name: "inputFields", Type: schema.ListOf(schema.NonNull(inputValueType)), Resolve: onType(typeInputFields)},
			{Name: "ofType", Type: typeType, Resolve: onType(func(t introType, _ field.Args) interface{} {
				return t.ofType()
			})},
			{Name: "specifiedByURL", Type: schema.String, Resolve: resolveNull},
		}
	}}

	fieldType = &schema.Object{Name: "__Field", Fields: func() []*schema.Field {
		return []*schema.Field{
			{Name: "name", Type: schema.NonNull(schema.String), Resolve: onField(func(f introField) interface{} { return f.f.Name })},
			{Name: "description", Type: schema.String, Resolve: onField(func(f introField) interface{} { return optional(f.f.Description) })},
			{Name: "args", Type: schema.NonNull(schema.ListOf(schema.NonNull(inputValueType))), Resolve: onField(func(f introField) interface{} {
				return inputValues(f.s, f.f.Arguments)
			})},
			{Name: "type", Type: schema.NonNull(typeType), Resolve: onField(func(f introField) interface{} { return newIntroType(f.s, f.f.Type) })},
			{Name: "isDeprecated", Type: schema.NonNull(schema.Boolean), Resolve: onField(func(f introField) interface{} {
				return f.f.Directives.ForName("deprecated") != nil
			})},
			{Name: "deprecationReason", Type: schema.String, Resolve: onField(func(f introField) interface{} {
				return deprecationReason(f.f.Directives)
			})},
		}
	}}

	inputValueType = &schema.Object{Name: "__InputValue", Fields: func() []*schema.Field {
		return []*schema.Field{
			{Name: "name", Type: schema.NonNull(schema.String), Resolve: onInputValue(func(a introInputValue) interface{} { return a.a.Name })},
			{Name: "description", Type: schema.String, Resolve: onInputValue(func(a introInputValue) interface{} {
				return optional(a.a.Description)
			})},
			{Name: "type", Type: schema.NonNull(typeType), Resolve: onInputValue(func(a introInputValue) interface{} {
				return newIntroType(a.s, a.a.Type)
			})},
			{Name: "defaultValue", Type: schema.String, Resolve: onInputValue(func(a introInputValue) interface{} {
				if a.a.DefaultValue == nil {
					return nil
				}
				return a.a.DefaultValue.String()
			})},
		}
	}}

	enumValueType = &schema.Object{Name: "__EnumValue", Fields: func() []*schema.Field {
		return []*schema.Field{
			{Name: "name", Type: schema.NonNull(schema.String), Resolve: onEnumValue(func(v *ast.EnumValueDefinition) interface{} { return v.Name })},
			{Name: "description", Type: schema.String, Resolve: onEnumValue(func(v *ast.EnumValueDefinition) interface{} {
				return optional(v.Description)
			})},
			{Name: "isDeprecated", Type: schema.NonNull(schema.Boolean), Resolve: onEnumValue(func(v *ast.EnumValueDefinition) interface{} {
				return v.Directives.ForName("deprecated") != nil
			})},
			{Name: "deprecationReason", Type: schema.String, Resolve: onEnumValue(func(v *ast.EnumValueDefinition) interface{} {
				return deprecationReason(v.Directives)
			})},
		}
	}}

	directiveType = &schema.Object{Name: "__Directive", Fields: func() []*schema.Field {
		return []*schema.Field{
			{Name: "name", Type: schema.NonNull(schema.String), Resolve: onDirective(func(d introDirective) interface{} { return d.d.Name })},
			{Name: "description", Type: schema.String, Resolve: onDirective(func(d introDirective) interface{} {
				return optional(d.d.Description)
			})},
			{Name: "locations", Type: schema.NonNull(schema.ListOf(schema.NonNull(directiveLocationEnum))),
				Resolve: onDirective(func(d introDirective) interface{} {
					r := make([]string, len(d.d.Locations))
					for i, loc := range d.d.Locations {
						r[i] = string(loc)
					}
					return r
				})},
			{Name: "args", Type: schema.NonNull(schema.ListOf(schema.NonNull(inputValueType))), Resolve: onDirective(func(d introDirective) interface{} {
				return inputValues(d.s, d.d.Arguments)
			})},
			{Name: "isRepeatable", Type: schema.NonNull(schema.Boolean), Resolve: func(context.Context, interface{}, field.Args) (interface{}, error) {
				return false, nil
			}},
		}
	}}
}

// newIntrospection creates an object with the (hidden) __schema and __type fields of the query type
func newIntrospection(astSchema *ast.Schema) *schema.Object {
	return &schema.Object{Name: "__Introspection", Fields: func() []*schema.Field {
		return []*schema.Field{
			{
				Name: "__schema",
				Type: schema.NonNull(schemaType),
				Resolve: func(context.Context, interface{}, field.Args) (interface{}, error) {
					return astSchema, nil
				},
			},
			{
				Name: "__type",
				Type: typeType,
				Args: []*schema.Arg{{Name: "name", Type: schema.NonNull(schema.String)}},
				Resolve: func(_ context.Context, _ interface{}, args field.Args) (interface{}, error) {
					name, _ := args.String("name")
					def, ok := astSchema.Types[name]
					if !ok {
						return nil, nil
					}
					return introType{s: astSchema, def: def}, nil
				},
			},
		}
	}}
}

// newIntroType makes a __Type value from a type reference
func newIntroType(s *ast.Schema, t *ast.Type) introType {
	if !t.NonNull && t.Elem == nil {
		return introType{s: s, def: s.Types[t.NamedType]}
	}
	return introType{s: s, t: t}
}

func (t introType) kind() string {
	if t.t != nil {
		if t.t.NonNull {
			return "NON_NULL"
		}
		return "LIST"
	}
	return string(t.def.Kind)
}

func (t introType) ofType() interface{} {
	if t.t == nil {
		return nil // named types do not wrap another type
	}
	if t.t.NonNull {
		nullable := *t.t
		nullable.NonNull = false
		return newIntroType(t.s, &nullable)
	}
	return newIntroType(t.s, t.t.Elem)
}

func schemaTypes(_ context.Context, parent interface{}, _ field.Args) (interface{}, error) {
	s := parent.(*ast.Schema)
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	r := make([]introType, len(names))
	for i, name := range names {
		r[i] = introType{s: s, def: s.Types[name]}
	}
	return r, nil
}

func rootType(get func(*ast.Schema) *ast.Definition) schema.ResolveFunc {
	return func(_ context.Context, parent interface{}, _ field.Args) (interface{}, error) {
		s := parent.(*ast.Schema)
		def := get(s)
		if def == nil {
			return nil, nil
		}
		return introType{s: s, def: def}, nil
	}
}

func schemaDirectives(_ context.Context, parent interface{}, _ field.Args) (interface{}, error) {
	s := parent.(*ast.Schema)
	names := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		names = append(names, name)
	}
	sort.Strings(names)

	r := make([]introDirective, len(names))
	for i, name := range names {
		r[i] = introDirective{s: s, d: s.Directives[name]}
	}
	return r, nil
}

func typeFields(t introType, args field.Args) interface{} {
	if t.def == nil || (t.def.Kind != ast.Object && t.def.Kind != ast.Interface) {
		return nil
	}
	all, _ := args.Bool("includeDeprecated")
	r := make([]introField, 0, len(t.def.Fields))
	for _, f := range t.def.Fields {
		if len(f.Name) > 1 && f.Name[:2] == "__" {
			continue // __schema and __type are not listed
		}
		if !all && f.Directives.ForName("deprecated") != nil {
			continue
		}
		r = append(r, introField{s: t.s, f: f})
	}
	return r
}

func typeInterfaces(t introType, _ field.Args) interface{} {
	if t.def == nil || t.def.Kind != ast.Object {
		return nil
	}
	r := make([]introType, 0, len(t.def.Interfaces))
	for _, name := range t.def.Interfaces {
		if def, ok := t.s.Types[name]; ok {
			r = append(r, introType{s: t.s, def: def})
		}
	}
	return r
}

func typePossibleTypes(t introType, _ field.Args) interface{} {
	if t.def == nil || (t.def.Kind != ast.Interface && t.def.Kind != ast.Union) {
		return nil
	}
	defs := t.s.GetPossibleTypes(t.def)
	r := make([]introType, len(defs))
	for i, def := range defs {
		r[i] = introType{s: t.s, def: def}
	}
	return r
}

func typeEnumValues(t introType, args field.Args) interface{} {
	if t.def == nil || t.def.Kind != ast.Enum {
		return nil
	}
	all, _ := args.Bool("includeDeprecated")
	r := make([]*ast.EnumValueDefinition, 0, len(t.def.EnumValues))
	for _, v := range t.def.EnumValues {
		if all || v.Directives.ForName("deprecated") == nil {
			r = append(r, v)
		}
	}
	return r
}

func typeInputFields(t introType, _ field.Args) interface{} {
	if t.def == nil || t.def.Kind != ast.InputObject {
		return nil
	}
	r := make([]introInputValue, len(t.def.Fields))
	for i, f := range t.def.Fields {
		r[i] = introInputValue{s: t.s, a: &ast.ArgumentDefinition{
			Name:         f.Name,
			Description:  f.Description,
			DefaultValue: f.DefaultValue,
			Type:         f.Type,
		}}
	}
	return r
}

func inputValues(s *ast.Schema, args ast.ArgumentDefinitionList) []introInputValue {
	r := make([]introInputValue, len(args))
	for i, a := range args {
		r[i] = introInputValue{s: s, a: a}
	}
	return r
}

func deprecationReason(directives ast.DirectiveList) interface{} {
	d := directives.ForName("deprecated")
	if d == nil {
		return nil
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw
	}
	return "No longer supported"
}

func resolveNull(context.Context, interface{}, field.Args) (interface{}, error) { return nil, nil }

// optional returns nil (null) for an empty string
func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// The following adapt functions of a specific parent type to a schema.ResolveFunc

func onType(f func(introType, field.Args) interface{}) schema.ResolveFunc {
	return func(_ context.Context, parent interface{}, args field.Args) (interface{}, error) {
		return f(parent.(introType), args), nil
	}
}

func onField(f func(introField) interface{}) schema.ResolveFunc {
	return func(_ context.Context, parent interface{}, _ field.Args) (interface{}, error) {
		return f(parent.(introField)), nil
	}
}

func onInputValue(f func(introInputValue) interface{}) schema.ResolveFunc {
	return func(_ context.Context, parent interface{}, _ field.Args) (interface{}, error) {
		return f(parent.(introInputValue)), nil
	}
}

func onEnumValue(f func(*ast.EnumValueDefinition) interface{}) schema.ResolveFunc {
	return func(_ context.Context, parent interface{}, _ field.Args) (interface{}, error) {
		return f(parent.(*ast.EnumValueDefinition)), nil
	}
}

func onDirective(f func(introDirective) interface{}) schema.ResolveFunc {
	return func(_ context.Context, parent interface{}, _ field.Args) (interface{}, error) {
		return f(parent.(introDirective)), nil
	}
}
