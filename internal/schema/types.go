package schema

// types.go declares the GraphQL types (scalars, enums, objects, lists and non-nullable types) used to build a schema

import (
	"context"
	"sync"

	"github.com/andrewwphillips/clubql/internal/field"
)

type (
	// Type is a reference to a GraphQL type. String returns the type as it appears in a schema
	// or query, eg "Int", "[Player]" or "Club!".
	Type interface {
		String() string
	}

	// Scalar is a leaf type such as Int or String
	Scalar struct {
		Name, Description string
	}

	// Enum is a leaf type with a fixed set of (string) values
	Enum struct {
		Name, Description string
		Values            []string
	}

	// Object is a GraphQL object type. The Fields thunk is not called until the fields are first
	// needed, so two objects can refer to each other (eg Club.players and Player.club) - both
	// objects are created before either list of fields is built.
	Object struct {
		Name, Description string
		Fields            func() []*Field

		once   sync.Once
		fields []*Field
		byName map[string]*Field
	}

	// Field is a field of an Object. If Resolve is nil the default resolver (field.Resolve) is used
	// which finds the value in the parent struct or map.
	// Subscribe is only used for fields of the subscription root type.
	Field struct {
		Name, Description string
		Type              Type
		Args              []*Arg
		Resolve           ResolveFunc
		Subscribe         SubscribeFunc
	}

	// Arg is an argument of a Field. Default (if not empty) is a GraphQL literal, eg `42` or `"abc"`.
	Arg struct {
		Name, Description string
		Type              Type
		Default           string
	}

	// ResolveFunc returns the value of a field given the value of the object it is part of (parent).
	// For root (query/mutation) fields, parent is the root value given to the handler.
	ResolveFunc func(ctx context.Context, parent interface{}, args field.Args) (interface{}, error)

	// SubscribeFunc starts a subscription returning a chan of source values, each of which is resolved
	// as if it were the parent of the field's selection set. The chan must be closed when ctx is done.
	SubscribeFunc func(ctx context.Context, args field.Args) (<-chan interface{}, error)

	nonNull struct{ of Type }
	list    struct{ of Type }
)

// Built-in scalar types
var (
	Int     = &Scalar{Name: "Int"}
	Float   = &Scalar{Name: "Float"}
	String  = &Scalar{Name: "String"}
	Boolean = &Scalar{Name: "Boolean"}
)

var builtIn = map[string]bool{"Int": true, "Float": true, "String": true, "Boolean": true, "ID": true}

func (s *Scalar) String() string { return s.Name }
func (e *Enum) String() string   { return e.Name }
func (o *Object) String() string { return o.Name }
func (n nonNull) String() string { return n.of.String() + "!" }
func (l list) String() string    { return "[" + l.of.String() + "]" }

// NonNull returns a non-nullable version of a type
func NonNull(t Type) Type {
	if _, ok := t.(nonNull); ok {
		return t
	}
	return nonNull{of: t}
}

// ListOf returns a list type with elements of type t
func ListOf(t Type) Type {
	return list{of: t}
}

// Unwrap removes one level of list or non-null modifier, returning the modified type and
// whether it was non-null or a list. For a named type it returns nil.
func Unwrap(t Type) (of Type, isNonNull, isList bool) {
	switch v := t.(type) {
	case nonNull:
		return v.of, true, false
	case list:
		return v.of, false, true
	}
	return nil, false, false
}

// Named returns the named type (scalar, enum or object) with all modifiers removed
func Named(t Type) Type {
	for {
		of, _, _ := Unwrap(t)
		if of == nil {
			return t
		}
		t = of
	}
}

// FieldList returns the fields of the object, calling the Fields thunk the first time
func (o *Object) FieldList() []*Field {
	o.once.Do(func() {
		if o.Fields != nil {
			o.fields = o.Fields()
		}
		o.byName = make(map[string]*Field, len(o.fields))
		for _, f := range o.fields {
			if _, ok := o.byName[f.Name]; !ok {
				o.byName[f.Name] = f // Validate reports any duplicates
			}
		}
	})
	return o.fields
}

// Field returns the field with the given name or nil if there is no such field
func (o *Object) Field(name string) *Field {
	o.FieldList()
	return o.byName[name]
}
