package schema

// validate.go checks that the types of a schema are consistent before the schema is used

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var nameRegex = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*$`)

// validGraphQLName checks that a string contains a valid GraphQL identifier like a type,
// field, argument or enum value name.
func validGraphQLName(s string) bool {
	if strings.HasPrefix(s, "__") {
		return false // reserved names
	}
	return nameRegex.MatchString(s)
}

// Validate checks the schema and records all types reachable from the root types.
// It returns an error for things like:
//   - a missing query type
//   - invalid or duplicated names (types, fields, arguments)
//   - a field or argument without a type, or an argument default not valid for its type
//   - a root field without a resolver (or a subscription field without a Subscribe func)
func (s *Schema) Validate() error {
	if s.Query == nil {
		return errNoQuery
	}
	types := make(map[string]Type)
	for _, root := range []*Object{s.Query, s.Mutation, s.Subscription} {
		if root == nil {
			continue
		}
		if err := addType(types, root); err != nil {
			return err
		}
	}

	// Root fields have no parent value, so they can't use the default resolver
	for _, f := range s.Query.FieldList() {
		if f.Resolve == nil {
			return fmt.Errorf("query field %q has no resolver", f.Name)
		}
	}
	if s.Mutation != nil {
		for _, f := range s.Mutation.FieldList() {
			if f.Resolve == nil {
				return fmt.Errorf("mutation field %q has no resolver", f.Name)
			}
		}
	}
	if s.Subscription != nil {
		for _, f := range s.Subscription.FieldList() {
			if f.Subscribe == nil {
				return fmt.Errorf("subscription field %q has no Subscribe func", f.Name)
			}
		}
	}

	s.types = types
	return nil
}

// addType adds a named type (and recursively all types used by its fields) to types
func addType(types map[string]Type, t Type) error {
	if t == nil {
		return fmt.Errorf("missing type")
	}
	t = Named(t)
	var name string
	switch v := t.(type) {
	case *Scalar:
		name = v.Name
	case *Enum:
		name = v.Name
		if len(v.Values) == 0 {
			return fmt.Errorf("enum %q has no values", name)
		}
		inUse := make(map[string]struct{}, len(v.Values))
		for _, value := range v.Values {
			if value == "true" || value == "false" || value == "null" || !validGraphQLName(value) {
				return fmt.Errorf("%q is not a valid enum value (enum %s)", value, name)
			}
			if _, ok := inUse[value]; ok {
				return fmt.Errorf("%q is a repeated enum value (enum %s)", value, name)
			}
			inUse[value] = struct{}{}
		}
	case *Object:
		name = v.Name
	default:
		return fmt.Errorf("unknown type %v", t)
	}
	if !validGraphQLName(name) {
		return fmt.Errorf("%q is not a valid type name", name)
	}
	if existing, ok := types[name]; ok {
		if existing != t {
			return fmt.Errorf("two different types are called %q", name)
		}
		return nil // already done (or being done in a recursive call)
	}
	types[name] = t

	obj, ok := t.(*Object)
	if !ok {
		return nil
	}
	fields := obj.FieldList()
	if len(fields) == 0 {
		return fmt.Errorf("object %q has no fields", name)
	}
	inUse := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if !validGraphQLName(f.Name) {
			return fmt.Errorf("%q is not a valid field name (type %s)", f.Name, name)
		}
		if _, ok := inUse[f.Name]; ok {
			return fmt.Errorf("field %q is repeated in type %s", f.Name, name)
		}
		inUse[f.Name] = struct{}{}
		if err := addType(types, f.Type); err != nil {
			return fmt.Errorf("%w in field %s.%s", err, name, f.Name)
		}

		argsInUse := make(map[string]struct{}, len(f.Args))
		for _, arg := range f.Args {
			if !validGraphQLName(arg.Name) {
				return fmt.Errorf("%q is not a valid argument name (field %s.%s)", arg.Name, name, f.Name)
			}
			if _, ok := argsInUse[arg.Name]; ok {
				return fmt.Errorf("argument %q is repeated in field %s.%s", arg.Name, name, f.Name)
			}
			argsInUse[arg.Name] = struct{}{}
			if arg.Type == nil {
				return fmt.Errorf("argument %q of field %s.%s has no type", arg.Name, name, f.Name)
			}
			if _, isObject := Named(arg.Type).(*Object); isObject {
				return fmt.Errorf("argument %q of field %s.%s cannot be an object type", arg.Name, name, f.Name)
			}
			if err := addType(types, arg.Type); err != nil {
				return fmt.Errorf("%w in argument %q of %s.%s", err, arg.Name, name, f.Name)
			}
			if arg.Default != "" && !validLiteral(arg.Type, arg.Default) {
				return fmt.Errorf("default value %s is not valid for argument %q (%s) of %s.%s",
					arg.Default, arg.Name, arg.Type, name, f.Name)
			}
		}
	}
	return nil
}

// validLiteral checks that a string is a valid constant for a type - eg only true/false are allowed for Boolean.
func validLiteral(t Type, literal string) bool {
	if literal == "null" {
		_, isNonNull, _ := Unwrap(t)
		return !isNonNull
	}
	if of, isNonNull, _ := Unwrap(t); isNonNull {
		t = of
	}

	// Check that all the values in a list are valid
	if of, _, isList := Unwrap(t); isList {
		if len(literal) < 2 || literal[0] != '[' || literal[len(literal)-1] != ']' {
			return validLiteral(of, literal) // a single value is coerced to a list
		}
		literal = strings.TrimSpace(literal[1 : len(literal)-1])
		if literal == "" {
			return true // empty list is valid
		}
		for _, v := range strings.Split(literal, ",") {
			if !validLiteral(of, strings.TrimSpace(v)) {
				return false
			}
		}
		return true
	}

	switch v := t.(type) {
	case *Enum:
		for _, value := range v.Values {
			if literal == value {
				return true
			}
		}
		return false
	case *Scalar:
		switch v.Name {
		case "Boolean":
			return literal == "true" || literal == "false"
		case "Int":
			_, err := strconv.Atoi(literal)
			return err == nil
		case "Float":
			_, err := strconv.ParseFloat(literal, 64)
			return err == nil
		case "String":
			return len(literal) > 1 && literal[0] == '"' && literal[len(literal)-1] == '"'
		case "ID":
			_, err := strconv.Atoi(literal)
			return err == nil || len(literal) > 1 && literal[0] == '"' && literal[len(literal)-1] == '"'
		}
	}
	return true // custom scalar - can't check
}
