// Package field maps between GraphQL fields and Go values: it finds the Go struct field that
// resolves a GraphQL field (when a resolver function is not supplied) and converts GraphQL
// argument values into Go types.
package field

// field.go finds the value of a GraphQL field in a Go struct or map

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TagName is the struct tag key used to give a struct field a different GraphQL name, eg:
//   ClubID int `graphql:"clubId"`
// A tag value of "-" hides the field from GraphQL.
const TagName = "graphql"

// Name returns the GraphQL name for a Go struct field - the tag name if present else the Go
// name with the first letter lower-cased. An empty string is returned for unexported or hidden fields.
func Name(f *reflect.StructField) string {
	if f.PkgPath != "" {
		return "" // unexported field
	}
	if tag := strings.TrimSpace(strings.SplitN(f.Tag.Get(TagName), ",", 2)[0]); tag != "" {
		if tag == "-" {
			return ""
		}
		return tag
	}
	first, n := utf8.DecodeRuneInString(f.Name)
	return string(unicode.ToLower(first)) + f.Name[n:]
}

// Resolve is the default resolver, used when a field of an object type does not have a resolver function.
// It returns the value of the struct field (or map entry) with the given GraphQL name.
// Pointers and interfaces are followed; a nil parent results in a nil value (null).
func Resolve(parent interface{}, name string) (interface{}, error) {
	if m, ok := parent.(map[string]interface{}); ok {
		return m[name], nil
	}

	v := reflect.ValueOf(parent)
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem() // follow indirection
	}
	if !v.IsValid() {
		return nil, nil
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot resolve field %q of non-struct type %v", name, v.Type())
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tField := t.Field(i)
		if Name(&tField) == name {
			return v.Field(i).Interface(), nil
		}
	}
	return nil, fmt.Errorf("field %q not found in %v", name, t)
}
