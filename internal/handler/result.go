package handler

// result.go is used to generate the query output by calling the resolvers of the selected fields

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"

	"github.com/andrewwphillips/clubql/internal/field"
	"github.com/andrewwphillips/clubql/internal/schema"
	"github.com/dolmen-go/jsonmap"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

type (
	// gqlOperation controls an operation (query/mutation/subscription event) of a GraphQL request
	gqlOperation struct {
		*Handler // required for the schema, options etc

		isMutation bool                   // mutation fields are resolved one after the other
		variables  map[string]interface{} // variables for this op (extracted from the request)

		errMtx sync.Mutex    // protects errors as fields are resolved concurrently
		errors gqlerror.List // field errors found during execution
	}

	// gqlValue contains the result of resolving one field, plus the name (alias) it appears as in the result
	gqlValue struct {
		name  string      // name/alias of the field
		value interface{} // scalar, nested result (jsonmap.Ordered), list ([]interface{}) or nil
		ok    bool        // false if a null was found for a non-null field so the parent object is also null
	}

	// fieldGroup is the fields of a selection set that share the same response name (after expanding fragments)
	fieldGroup struct {
		key    string
		fields []*ast.Field
	}
)

// GetSelections resolves the selections of an object by finding and evaluating the corresponding resolver(s).
// Returns a jsonmap.Ordered (a map of values and a slice that remembers the order they were added) that contains an
// entry for each selection, where the map "key" is the name (or alias) of the field and the value is:
//
//	a) scalar value (stored in an interface{})
//	b) a nested jsonmap.Ordered if the field is an object
//	c) a slice (ie []interface{}) if the field is a list
//
// Parameters:
//
//	ctx = a Go context that could expire at any time
//	obj = the object type whose fields are selected
//	set = list of selections from a GraphQL query to be resolved
//	parent = the value of the object (passed to the field resolvers)
//	path = location of the object in the result (used in error messages)
//
// The returned bool is false if a non-null field of the object had a null value, so the object is null.
func (op *gqlOperation) GetSelections(ctx context.Context, obj *schema.Object, set ast.SelectionSet,
	parent interface{}, path ast.Path) (jsonmap.Ordered, bool) {
	groups := op.collectFields(obj, set, nil)

	resultChans := make([]<-chan gqlValue, 0, len(groups))
	for _, g := range groups {
		ch := make(chan gqlValue, 1) // buffered so a resolver can finish even if we stop waiting
		if op.isMutation || op.noConcurrency {
			op.resolveField(ctx, obj, g, parent, path, ch) // mutations are run sequentially
		} else {
			// Calling resolveField as a go routine allows resolvers to run in parallel
			go op.resolveField(ctx, obj, g, parent, path, ch)
		}
		resultChans = append(resultChans, ch)
	}

	// Now extract the values (will block until all resolvers have finished)
	r := jsonmap.Ordered{
		Data:  make(map[string]interface{}, len(groups)),
		Order: make([]string, 0, len(groups)),
	}
	ok := true
	for _, ch := range resultChans {
		select {
		case v := <-ch:
			if !v.ok {
				ok = false
			}
			r.Order = append(r.Order, v.name)
			r.Data[v.name] = v.value
		case <-ctx.Done():
			op.addError(nil, path, ctx.Err())
			return jsonmap.Ordered{}, false
		}
	}
	if !ok {
		return jsonmap.Ordered{}, false
	}
	return r, true
}

// collectFields flattens fragments (and removes fields excluded by @skip/@include) returning the
// fields grouped by response name, in the order they first appear in the query
func (op *gqlOperation) collectFields(obj *schema.Object, set ast.SelectionSet, visited map[string]bool) []*fieldGroup {
	var groups []*fieldGroup
	index := make(map[string]*fieldGroup)
	if visited == nil {
		visited = make(map[string]bool)
	}

	var collect func(set ast.SelectionSet)
	collect = func(set ast.SelectionSet) {
		for _, s := range set {
			switch astType := s.(type) {
			case *ast.Field:
				if !op.included(astType.Directives) {
					continue
				}
				key := astType.Alias
				if key == "" {
					key = astType.Name
				}
				if g, ok := index[key]; ok {
					g.fields = append(g.fields, astType)
					continue
				}
				g := &fieldGroup{key: key, fields: []*ast.Field{astType}}
				index[key] = g
				groups = append(groups, g)

			case *ast.InlineFragment:
				if !op.included(astType.Directives) {
					continue
				}
				if astType.TypeCondition == "" || astType.TypeCondition == obj.Name {
					collect(astType.SelectionSet)
				}

			case *ast.FragmentSpread:
				if !op.included(astType.Directives) || visited[astType.Name] || astType.Definition == nil {
					continue
				}
				visited[astType.Name] = true
				if astType.Definition.TypeCondition == obj.Name {
					collect(astType.Definition.SelectionSet)
				}
			}
		}
	}
	collect(set)
	return groups
}

// included checks the @skip and @include directives of a selection
func (op *gqlOperation) included(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && op.directiveIf(d) {
		return false
	}
	if d := directives.ForName("include"); d != nil && !op.directiveIf(d) {
		return false
	}
	return true
}

// directiveIf gets the value of the "if" argument of a directive
func (op *gqlOperation) directiveIf(d *ast.Directive) bool {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false
	}
	v, err := arg.Value.Value(op.variables)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

// resolveField finds the field of the object, calls its resolver and completes the value,
// placing the result on the chan
func (op *gqlOperation) resolveField(ctx context.Context, obj *schema.Object, g *fieldGroup, parent interface{},
	path ast.Path, ch chan<- gqlValue) {
	astField := g.fields[0]
	fieldPath := make(ast.Path, len(path), len(path)+1)
	copy(fieldPath, path)
	fieldPath = append(fieldPath, ast.PathName(g.key))

	if astField.Name == "__typename" { // __typename is available on every object type
		ch <- gqlValue{name: g.key, value: obj.Name, ok: true}
		return
	}

	f := obj.Field(astField.Name)
	if f == nil && obj == op.schema.Query {
		if f = op.introspection.Field(astField.Name); f != nil && op.noIntrospection {
			_, isNonNull, _ := schema.Unwrap(f.Type)
			op.addError(astField, fieldPath, fmt.Errorf("introspection is disabled"))
			ch <- gqlValue{name: g.key, ok: !isNonNull}
			return
		}
	}
	if f == nil {
		// This is a bug as the query has already been validated against the schema
		op.addError(astField, fieldPath, fmt.Errorf("field %q not found in type %s", astField.Name, obj.Name))
		ch <- gqlValue{name: g.key, ok: true}
		return
	}
	_, isNonNull, _ := schema.Unwrap(f.Type)

	var value interface{}
	args, err := op.arguments(f, astField)
	if err == nil {
		if f.Resolve != nil {
			value, err = callResolver(ctx, f.Resolve, parent, args)
		} else {
			value, err = field.Resolve(parent, f.Name)
		}
	}
	if err != nil {
		op.addError(astField, fieldPath, err)
		ch <- gqlValue{name: g.key, ok: !isNonNull}
		return
	}

	v, ok := op.complete(ctx, f.Type, g, value, fieldPath)
	if !ok && !isNonNull {
		v, ok = nil, true // null stops at a nullable field
	}
	ch <- gqlValue{name: g.key, value: v, ok: ok}
}

// arguments gets the argument values for a field from the query (or variables), using
// the default value of arguments that were not given
func (op *gqlOperation) arguments(f *schema.Field, astField *ast.Field) (field.Args, error) {
	args := make(field.Args, len(f.Args))
	for _, a := range f.Args {
		if arg := astField.Arguments.ForName(a.Name); arg != nil && op.supplied(arg.Value) {
			v, err := arg.Value.Value(op.variables)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", a.Name, err)
			}
			args[a.Name] = v
			continue
		}
		if astField.Definition == nil {
			continue
		}
		if def := astField.Definition.Arguments.ForName(a.Name); def != nil && def.DefaultValue != nil {
			v, err := def.DefaultValue.Value(nil)
			if err != nil {
				return nil, fmt.Errorf("default for argument %q: %w", a.Name, err)
			}
			args[a.Name] = v
		}
	}
	return args, nil
}

// supplied returns false if the value is a variable for which no value was given (so any default should be used)
func (op *gqlOperation) supplied(value *ast.Value) bool {
	if value == nil {
		return false
	}
	if value.Kind == ast.Variable {
		_, ok := op.variables[value.Raw]
		return ok
	}
	return true
}

// callResolver calls a resolver function converting any panic to an error
func callResolver(ctx context.Context, resolve schema.ResolveFunc, parent interface{}, args field.Args,
) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("resolver panicked: %v", r)
		}
	}()
	return resolve(ctx, parent, args)
}

// callSubscribe calls a subscription's Subscribe function converting any panic to an error
func callSubscribe(ctx context.Context, subscribe schema.SubscribeFunc, args field.Args,
) (ch <-chan interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			ch, err = nil, fmt.Errorf("subscribe panicked: %v", r)
		}
	}()
	return subscribe(ctx, args)
}

// complete converts a resolved value into a value for the result according to the field's type.
// Objects have their selections resolved, lists have each element completed and leaf
// values are checked and converted. If false is returned the value could not be completed
// (an error has been recorded) and null must be propagated to the nearest nullable field.
func (op *gqlOperation) complete(ctx context.Context, t schema.Type, g *fieldGroup, value interface{},
	path ast.Path) (interface{}, bool) {
	if of, isNonNull, isList := schema.Unwrap(t); isNonNull {
		v, ok := op.complete(ctx, of, g, value, path)
		if !ok {
			return nil, false
		}
		if v == nil {
			op.addError(g.fields[0], path, fmt.Errorf("null value for non-nullable field %q", g.fields[0].Name))
			return nil, false
		}
		return v, true
	} else if isList {
		if isNil(value) {
			return nil, true
		}
		return op.completeList(ctx, of, g, value, path)
	}

	if isNil(value) {
		return nil, true
	}
	switch nt := t.(type) {
	case *schema.Object:
		r, ok := op.GetSelections(ctx, nt, mergeSelections(g.fields), value, path)
		if !ok {
			return nil, false
		}
		return r, true
	default:
		v, err := serialize(t, value)
		if err != nil {
			op.addError(g.fields[0], path, err)
			return nil, false
		}
		return v, true
	}
}

// completeList completes each element of a slice or array
func (op *gqlOperation) completeList(ctx context.Context, of schema.Type, g *fieldGroup, value interface{},
	path ast.Path) (interface{}, bool) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		op.addError(g.fields[0], path, fmt.Errorf("expected a list for field %q but got %T", g.fields[0].Name, value))
		return nil, false
	}

	_, elementNonNull, _ := schema.Unwrap(of)
	r := make([]interface{}, v.Len())
	for i := 0; i < v.Len(); i++ {
		elementPath := make(ast.Path, len(path), len(path)+1)
		copy(elementPath, path)
		elementPath = append(elementPath, ast.PathIndex(i))

		element, ok := op.complete(ctx, of, g, v.Index(i).Interface(), elementPath)
		if !ok {
			if elementNonNull {
				return nil, false
			}
			element = nil
		}
		r[i] = element
	}
	return r, true
}

// mergeSelections combines the sub-selections of fields with the same response name
func mergeSelections(fields []*ast.Field) ast.SelectionSet {
	if len(fields) == 1 {
		return fields[0].SelectionSet
	}
	var r ast.SelectionSet
	for _, f := range fields {
		r = append(r, f.SelectionSet...)
	}
	return r
}

// addError records a field error with its location in the query and path in the result
func (op *gqlOperation) addError(astField *ast.Field, path ast.Path, err error) {
	e, ok := err.(*gqlerror.Error)
	if !ok {
		e = &gqlerror.Error{Message: err.Error()}
	}
	if e.Path == nil && len(path) > 0 {
		e.Path = path
	}
	if astField != nil && astField.Position != nil && e.Locations == nil {
		e.Locations = []gqlerror.Location{{Line: astField.Position.Line, Column: astField.Position.Column}}
	}

	op.errMtx.Lock()
	op.errors = append(op.errors, e)
	op.errMtx.Unlock()
}

// isNil returns true for nil or a nil pointer, slice, map etc
func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

// serialize checks and converts a value for a leaf (scalar or enum) type
func serialize(t schema.Type, value interface{}) (interface{}, error) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	switch nt := t.(type) {
	case *schema.Enum:
		var s string
		if stringer, ok := value.(fmt.Stringer); ok {
			s = stringer.String()
		} else if v.Kind() == reflect.String {
			s = v.String()
		} else {
			return nil, fmt.Errorf("value %v of type %T is not valid for enum %s", value, value, nt.Name)
		}
		for _, enumValue := range nt.Values {
			if s == enumValue {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%q is not a value of enum %s", s, nt.Name)

	case *schema.Scalar:
		switch nt.Name {
		case "Int":
			var i int64
			switch v.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				i = v.Int()
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				if v.Uint() > math.MaxInt32 {
					return nil, fmt.Errorf("value %d is too large for Int", v.Uint())
				}
				i = int64(v.Uint())
			case reflect.Float32, reflect.Float64:
				if f := v.Float(); f == math.Trunc(f) {
					i = int64(f)
				} else {
					return nil, fmt.Errorf("value %g is not an integer", f)
				}
			default:
				return nil, fmt.Errorf("value of type %T is not valid for Int", value)
			}
			if i < math.MinInt32 || i > math.MaxInt32 {
				return nil, fmt.Errorf("value %d is out of range for Int", i)
			}
			return i, nil

		case "Float":
			switch v.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				return float64(v.Int()), nil
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				return float64(v.Uint()), nil
			case reflect.Float32, reflect.Float64:
				return v.Float(), nil
			}
			return nil, fmt.Errorf("value of type %T is not valid for Float", value)

		case "String":
			if v.Kind() == reflect.String {
				return v.String(), nil
			}
			if stringer, ok := value.(fmt.Stringer); ok {
				return stringer.String(), nil
			}
			return nil, fmt.Errorf("value of type %T is not valid for String", value)

		case "Boolean":
			if v.Kind() == reflect.Bool {
				return v.Bool(), nil
			}
			return nil, fmt.Errorf("value of type %T is not valid for Boolean", value)

		case "ID":
			switch v.Kind() {
			case reflect.String:
				return v.String(), nil
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				return strconv.FormatInt(v.Int(), 10), nil
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				return strconv.FormatUint(v.Uint(), 10), nil
			}
			return nil, fmt.Errorf("value of type %T is not valid for ID", value)
		}
	}
	return value, nil // custom scalar
}
