package field

// args.go converts GraphQL argument values into Go values

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Args holds the arguments of a field, keyed by argument name. Values are stored as
// gqlparser's ast.Value.Value returns them: int64, float64, string, bool, nil,
// []interface{} (lists) or map[string]interface{} (input objects). Variables decoded from
// JSON may also hold json.Number or int.
type Args map[string]interface{}

// Has reports if an argument was supplied with a non-null value
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// Int returns an integer argument - ok is false if the argument is missing, null or not an integer
func (a Args) Int(name string) (int, bool) {
	if !a.Has(name) {
		return 0, false
	}
	v, err := convert(reflect.TypeOf(0), name, a[name])
	if err != nil {
		return 0, false
	}
	return v.Interface().(int), true
}

// String returns a string argument - ok is false if the argument is missing, null or not a string
func (a Args) String(name string) (string, bool) {
	s, ok := a[name].(string)
	return s, ok
}

// Bool returns a Boolean argument - ok is false if the argument is missing, null or not a Boolean
func (a Args) Bool(name string) (bool, bool) {
	b, ok := a[name].(bool)
	return b, ok
}

// Decode fills in the struct pointed to by dst from the arguments. Each exported struct field
// receives the argument with the same GraphQL name (see Name). Missing arguments leave the
// field unchanged.
func (a Args) Decode(dst interface{}) error {
	pv := reflect.ValueOf(dst)
	if pv.Kind() != reflect.Ptr || pv.IsNil() || pv.Elem().Kind() != reflect.Struct {
		return errors.New("field.Args.Decode needs a non-nil pointer to a struct")
	}
	return decodeStruct(pv.Elem(), "arguments", a)
}

// decodeStruct sets the fields of the struct v from the map m (eg from a GraphQL input object)
func decodeStruct(v reflect.Value, name string, m map[string]interface{}) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tField := t.Field(i)
		fieldName := Name(&tField)
		if fieldName == "" {
			continue // ignore unexported field
		}
		value, ok := m[fieldName]
		if !ok {
			continue
		}
		converted, err := convert(tField.Type, fieldName, value)
		if err != nil {
			return fmt.Errorf("converting field %q of %q: %w", fieldName, name, err)
		}
		v.Field(i).Set(converted)
	}
	return nil
}

// convert returns a value of Go type t given the "raw" value of a GraphQL argument
// Parameters:
//   t = expected type
//   name = name of the argument (for error messages)
//   value = what needs to be returned as a value of type t
func convert(t reflect.Type, name string, value interface{}) (reflect.Value, error) {
	if value == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("argument %q cannot be null", name)
	}
	if t.Kind() == reflect.Ptr {
		elem, err := convert(t.Elem(), name, value)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}
	if t.Kind() == reflect.Interface {
		return reflect.ValueOf(value), nil
	}

	switch v := value.(type) {
	case map[string]interface{}:
		if t.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("argument %q is a GraphQL input object but %v is not a struct", name, t)
		}
		r := reflect.New(t).Elem()
		if err := decodeStruct(r, name, v); err != nil {
			return reflect.Value{}, err
		}
		return r, nil
	case []interface{}:
		if t.Kind() != reflect.Slice {
			return reflect.Value{}, fmt.Errorf("argument %q is a list but %v is not a slice", name, t)
		}
		r := reflect.MakeSlice(t, len(v), len(v))
		for i, elem := range v {
			converted, err := convert(t.Elem(), fmt.Sprintf("%s[%d]", name, i), elem)
			if err != nil {
				return reflect.Value{}, err
			}
			r.Index(i).Set(converted)
		}
		return r, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return convertInt(t, name, i)
		}
		f, err := v.Float64()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w decoding number argument %q", err, name)
		}
		return convertFloat(t, name, f)
	case int:
		return convertInt(t, name, int64(v))
	case int32:
		return convertInt(t, name, int64(v))
	case int64:
		return convertInt(t, name, v)
	case float64:
		return convertFloat(t, name, v)
	case string:
		if t.Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("argument %q is a string but %v is expected", name, t)
		}
		return reflect.ValueOf(v).Convert(t), nil
	case bool:
		if t.Kind() != reflect.Bool {
			return reflect.Value{}, fmt.Errorf("argument %q is a Boolean but %v is expected", name, t)
		}
		return reflect.ValueOf(v).Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("argument %q is of unsupported type %T", name, value)
}

// convertInt takes an integer and returns the value as the desired Go type (integer, float or string)
func convertInt(t reflect.Type, name string, i int64) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		r := reflect.New(t).Elem()
		if r.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("argument %q value %d overflows %v", name, i, t)
		}
		r.SetInt(i)
		return r, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		r := reflect.New(t).Elem()
		if i < 0 || r.OverflowUint(uint64(i)) {
			return reflect.Value{}, fmt.Errorf("argument %q value %d overflows %v", name, i, t)
		}
		r.SetUint(uint64(i))
		return r, nil
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(float64(i)).Convert(t), nil
	case reflect.String:
		return reflect.ValueOf(strconv.FormatInt(i, 10)).Convert(t), nil // eg GraphQL ID given as an integer
	}
	return reflect.Value{}, fmt.Errorf("argument %q is an integer but %v is expected", name, t)
}

// convertFloat takes a float and returns the value as the desired Go type. An integral value
// can be returned as an integer type (JSON variables do not distinguish ints from floats).
func convertFloat(t reflect.Type, name string, f float64) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(f).Convert(t), nil
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return reflect.Value{}, fmt.Errorf("argument %q value %g is not an integer", name, f)
	}
	return convertInt(t, name, int64(f))
}
