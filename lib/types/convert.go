package types

import "reflect"

// Reinterpretable reports whether a value of type from can be repackaged as a
// value of type to without transforming it. This holds when
//   - the types are identical,
//   - one is assignable to the other (reference hierarchy, or a value type
//     boxed into one of its declared reference supertypes), or
//   - both are value types sharing the same underlying representation.
func Reinterpretable(from, to *Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from == to {
		return true
	}
	if from.IsParam() || to.IsParam() {
		return false
	}
	if from.IsAssignableFrom(to) || to.IsAssignableFrom(from) {
		return true
	}
	return from.IsValueType() && to.IsValueType() && from.Underlying() == to.Underlying()
}

// Reinterpret repackages v, a value statically typed as from, under the Go
// representation of to. Values are never transformed: only conversions between
// Go types of the same reflect.Kind are applied. If to has no Go representation
// v is returned unchanged.
func Reinterpret(v any, from, to *Type) (any, error) {
	target := to.GoType()
	if target == nil {
		return v, nil
	}

	if v == nil {
		if nillable(target) {
			return nil, nil
		}
		return nil, NewTypeMismatchError(from, to, "nil is not a valid %s value", target)
	}

	actual := reflect.TypeOf(v)
	switch {
	case actual == target:
		return v, nil
	case target.Kind() == reflect.Interface:
		if actual.Implements(target) {
			return v, nil
		}
	case actual.Kind() == target.Kind() && actual.ConvertibleTo(target):
		return reflect.ValueOf(v).Convert(target).Interface(), nil
	}
	return nil, NewTypeMismatchError(from, to, "value of go type %s cannot be reinterpreted as %s", actual, target)
}

// nillable reports whether nil is a valid value of the go type
func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
