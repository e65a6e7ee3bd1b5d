package primitives

import (
	"fmt"
	"io"
	"reflect"

	"github.com/Witchie/BinSerializer/lib/registry"
	"github.com/Witchie/BinSerializer/lib/types"
)

// List is the open generic definition List[T]. Instantiations whose element type
// has a Go representation are represented as Go slices, others as []any.
var List = types.NewGeneric("List", types.KindReference, []string{"T"},
	types.WithSupertypes(Object),
	types.WithGoTypeFunc(func(args []reflect.Type) reflect.Type {
		return reflect.SliceOf(args[0])
	}),
)

// openList closes the list routines over the element type of the instantiation.
// Encoding: 4 byte element count followed by the encoded elements.
func openList(closed *types.Type, lookup registry.Lookup) (registry.Method, error) {
	elem := closed.Args()[0]

	elemWriter, err := lookup.Writer(elem)
	if err != nil {
		return registry.Method{}, fmt.Errorf("list element %s: %w", elem, err)
	}
	elemReader, err := lookup.Reader(elem)
	if err != nil {
		return registry.Method{}, fmt.Errorf("list element %s: %w", elem, err)
	}
	elemSkipper, err := lookup.Skipper(elem)
	if err != nil {
		return registry.Method{}, fmt.Errorf("list element %s: %w", elem, err)
	}

	write := func(w io.Writer, v any) error {
		if v == nil {
			return writeLength(w, 0)
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return invalidValue(closed, v)
		}
		if err := writeLength(w, rv.Len()); err != nil {
			return err
		}
		for i := 0; i < rv.Len(); i++ {
			if err := elemWriter.Write(w, rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("list element %d: %w", i, err)
			}
		}
		return nil
	}

	read := func(r io.Reader) (any, error) {
		n, err := readLength(r)
		if err != nil {
			return nil, err
		}

		sliceType := closed.GoType()
		if sliceType == nil {
			sliceType = reflect.TypeOf([]any(nil))
		}
		// grow while reading, the count is not trusted for preallocation
		result := reflect.MakeSlice(sliceType, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			v, err := elemReader.Read(r)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			ev := reflect.Zero(sliceType.Elem())
			if v != nil {
				ev = reflect.ValueOf(v)
				if !ev.Type().AssignableTo(sliceType.Elem()) {
					return nil, types.NewTypeMismatchError(elem, closed, "element of go type %s does not fit %s", ev.Type(), sliceType)
				}
			}
			result = reflect.Append(result, ev)
		}
		return result.Interface(), nil
	}

	skip := func(r io.Reader) error {
		n, err := readLength(r)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := elemSkipper.Skip(r); err != nil {
				return fmt.Errorf("list element %d: %w", i, err)
			}
		}
		return nil
	}

	return registry.Method{
		Writer:  types.NewWriter(closed, write),
		Reader:  types.NewReader(closed, read),
		Skipper: types.NewSkipper(closed, skip),
	}, nil
}
