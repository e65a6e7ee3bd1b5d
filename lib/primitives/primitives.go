package primitives

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/Witchie/BinSerializer/lib/registry"
	"github.com/Witchie/BinSerializer/lib/types"
)

// Registrar is implemented by registry.Registry and serializer.Serializer
type Registrar interface {
	Register(t *types.Type, id string, method registry.Method, opts ...registry.RegisterOption) (*registry.Descriptor, error)
}

// Leaf types. Handles are process wide and may be registered on any number of registries.
var (
	Object = types.New("Object", types.KindReference, types.WithGoType(reflect.TypeOf((*any)(nil)).Elem()))
	Bool   = types.New("Bool", types.KindValue, types.WithGoType(reflect.TypeOf(false)))
	Int    = types.New("Int", types.KindValue, types.WithGoType(reflect.TypeOf(int32(0))))
	Long   = types.New("Long", types.KindValue, types.WithGoType(reflect.TypeOf(int64(0))))
	Double = types.New("Double", types.KindValue, types.WithGoType(reflect.TypeOf(float64(0))))
	String = types.New("String", types.KindReference, types.WithSupertypes(Object), types.WithGoType(reflect.TypeOf("")))
)

// Register registers all leaf types and the List definition
func Register(r Registrar) error {
	entries := []struct {
		id     string
		typ    *types.Type
		method registry.Method
	}{
		{"Object", Object, registry.Method{}},
		{"Bool", Bool, fixedMethod(Bool, 1, encodeBool, decodeBool)},
		{"Int", Int, fixedMethod(Int, 4, encodeInt, decodeInt)},
		{"Long", Long, fixedMethod(Long, 8, encodeLong, decodeLong)},
		{"Double", Double, fixedMethod(Double, 8, encodeDouble, decodeDouble)},
		{"String", String, stringMethod()},
		{"List", List, registry.Method{Open: openList}},
	}

	for _, e := range entries {
		if _, err := r.Register(e.typ, e.id, e.method); err != nil {
			return fmt.Errorf("failed to register %s: %w", e.id, err)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Fixed size encodings
// --------------------------------------------------------------------------

// fixedMethod builds the routines of a value type encoded in exactly size bytes
func fixedMethod(t *types.Type, size int, encode func([]byte, any) bool, decode func([]byte) any) registry.Method {
	return registry.Method{
		Writer: types.NewWriter(t, func(w io.Writer, v any) error {
			buf := make([]byte, size)
			if !encode(buf, v) {
				return invalidValue(t, v)
			}
			_, err := w.Write(buf)
			return err
		}),
		Reader: types.NewReader(t, func(r io.Reader) (any, error) {
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", t, err)
			}
			return decode(buf), nil
		}),
		Skipper: types.NewSkipper(t, func(r io.Reader) error {
			return skipBytes(r, int64(size))
		}),
	}
}

func encodeBool(buf []byte, v any) bool {
	b, ok := v.(bool)
	if ok && b {
		buf[0] = 1
	}
	return ok
}

func decodeBool(buf []byte) any { return buf[0] != 0 }

func encodeInt(buf []byte, v any) bool {
	i, ok := v.(int32)
	binary.BigEndian.PutUint32(buf, uint32(i))
	return ok
}

func decodeInt(buf []byte) any { return int32(binary.BigEndian.Uint32(buf)) }

func encodeLong(buf []byte, v any) bool {
	i, ok := v.(int64)
	binary.BigEndian.PutUint64(buf, uint64(i))
	return ok
}

func decodeLong(buf []byte) any { return int64(binary.BigEndian.Uint64(buf)) }

func encodeDouble(buf []byte, v any) bool {
	f, ok := v.(float64)
	binary.BigEndian.PutUint64(buf, math.Float64bits(f))
	return ok
}

func decodeDouble(buf []byte) any { return math.Float64frombits(binary.BigEndian.Uint64(buf)) }

// --------------------------------------------------------------------------
// Strings (4 byte length + utf8 data)
// --------------------------------------------------------------------------

func stringMethod() registry.Method {
	return registry.Method{
		Writer: types.NewWriter(String, func(w io.Writer, v any) error {
			s, ok := v.(string)
			if !ok {
				return invalidValue(String, v)
			}
			if err := writeLength(w, len(s)); err != nil {
				return err
			}
			_, err := io.WriteString(w, s)
			return err
		}),
		Reader: types.NewReader(String, func(r io.Reader) (any, error) {
			n, err := readLength(r)
			if err != nil {
				return nil, err
			}
			data, err := readBytes(r, n)
			if err != nil {
				return nil, fmt.Errorf("failed to read string data: %w", err)
			}
			return string(data), nil
		}),
		Skipper: types.NewSkipper(String, func(r io.Reader) error {
			n, err := readLength(r)
			if err != nil {
				return err
			}
			return skipBytes(r, int64(n))
		}),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// writeLength writes a 4 byte big endian length prefix
func writeLength(w io.Writer, n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return fmt.Errorf("length %d out of range", n)
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(n))
	_, err := w.Write(buf[:])
	return err
}

// readLength reads a 4 byte big endian length prefix
func readLength(r io.Reader) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read length: %w", err)
	}
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// maxPrealloc bounds the buffer allocated up front for a length read from the
// stream, larger payloads grow while they arrive
const maxPrealloc = 64 * 1024

// readBytes reads exactly n bytes. Memory grows with the data actually read,
// not with the announced length.
func readBytes(r io.Reader, n int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(min(n, maxPrealloc))
	copied, err := io.CopyN(&buf, r, int64(n))
	if err == io.EOF && copied < int64(n) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// skipBytes discards exactly n bytes
func skipBytes(r io.Reader, n int64) error {
	skipped, err := io.CopyN(io.Discard, r, n)
	if err == io.EOF && skipped < n {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return fmt.Errorf("failed to skip %d bytes: %w", n, err)
	}
	return nil
}

// invalidValue reports a value whose go type does not match the routine's type
func invalidValue(t *types.Type, v any) error {
	return types.NewTypeMismatchError(t, t, "unexpected value of go type %T", v)
}
