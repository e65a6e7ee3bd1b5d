package adapter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/Witchie/BinSerializer/lib/types"
)

type color int32

type shape interface{ Area() int }

type square struct{ Side int }

func (s *square) Area() int { return s.Side * s.Side }

// testTypes builds a reference hierarchy Object <- Shape <- Square and the value
// types Int and Color (sharing Int's representation)
type testTypes struct {
	object, shape, square, circle *types.Type
	integer, color, double        *types.Type
}

func newTestTypes() testTypes {
	var tt testTypes
	tt.object = types.New("Object", types.KindReference, types.WithGoType(reflect.TypeOf((*any)(nil)).Elem()))
	tt.shape = types.New("Shape", types.KindReference, types.WithSupertypes(tt.object), types.WithGoType(reflect.TypeOf((*shape)(nil)).Elem()))
	tt.square = types.New("Square", types.KindReference, types.WithSupertypes(tt.shape), types.WithGoType(reflect.TypeOf(&square{})))
	tt.circle = types.New("Circle", types.KindReference, types.WithSupertypes(tt.shape))
	tt.integer = types.New("Int", types.KindValue, types.WithGoType(reflect.TypeOf(int32(0))))
	tt.color = types.New("Color", types.KindValue, types.WithUnderlying(tt.integer), types.WithGoType(reflect.TypeOf(color(0))))
	tt.double = types.New("Double", types.KindValue, types.WithGoType(reflect.TypeOf(float64(0))))
	return tt
}

func int32Writer(t *types.Type) *types.Writer {
	return types.NewWriter(t, func(w io.Writer, v any) error {
		return binary.Write(w, binary.BigEndian, v.(int32))
	})
}

func int32Reader(t *types.Type) *types.Reader {
	return types.NewReader(t, func(r io.Reader) (any, error) {
		var v int32
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	})
}

func squareReader(t *types.Type) *types.Reader {
	return types.NewReader(t, func(r io.Reader) (any, error) {
		var side int32
		err := binary.Read(r, binary.BigEndian, &side)
		return &square{Side: int(side)}, err
	})
}

// TestIdentity tests that identical types never allocate
func TestIdentity(t *testing.T) {
	tt := newTestTypes()
	a := New()

	w := int32Writer(tt.integer)
	if got, err := a.CastWriter(w, tt.integer); err != nil || got != w {
		t.Errorf("CastWriter(Int -> Int) = (%p, %v), want original", got, err)
	}
	r := int32Reader(tt.integer)
	if got, err := a.CastReader(r, tt.integer); err != nil || got != r {
		t.Errorf("CastReader(Int -> Int) = (%p, %v), want original", got, err)
	}
	if a.Len() != 0 {
		t.Errorf("no shim should be cached, got %d", a.Len())
	}
}

// TestCovarianceShortcut tests that variance-compatible reference casts return
// the original routine
func TestCovarianceShortcut(t *testing.T) {
	tt := newTestTypes()
	a := New()

	r := squareReader(tt.square)
	for _, to := range []*types.Type{tt.shape, tt.object} {
		got, err := a.CastReader(r, to)
		if err != nil {
			t.Fatalf("CastReader(Square -> %s) failed: %v", to, err)
		}
		if got != r {
			t.Errorf("CastReader(Square -> %s) allocated a wrapper", to)
		}
	}

	w := types.NewWriter(tt.shape, func(io.Writer, any) error { return nil })
	got, err := a.CastWriter(w, tt.square)
	if err != nil {
		t.Fatalf("CastWriter(Shape -> Square) failed: %v", err)
	}
	if got != w {
		t.Errorf("contravariant writer cast allocated a wrapper")
	}
	if a.Len() != 0 {
		t.Errorf("shortcuts must not populate the cache, got %d", a.Len())
	}
}

// TestVarianceDirection tests that the opposite direction needs a checking shim
func TestVarianceDirection(t *testing.T) {
	tt := newTestTypes()
	a := New()

	// a Square writer used where any Shape may arrive
	sq := types.NewWriter(tt.square, func(w io.Writer, v any) error {
		return binary.Write(w, binary.BigEndian, int32(v.(*square).Side))
	})
	shim, err := a.CastWriter(sq, tt.shape)
	if err != nil {
		t.Fatalf("CastWriter(Square -> Shape) failed: %v", err)
	}
	if shim == sq {
		t.Fatalf("downcasting writer must be wrapped")
	}
	if shim.Type() != tt.shape {
		t.Errorf("shim declares %s, want Shape", shim.Type())
	}

	var buf bytes.Buffer
	if err := shim.Write(&buf, &square{Side: 4}); err != nil {
		t.Fatalf("Write(square) failed: %v", err)
	}
	if buf.Len() != 4 {
		t.Errorf("expected 4 bytes, got %d", buf.Len())
	}

	buf.Reset()
	if err := shim.Write(&buf, 42); !errors.Is(err, types.ErrTypeMismatch) {
		t.Errorf("Write(int) = %v, want ErrTypeMismatch", err)
	}
	if buf.Len() != 0 {
		t.Errorf("a rejected value must not touch the stream")
	}
}

// TestValueTypeExclusion tests that related value types always get a wrapper
func TestValueTypeExclusion(t *testing.T) {
	tt := newTestTypes()
	a := New()

	r := int32Reader(tt.integer)
	shim, err := a.CastReader(r, tt.color)
	if err != nil {
		t.Fatalf("CastReader(Int -> Color) failed: %v", err)
	}
	if shim == r {
		t.Fatalf("value type cast must produce a distinct wrapper")
	}

	v, err := shim.Read(bytes.NewReader([]byte{0, 0, 0, 5}))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v != color(5) {
		t.Errorf("Read = %#v, want color(5)", v)
	}

	w := int32Writer(tt.integer)
	wshim, err := a.CastWriter(w, tt.color)
	if err != nil {
		t.Fatalf("CastWriter(Int -> Color) failed: %v", err)
	}
	if wshim == w {
		t.Fatalf("value type cast must produce a distinct wrapper")
	}
	var buf bytes.Buffer
	if err := wshim.Write(&buf, color(9)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0, 0, 0, 9}) {
		t.Errorf("Write = %v, want [0 0 0 9]", buf.Bytes())
	}
}

// TestValueBoxing tests that a value type with a declared reference supertype
// is still wrapped
func TestValueBoxing(t *testing.T) {
	tt := newTestTypes()
	boxed := types.New("Number", types.KindValue, types.WithSupertypes(tt.object), types.WithGoType(reflect.TypeOf(int32(0))))
	a := New()

	r := int32Reader(boxed)
	shim, err := a.CastReader(r, tt.object)
	if err != nil {
		t.Fatalf("CastReader(Number -> Object) failed: %v", err)
	}
	if shim == r {
		t.Errorf("value type must not use the reference shortcut")
	}
}

// TestAdapterIdempotence tests that the same pair always returns the same shim
func TestAdapterIdempotence(t *testing.T) {
	tt := newTestTypes()
	a := New()

	w := int32Writer(tt.integer)
	first, err := a.CastWriter(w, tt.color)
	if err != nil {
		t.Fatalf("CastWriter failed: %v", err)
	}
	second, err := a.CastWriter(w, tt.color)
	if err != nil {
		t.Fatalf("CastWriter failed: %v", err)
	}
	if first != second {
		t.Errorf("successive requests returned different shims")
	}

	r := int32Reader(tt.integer)
	r1, _ := a.CastReader(r, tt.color)
	r2, _ := a.CastReader(r, tt.color)
	if r1 != r2 {
		t.Errorf("successive reader requests returned different shims")
	}
	if a.Len() != 2 {
		t.Errorf("expected one writer and one reader shim, got %d", a.Len())
	}
}

// TestMismatchRejection tests that unrelated types fail at construction time
func TestMismatchRejection(t *testing.T) {
	tt := newTestTypes()
	a := New()

	touched := false
	w := types.NewWriter(tt.integer, func(io.Writer, any) error { touched = true; return nil })
	r := types.NewReader(tt.integer, func(io.Reader) (any, error) { touched = true; return nil, nil })
	s := types.NewSkipper(tt.integer, func(io.Reader) error { touched = true; return nil })

	tests := []struct {
		name string
		cast func() error
	}{
		{"writer value types", func() error { _, err := a.CastWriter(w, tt.double); return err }},
		{"reader value types", func() error { _, err := a.CastReader(r, tt.double); return err }},
		{"reader value to reference", func() error { _, err := a.CastReader(r, tt.shape); return err }},
		{"reader siblings", func() error { _, err := a.CastReader(squareReader(tt.square), tt.circle); return err }},
		{"skipper", func() error { _, err := a.CastSkipper(s, tt.double); return err }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cast(); !errors.Is(err, types.ErrTypeMismatch) {
				t.Errorf("cast = %v, want ErrTypeMismatch", err)
			}
		})
	}
	if touched {
		t.Errorf("a rejected cast must not invoke the routine")
	}
	if a.Len() != 0 {
		t.Errorf("rejected casts must not be cached, got %d", a.Len())
	}
}

// TestCastSkipper tests that skippers are rebound to the target type
func TestCastSkipper(t *testing.T) {
	tt := newTestTypes()
	a := New()

	s := types.NewSkipper(tt.integer, func(r io.Reader) error {
		_, err := io.CopyN(io.Discard, r, 4)
		return err
	})
	same, err := a.CastSkipper(s, tt.integer)
	if err != nil || same != s {
		t.Errorf("CastSkipper(Int -> Int) = (%p, %v), want original", same, err)
	}

	cs, err := a.CastSkipper(s, tt.color)
	if err != nil {
		t.Fatalf("CastSkipper(Int -> Color) failed: %v", err)
	}
	if cs.Type() != tt.color {
		t.Errorf("skipper declares %s, want Color", cs.Type())
	}
	rd := bytes.NewReader([]byte{1, 2, 3, 4, 5})
	if err := cs.Skip(rd); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if rd.Len() != 1 {
		t.Errorf("expected 1 remaining byte, got %d", rd.Len())
	}

	again, err := a.CastSkipper(s, tt.color)
	if err != nil || again != cs {
		t.Errorf("successive skipper requests returned different shims")
	}
	if a.Len() != 1 {
		t.Errorf("expected one cached skipper shim, got %d", a.Len())
	}

	// related reference types share the skipper in both directions
	ref := types.NewSkipper(tt.square, func(io.Reader) error { return nil })
	for _, to := range []*types.Type{tt.shape, tt.object} {
		if got, err := a.CastSkipper(ref, to); err != nil || got != ref {
			t.Errorf("CastSkipper(Square -> %s) = (%p, %v), want original", to, got, err)
		}
	}
	up := types.NewSkipper(tt.shape, func(io.Reader) error { return nil })
	if got, err := a.CastSkipper(up, tt.square); err != nil || got != up {
		t.Errorf("CastSkipper(Shape -> Square) = (%p, %v), want original", got, err)
	}
	if a.Len() != 1 {
		t.Errorf("reference skipper casts must not populate the cache, got %d", a.Len())
	}
}

// TestDistinctRoutinesSameType tests that two routines declared for the same
// type never share a shim
func TestDistinctRoutinesSameType(t *testing.T) {
	tt := newTestTypes()
	a := New()

	constWriter := func(b byte) *types.Writer {
		return types.NewWriter(tt.integer, func(w io.Writer, _ any) error {
			_, err := w.Write([]byte{b})
			return err
		})
	}
	w1, w2 := constWriter('A'), constWriter('B')

	s1, err := a.CastWriter(w1, tt.color)
	if err != nil {
		t.Fatalf("CastWriter(w1) failed: %v", err)
	}
	s2, err := a.CastWriter(w2, tt.color)
	if err != nil {
		t.Fatalf("CastWriter(w2) failed: %v", err)
	}
	if s1 == s2 {
		t.Fatalf("shims of different writers must differ")
	}

	var buf bytes.Buffer
	if err := s2.Write(&buf, color(1)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.String() != "B" {
		t.Errorf("shim of w2 wrote %q, want \"B\"", buf.String())
	}

	r1 := int32Reader(tt.integer)
	r2 := int32Reader(tt.integer)
	c1, _ := a.CastReader(r1, tt.color)
	c2, _ := a.CastReader(r2, tt.color)
	if c1 == c2 {
		t.Errorf("shims of different readers must differ")
	}

	k1 := types.NewSkipper(tt.integer, func(io.Reader) error { return nil })
	k2 := types.NewSkipper(tt.integer, func(io.Reader) error { return nil })
	d1, _ := a.CastSkipper(k1, tt.color)
	d2, _ := a.CastSkipper(k2, tt.color)
	if d1 == d2 {
		t.Errorf("shims of different skippers must differ")
	}
	if a.Len() != 6 {
		t.Errorf("expected 6 cached shims, got %d", a.Len())
	}
}

// TestNilArguments tests that misuse is reported as a configuration error
func TestNilArguments(t *testing.T) {
	tt := newTestTypes()
	a := New()

	tests := []struct {
		name string
		cast func() error
	}{
		{"nil writer", func() error { _, err := a.CastWriter(nil, tt.color); return err }},
		{"nil writer target", func() error { _, err := a.CastWriter(int32Writer(tt.integer), nil); return err }},
		{"nil reader", func() error { _, err := a.CastReader(nil, tt.color); return err }},
		{"nil reader target", func() error { _, err := a.CastReader(int32Reader(tt.integer), nil); return err }},
		{"nil skipper", func() error { _, err := a.CastSkipper(nil, tt.color); return err }},
		{"nil skipper target", func() error {
			_, err := a.CastSkipper(types.NewSkipper(tt.integer, func(io.Reader) error { return nil }), nil)
			return err
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cast(); !errors.Is(err, types.ErrConfiguration) {
				t.Errorf("cast = %v, want ErrConfiguration", err)
			}
		})
	}
}

// TestConcurrentCast tests create-once-publish-once under contention
func TestConcurrentCast(t *testing.T) {
	tt := newTestTypes()
	a := New()
	w := int32Writer(tt.integer)

	const goroutines = 64
	shims := make([]*types.Writer, goroutines)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			shim, err := a.CastWriter(w, tt.color)
			if err != nil {
				t.Errorf("CastWriter failed: %v", err)
				return
			}
			shims[i] = shim
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if shims[i] != shims[0] {
			t.Fatalf("goroutine %d observed a different shim", i)
		}
	}
}
