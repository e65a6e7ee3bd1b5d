package registry

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/Witchie/BinSerializer/lib/types"
)

// openNop is an open method factory that binds no-op routines to the instantiation
func openNop(closed *types.Type, _ Lookup) (Method, error) {
	return Method{
		Writer: types.NewWriter(closed, func(io.Writer, any) error { return nil }),
	}, nil
}

// newTestRegistry registers Int, Long and the generic definitions Box, List and Map
func newTestRegistry(t *testing.T) (r *Registry, integer, long, box, list, pair *types.Type) {
	t.Helper()
	r = New()
	integer = types.New("Int", types.KindValue)
	long = types.New("Long", types.KindValue)
	box = types.NewGeneric("Box", types.KindReference, []string{"T"})
	list = types.NewGeneric("List", types.KindReference, []string{"T"})
	pair = types.NewGeneric("Pair", types.KindValue, []string{"K", "V"})

	for id, typ := range map[string]*types.Type{"Int": integer, "Long": long} {
		if _, err := r.Register(typ, id, Method{}); err != nil {
			t.Fatalf("Register(%s) failed: %v", id, err)
		}
	}
	for id, typ := range map[string]*types.Type{"Box": box, "List": list, "Pair": pair} {
		if _, err := r.Register(typ, id, Method{Open: openNop}); err != nil {
			t.Fatalf("Register(%s) failed: %v", id, err)
		}
	}
	return
}

// TestRegisterRejects tests the registration rules
func TestRegisterRejects(t *testing.T) {
	r, integer, _, box, _, _ := newTestRegistry(t)
	closed, err := r.MakeGeneric(box, integer)
	if err != nil {
		t.Fatalf("MakeGeneric failed: %v", err)
	}

	tests := []struct {
		name   string
		typ    *types.Type
		id     string
		method Method
		opts   []RegisterOption
	}{
		{"bracketed id", types.New("X", types.KindValue), "X[Int]", Method{}, nil},
		{"empty id", types.New("X", types.KindValue), "", Method{}, nil},
		{"comma in id", types.New("X", types.KindValue), "X,Y", Method{}, nil},
		{"nil type", nil, "X", Method{}, nil},
		{"duplicate id", types.New("X", types.KindValue), "Int", Method{}, nil},
		{"duplicate type", integer, "Integer", Method{}, nil},
		{"closed generic", closed, "BoxInt", Method{}, nil},
		{"param", types.NewParam("T"), "T", Method{}, nil},
		{"generic without open method", types.NewGeneric("G", types.KindReference, []string{"T"}), "G", Method{}, nil},
		{"plain with open method", types.New("X", types.KindValue), "X", Method{Open: openNop}, nil},
		{"bad version", types.New("X", types.KindValue), "X", Method{}, []RegisterOption{WithVersion(1, 2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Register(tt.typ, tt.id, tt.method, tt.opts...)
			if !errors.Is(err, types.ErrConfiguration) {
				t.Errorf("Register() = %v, want ErrConfiguration", err)
			}
		})
	}
}

// TestResolveRoundTrip tests typeForId(typeIdFor(t)) == t and the reverse direction
func TestResolveRoundTrip(t *testing.T) {
	r, _, _, _, _, _ := newTestRegistry(t)

	ids := []string{
		"Int",
		"Box[Int]",
		"Box[Box[Int]]",
		"List[List[Int]]",
		"Pair[Int,List[Box[Long]]]",
		"Pair[Pair[Int,Long],Pair[Long,Int]]",
		"Box[Box[Box[Box[Box[Int]]]]]",
	}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			typ, err := r.ResolveType(id)
			if err != nil {
				t.Fatalf("ResolveType(%q) failed: %v", id, err)
			}
			got, err := r.ResolveId(typ)
			if err != nil {
				t.Fatalf("ResolveId(%s) failed: %v", typ, err)
			}
			if got != id {
				t.Errorf("ResolveId(ResolveType(%q)) = %q", id, got)
			}

			again, err := r.ResolveType(got)
			if err != nil {
				t.Fatalf("second ResolveType failed: %v", err)
			}
			if again != typ {
				t.Errorf("resolving %q twice returned different handles", id)
			}
		})
	}
}

// TestResolveStructure tests that nested ids close the right definitions
func TestResolveStructure(t *testing.T) {
	r, integer, _, box, _, _ := newTestRegistry(t)

	typ, err := r.ResolveType("Box[Box[Int]]")
	if err != nil {
		t.Fatalf("ResolveType failed: %v", err)
	}
	if typ.Definition() != box {
		t.Errorf("outer definition = %s, want Box", typ.Definition())
	}
	inner := typ.Args()[0]
	if inner.Definition() != box || inner.Args()[0] != integer {
		t.Errorf("inner = %s, want Box[Int]", inner)
	}

	manual, err := r.MakeGeneric(box, inner)
	if err != nil {
		t.Fatalf("MakeGeneric failed: %v", err)
	}
	if manual != typ {
		t.Errorf("MakeGeneric should return the interned instantiation")
	}
}

// TestResolveTypeErrors tests the error taxonomy of ResolveType
func TestResolveTypeErrors(t *testing.T) {
	r, _, _, _, _, _ := newTestRegistry(t)

	tests := []struct {
		id   string
		want error
	}{
		{"Box[Int", types.ErrConfiguration},
		{"Unknown", types.ErrTypeResolution},
		{"Box[Unknown]", types.ErrTypeResolution},
		{"Unknown[Int]", types.ErrTypeResolution},
		{"Int[Long]", types.ErrConfiguration},
		{"Box[Int,Long]", types.ErrConfiguration},
		{"Pair[Int]", types.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := r.ResolveType(tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("ResolveType(%q) = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}

// TestResolveIdErrors tests the error taxonomy of ResolveId
func TestResolveIdErrors(t *testing.T) {
	r, integer, _, box, _, _ := newTestRegistry(t)

	open, err := r.ResolveType("Box")
	if err != nil {
		t.Fatalf("ResolveType(Box) failed: %v", err)
	}
	if open != box {
		t.Fatalf("the bracket-free id of a definition should resolve to the definition")
	}

	partial, _ := r.MakeGeneric(box, box.Params()[0])
	nestedPartial, _ := r.MakeGeneric(box, partial)
	unregistered := types.New("Ghost", types.KindValue)
	withGhost, _ := r.MakeGeneric(box, unregistered)

	tests := []struct {
		name string
		typ  *types.Type
		want error
	}{
		{"open definition", box, types.ErrConfiguration},
		{"partially closed", partial, types.ErrConfiguration},
		{"nested partially closed", nestedPartial, types.ErrConfiguration},
		{"nil", nil, types.ErrConfiguration},
		{"unregistered leaf", unregistered, types.ErrTypeResolution},
		{"unregistered argument", withGhost, types.ErrTypeResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveId(tt.typ)
			if !errors.Is(err, tt.want) {
				t.Errorf("ResolveId(%s) = %v, want %v", tt.typ, err, tt.want)
			}
		})
	}

	if id, err := r.ResolveId(integer); err != nil || id != "Int" {
		t.Errorf("ResolveId(Int) = (%q, %v)", id, err)
	}
}

// TestMakeGenericErrors tests invalid instantiation requests
func TestMakeGenericErrors(t *testing.T) {
	r, integer, long, box, _, _ := newTestRegistry(t)

	if _, err := r.MakeGeneric(integer, long); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("closing a plain type: %v, want ErrConfiguration", err)
	}
	if _, err := r.MakeGeneric(box); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("missing args: %v, want ErrConfiguration", err)
	}
	if _, err := r.MakeGeneric(box, nil); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("nil arg: %v, want ErrConfiguration", err)
	}
	if _, err := r.MakeGeneric(nil, integer); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("nil definition: %v, want ErrConfiguration", err)
	}
}

// TestConcurrentResolve tests that concurrent resolution of unseen
// instantiations converges on a single handle
func TestConcurrentResolve(t *testing.T) {
	r, _, _, _, _, _ := newTestRegistry(t)

	const goroutines = 32
	results := make([]*types.Type, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = r.ResolveType("Pair[List[Box[Int]],Box[List[Long]]]")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("goroutine %d got a different handle", i)
		}
	}
}

// TestDescriptors tests the descriptor lookups and version metadata
func TestDescriptors(t *testing.T) {
	r := New()
	typ := types.New("Point", types.KindValue)
	desc, err := r.Register(typ, "Point", Method{}, WithVersion(3, 2))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !desc.Supports(2) || !desc.Supports(3) {
		t.Errorf("descriptor should support versions 2 and 3")
	}
	if desc.Supports(1) || desc.Supports(4) {
		t.Errorf("descriptor should not support versions 1 and 4")
	}

	got, ok := r.DescriptorById("Point")
	if !ok || got != desc {
		t.Errorf("DescriptorById returned %v, %v", got, ok)
	}
	if _, err := r.Descriptor(types.New("Other", types.KindValue)); !errors.Is(err, types.ErrTypeResolution) {
		t.Errorf("Descriptor(unregistered) = %v, want ErrTypeResolution", err)
	}

	if _, err := r.Register(types.New("Alpha", types.KindValue), "Alpha", Method{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	all := r.Descriptors()
	if len(all) != 2 || r.Len() != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(all))
	}
	if all[0].Id != "Alpha" || all[1].Id != "Point" {
		t.Errorf("descriptors not sorted: %s, %s", all[0].Id, all[1].Id)
	}
}
