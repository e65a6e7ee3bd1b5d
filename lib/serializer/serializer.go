package serializer

import (
	"fmt"
	"sync"

	"github.com/Witchie/BinSerializer/lib/adapter"
	"github.com/Witchie/BinSerializer/lib/primitives"
	"github.com/Witchie/BinSerializer/lib/registry"
	"github.com/Witchie/BinSerializer/lib/resolver"
	"github.com/Witchie/BinSerializer/lib/types"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("serializer")

var (
	defaultOnce       sync.Once
	defaultSerializer *Serializer
)

// Serializer is the surface the serialize/deserialize facade builds on. It ties
// the registry, the method resolver and the adapter caches together.
//
// Thread-safety: all methods are safe for concurrent use.
type Serializer struct {
	registry *registry.Registry
	resolver *resolver.Resolver
	adapter  *adapter.Adapter
}

// New creates an empty serializer (no types registered)
func New() *Serializer {
	reg := registry.New()
	return &Serializer{
		registry: reg,
		resolver: resolver.New(reg),
		adapter:  adapter.New(),
	}
}

// NewWithPrimitives creates a serializer with the primitive types registered
func NewWithPrimitives() (*Serializer, error) {
	s := New()
	if err := primitives.Register(s); err != nil {
		return nil, err
	}
	Logger.Debugf("registered %d primitive types", s.registry.Len())
	return s, nil
}

// Default returns the process wide serializer with the primitive types registered
func Default() *Serializer {
	defaultOnce.Do(func() {
		s, err := NewWithPrimitives()
		if err != nil {
			panic(fmt.Sprintf("failed to register primitives: %v", err))
		}
		defaultSerializer = s
	})
	return defaultSerializer
}

// Registry returns the underlying registry
func (s *Serializer) Registry() *registry.Registry { return s.registry }

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// Register binds t to the bracket-free id (see registry.Registry.Register)
func (s *Serializer) Register(t *types.Type, id string, method registry.Method, opts ...registry.RegisterOption) (*registry.Descriptor, error) {
	return s.registry.Register(t, id, method, opts...)
}

// MakeGeneric returns the interned instantiation of def over args
func (s *Serializer) MakeGeneric(def *types.Type, args ...*types.Type) (*types.Type, error) {
	return s.registry.MakeGeneric(def, args...)
}

// --------------------------------------------------------------------------
// Type ids
// --------------------------------------------------------------------------

// TypeIdFor returns the canonical type id of t
func (s *Serializer) TypeIdFor(t *types.Type) (string, error) {
	return s.registry.ResolveId(t)
}

// TypeForId returns the type identified by id
func (s *Serializer) TypeForId(id string) (*types.Type, error) {
	return s.registry.ResolveType(id)
}

// --------------------------------------------------------------------------
// Routines
// --------------------------------------------------------------------------

// GetWriter returns the encode routine of t
func (s *Serializer) GetWriter(t *types.Type) (*types.Writer, error) {
	return s.resolver.Writer(t)
}

// GetReader returns the decode routine of t
func (s *Serializer) GetReader(t *types.Type) (*types.Reader, error) {
	return s.resolver.Reader(t)
}

// GetSkipper returns the routine consuming an encoded value of t without
// materializing it
func (s *Serializer) GetSkipper(t *types.Type) (*types.Skipper, error) {
	return s.resolver.Skipper(t)
}

// GetWriterAs returns the encode routine of the registered type, usable where
// values are statically typed as static
func (s *Serializer) GetWriterAs(registered, static *types.Type) (*types.Writer, error) {
	w, err := s.resolver.Writer(registered)
	if err != nil {
		return nil, err
	}
	return s.adapter.CastWriter(w, static)
}

// GetReaderAs returns the decode routine of the registered type, producing
// values statically typed as static
func (s *Serializer) GetReaderAs(registered, static *types.Type) (*types.Reader, error) {
	r, err := s.resolver.Reader(registered)
	if err != nil {
		return nil, err
	}
	return s.adapter.CastReader(r, static)
}

// GetSkipperAs returns the skip routine of the registered type bound to static
func (s *Serializer) GetSkipperAs(registered, static *types.Type) (*types.Skipper, error) {
	sk, err := s.resolver.Skipper(registered)
	if err != nil {
		return nil, err
	}
	return s.adapter.CastSkipper(sk, static)
}

// CastWriter adapts an arbitrary writer to the type to
func (s *Serializer) CastWriter(w *types.Writer, to *types.Type) (*types.Writer, error) {
	return s.adapter.CastWriter(w, to)
}

// CastReader adapts an arbitrary reader to the type to
func (s *Serializer) CastReader(r *types.Reader, to *types.Type) (*types.Reader, error) {
	return s.adapter.CastReader(r, to)
}

// CastSkipper rebinds an arbitrary skipper to the type to
func (s *Serializer) CastSkipper(sk *types.Skipper, to *types.Type) (*types.Skipper, error) {
	return s.adapter.CastSkipper(sk, to)
}
