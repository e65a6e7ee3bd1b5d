package adapter

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/Witchie/BinSerializer/lib/types"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("adapter")

var (
	shortcutsTotal = metrics.NewCounter(`binser_adapter_shortcuts_total`)
	cacheHitsTotal = metrics.NewCounter(`binser_adapter_cache_hits_total`)
	shimsTotal     = metrics.NewCounter(`binser_adapter_shims_created_total`)
)

// castKey is the cache key of a shim: the wrapped routine handle and the type
// the caller expects. The routine's declared type is implied by the handle.
type castKey[R any] struct {
	routine *R
	to      *types.Type
}

// Adapter casts routines declared for one type to routines usable where
// another type is expected. Shims are cached per (routine, target type) pair,
// so repeated casts of the same routine return the same shim.
//
// Thread-safety: all methods are safe for concurrent use.
type Adapter struct {
	writers  *xsync.MapOf[castKey[types.Writer], *types.Writer]
	readers  *xsync.MapOf[castKey[types.Reader], *types.Reader]
	skippers *xsync.MapOf[castKey[types.Skipper], *types.Skipper]
}

// New creates an adapter with empty caches
func New() *Adapter {
	return &Adapter{
		writers:  xsync.NewMapOf[castKey[types.Writer], *types.Writer](),
		readers:  xsync.NewMapOf[castKey[types.Reader], *types.Reader](),
		skippers: xsync.NewMapOf[castKey[types.Skipper], *types.Skipper](),
	}
}

// --------------------------------------------------------------------------
// Writers
// --------------------------------------------------------------------------

// CastWriter returns a writer accepting values statically typed as to. The
// writer itself is returned when the types are identical, or when both are
// reference types and the writer's type is a supertype of to.
func (a *Adapter) CastWriter(w *types.Writer, to *types.Type) (*types.Writer, error) {
	if w == nil || to == nil {
		return nil, types.NewConfigurationError("", "cast writer: nil writer or target type")
	}
	from := w.Type()
	if from == to {
		return w, nil
	}
	if isReference(from) && isReference(to) && from.IsAssignableFrom(to) {
		shortcutsTotal.Inc()
		return w, nil
	}

	key := castKey[types.Writer]{routine: w, to: to}
	if cached, ok := a.writers.Load(key); ok {
		cacheHitsTotal.Inc()
		return cached, nil
	}
	if !types.Reinterpretable(from, to) {
		return nil, types.NewTypeMismatchError(from, to, "no reinterpretation relationship for writer")
	}

	shim := types.NewWriter(to, func(s io.Writer, v any) error {
		converted, err := types.Reinterpret(v, to, from)
		if err != nil {
			return err
		}
		return w.Write(s, converted)
	})

	// first writer wins, a losing writer adopts the stored shim
	actual, loaded := a.writers.LoadOrStore(key, shim)
	if !loaded {
		shimsTotal.Inc()
		Logger.Debugf("created writer shim %s -> %s", from, to)
	}
	return actual, nil
}

// --------------------------------------------------------------------------
// Readers
// --------------------------------------------------------------------------

// CastReader returns a reader producing values statically typed as to. The
// reader itself is returned when the types are identical, or when both are
// reference types and to is a supertype of the reader's type.
func (a *Adapter) CastReader(r *types.Reader, to *types.Type) (*types.Reader, error) {
	if r == nil || to == nil {
		return nil, types.NewConfigurationError("", "cast reader: nil reader or target type")
	}
	from := r.Type()
	if from == to {
		return r, nil
	}
	if isReference(from) && isReference(to) && to.IsAssignableFrom(from) {
		shortcutsTotal.Inc()
		return r, nil
	}

	key := castKey[types.Reader]{routine: r, to: to}
	if cached, ok := a.readers.Load(key); ok {
		cacheHitsTotal.Inc()
		return cached, nil
	}
	if !types.Reinterpretable(from, to) {
		return nil, types.NewTypeMismatchError(from, to, "no reinterpretation relationship for reader")
	}

	shim := types.NewReader(to, func(s io.Reader) (any, error) {
		v, err := r.Read(s)
		if err != nil {
			return nil, err
		}
		return types.Reinterpret(v, from, to)
	})

	actual, loaded := a.readers.LoadOrStore(key, shim)
	if !loaded {
		shimsTotal.Inc()
		Logger.Debugf("created reader shim %s -> %s", from, to)
	}
	return actual, nil
}

// --------------------------------------------------------------------------
// Skippers
// --------------------------------------------------------------------------

// CastSkipper returns a skipper bound to the type to. Skipping never
// materializes a value, so the skipper itself is returned for identical types
// and for reference types related in either direction; other reinterpretable
// pairs get a cached rebinding.
func (a *Adapter) CastSkipper(s *types.Skipper, to *types.Type) (*types.Skipper, error) {
	if s == nil || to == nil {
		return nil, types.NewConfigurationError("", "cast skipper: nil skipper or target type")
	}
	from := s.Type()
	if from == to {
		return s, nil
	}
	if isReference(from) && isReference(to) && (from.IsAssignableFrom(to) || to.IsAssignableFrom(from)) {
		shortcutsTotal.Inc()
		return s, nil
	}

	key := castKey[types.Skipper]{routine: s, to: to}
	if cached, ok := a.skippers.Load(key); ok {
		cacheHitsTotal.Inc()
		return cached, nil
	}
	if !types.Reinterpretable(from, to) {
		return nil, types.NewTypeMismatchError(from, to, "no reinterpretation relationship for skipper")
	}

	actual, loaded := a.skippers.LoadOrStore(key, types.NewSkipper(to, s.Skip))
	if !loaded {
		shimsTotal.Inc()
		Logger.Debugf("created skipper shim %s -> %s", from, to)
	}
	return actual, nil
}

// Len returns the number of cached writer, reader and skipper shims
func (a *Adapter) Len() int {
	return a.writers.Size() + a.readers.Size() + a.skippers.Size()
}

// isReference reports whether values of t can be substituted along the
// supertype hierarchy without changing their representation
func isReference(t *types.Type) bool {
	return t.Kind() == types.KindReference
}
