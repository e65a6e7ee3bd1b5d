package resolver

import (
	"github.com/VictoriaMetrics/metrics"
	"github.com/Witchie/BinSerializer/lib/registry"
	"github.com/Witchie/BinSerializer/lib/types"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("resolver")

var closedMethodsTotal = metrics.NewCounter(`binser_resolver_closed_methods_total`)

// Resolver returns the encode/decode/skip routines registered for a type. Open
// methods of generic definitions are closed over the concrete arguments of the
// requested instantiation, so one registration serves every instantiation.
//
// Thread-safety: all methods are safe for concurrent use.
type Resolver struct {
	registry *registry.Registry
	closed   *xsync.MapOf[*types.Type, registry.Method]
}

// New creates a resolver on top of the given registry
func New(reg *registry.Registry) *Resolver {
	return &Resolver{
		registry: reg,
		closed:   xsync.NewMapOf[*types.Type, registry.Method](),
	}
}

// Registry returns the registry the resolver reads from
func (r *Resolver) Registry() *registry.Registry { return r.registry }

// Method returns the routines of the requested type t
func (r *Resolver) Method(t *types.Type) (registry.Method, error) {
	if t == nil {
		return registry.Method{}, types.NewConfigurationError("", "cannot resolve routines of a nil type")
	}

	desc, err := r.registry.Descriptor(t)
	if err != nil {
		return registry.Method{}, err
	}
	if !desc.Method.IsOpen() {
		return desc.Method, nil
	}

	if method, ok := r.closed.Load(t); ok {
		return method, nil
	}
	if t.ContainsParams() {
		return registry.Method{}, types.NewConfigurationError(t.String(), "cannot close the routines of %q over unbound generic parameters", desc.Id)
	}

	method, err := desc.Method.Open(t, r)
	if err != nil {
		return registry.Method{}, err
	}
	if err := checkClosed(t, method); err != nil {
		return registry.Method{}, err
	}

	// first writer wins, a losing writer adopts the stored method
	actual, loaded := r.closed.LoadOrStore(t, method)
	if !loaded {
		closedMethodsTotal.Inc()
		Logger.Debugf("closed routines of %q over %s", desc.Id, t)
	}
	return actual, nil
}

// Writer returns the encode routine of t
func (r *Resolver) Writer(t *types.Type) (*types.Writer, error) {
	method, err := r.Method(t)
	if err != nil {
		return nil, err
	}
	if method.Writer == nil {
		return nil, types.NewTypeResolutionError(t.String(), "no writer registered")
	}
	return method.Writer, nil
}

// Reader returns the decode routine of t
func (r *Resolver) Reader(t *types.Type) (*types.Reader, error) {
	method, err := r.Method(t)
	if err != nil {
		return nil, err
	}
	if method.Reader == nil {
		return nil, types.NewTypeResolutionError(t.String(), "no reader registered")
	}
	return method.Reader, nil
}

// Skipper returns the skip routine of t
func (r *Resolver) Skipper(t *types.Type) (*types.Skipper, error) {
	method, err := r.Method(t)
	if err != nil {
		return nil, err
	}
	if method.Skipper == nil {
		return nil, types.NewTypeResolutionError(t.String(), "no skipper registered")
	}
	return method.Skipper, nil
}

// checkClosed verifies that an open method factory bound every handle to the
// instantiation it was asked for
func checkClosed(t *types.Type, m registry.Method) error {
	if m.IsOpen() {
		return types.NewConfigurationError(t.String(), "open method factory returned another open method")
	}
	if m.Writer != nil && m.Writer.Type() != t {
		return types.NewConfigurationError(t.String(), "closed writer declares %s", m.Writer.Type())
	}
	if m.Reader != nil && m.Reader.Type() != t {
		return types.NewConfigurationError(t.String(), "closed reader declares %s", m.Reader.Type())
	}
	if m.Skipper != nil && m.Skipper.Type() != t {
		return types.NewConfigurationError(t.String(), "closed skipper declares %s", m.Skipper.Type())
	}
	return nil
}
