package registry

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/VictoriaMetrics/metrics"
	"github.com/Witchie/BinSerializer/lib/types"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("registry")

var (
	registrationsTotal  = metrics.NewCounter(`binser_registry_registrations_total`)
	instantiationsTotal = metrics.NewCounter(`binser_registry_instantiations_total`)
)

// Default version metadata of a descriptor
const (
	DefaultVersion             uint32 = 1
	DefaultMinSupportedVersion uint32 = 1
)

// --------------------------------------------------------------------------
// Methods & Descriptors
// --------------------------------------------------------------------------

// Lookup gives open method factories access to the routines of other types
// (e.g. the element type of a collection)
type Lookup interface {
	Writer(t *types.Type) (*types.Writer, error)
	Reader(t *types.Type) (*types.Reader, error)
	Skipper(t *types.Type) (*types.Skipper, error)
}

// OpenMethod closes a routine written once against a generic definition over
// the concrete instantiation closed. Every handle of the returned Method must
// declare closed as its type.
type OpenMethod func(closed *types.Type, lookup Lookup) (Method, error)

// Method is the encode/decode/skip binding of a registered type. Plain types set
// the routine handles directly; generic definitions set Open instead.
type Method struct {
	Writer  *types.Writer
	Reader  *types.Reader
	Skipper *types.Skipper
	Open    OpenMethod
}

// IsOpen reports whether the method still has to be closed over type arguments
func (m Method) IsOpen() bool { return m.Open != nil }

// Descriptor is the registration record of one type. Descriptors are created
// once and must be treated as read-only.
type Descriptor struct {
	Type                *types.Type
	Id                  string
	Version             uint32
	MinSupportedVersion uint32
	Method              Method
}

// IsGeneric reports whether the descriptor describes an open generic definition
func (d *Descriptor) IsGeneric() bool { return d.Type.IsGenericDefinition() }

// Supports reports whether data written with the given version can be read
func (d *Descriptor) Supports(version uint32) bool {
	return d.MinSupportedVersion <= version && version <= d.Version
}

// RegisterOption configures a descriptor during registration
type RegisterOption func(d *Descriptor)

// WithVersion sets the version metadata of the descriptor
func WithVersion(version, minSupported uint32) RegisterOption {
	return func(d *Descriptor) {
		d.Version = version
		d.MinSupportedVersion = minSupported
	}
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// instanceKey identifies an instantiation by the serials of its definition and arguments
type instanceKey struct {
	definition uint64
	args       string
}

// Registry maps types to their canonical type ids and back. It also interns
// generic instantiations so that resolving the same id twice yields the same handle.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	byId      map[string]*Descriptor
	byType    map[*types.Type]*Descriptor
	instances map[instanceKey]*types.Type
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		byId:      make(map[string]*Descriptor),
		byType:    make(map[*types.Type]*Descriptor),
		instances: make(map[instanceKey]*types.Type),
	}
}

// Register binds the type t to the bracket-free id and stores its method
func (r *Registry) Register(t *types.Type, id string, method Method, opts ...RegisterOption) (*Descriptor, error) {
	if t == nil {
		return nil, types.NewConfigurationError(id, "cannot register a nil type")
	}
	if strings.IndexByte(id, argsOpen) >= 0 {
		return nil, types.NewConfigurationError(id, "generic ids must not be registered, register the open definition instead")
	}
	if err := ValidateName(id); err != nil {
		return nil, err
	}
	if t.IsGeneric() || t.IsParam() {
		return nil, types.NewConfigurationError(id, "only plain types and open generic definitions can be registered, got %s", t)
	}
	if t.IsGenericDefinition() != method.IsOpen() {
		if method.IsOpen() {
			return nil, types.NewConfigurationError(id, "open method registered for non generic type %s", t)
		}
		return nil, types.NewConfigurationError(id, "generic definition %s requires an open method", t)
	}

	desc := &Descriptor{
		Type:                t,
		Id:                  id,
		Version:             DefaultVersion,
		MinSupportedVersion: DefaultMinSupportedVersion,
		Method:              method,
	}
	for _, opt := range opts {
		opt(desc)
	}
	if desc.MinSupportedVersion > desc.Version {
		return nil, types.NewConfigurationError(id, "min supported version %d exceeds version %d", desc.MinSupportedVersion, desc.Version)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byId[id]; ok {
		return nil, types.NewConfigurationError(id, "id already registered for %s", existing.Type)
	}
	if existing, ok := r.byType[t]; ok {
		return nil, types.NewConfigurationError(id, "type already registered as %q", existing.Id)
	}
	r.byId[id] = desc
	r.byType[t] = desc

	registrationsTotal.Inc()
	Logger.Debugf("registered %s as %q (version %d, min %d)", t, id, desc.Version, desc.MinSupportedVersion)
	return desc, nil
}

// MakeGeneric returns the interned instantiation of the open definition def
// with the given arguments. Arguments may themselves contain generic parameters.
func (r *Registry) MakeGeneric(def *types.Type, args ...*types.Type) (*types.Type, error) {
	if def == nil || !def.IsGenericDefinition() {
		return nil, types.NewConfigurationError(def.String(), "not an open generic definition")
	}
	if len(args) != len(def.Params()) {
		return nil, types.NewConfigurationError(def.String(), "expected %d type arguments, got %d", len(def.Params()), len(args))
	}

	var sb strings.Builder
	for i, a := range args {
		if a == nil {
			return nil, types.NewConfigurationError(def.String(), "type argument %d is nil", i)
		}
		if i > 0 {
			sb.WriteByte(argsSep)
		}
		sb.WriteString(strconv.FormatUint(a.Serial(), 10))
	}
	key := instanceKey{definition: def.Serial(), args: sb.String()}

	r.mu.RLock()
	existing, ok := r.instances[key]
	r.mu.RUnlock()
	if ok {
		return existing, nil
	}

	created := types.Instantiate(def, args)

	// first writer wins, a losing writer adopts the stored instance
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instances[key]; ok {
		return existing, nil
	}
	r.instances[key] = created

	instantiationsTotal.Inc()
	Logger.Debugf("interned instantiation %s", created)
	return created, nil
}

// ResolveType returns the type identified by id, closing generic definitions
// over the recursively resolved arguments
func (r *Registry) ResolveType(id string) (*types.Type, error) {
	parsed, err := ParseTypeId(id)
	if err != nil {
		return nil, err
	}
	return r.resolveParsed(parsed)
}

func (r *Registry) resolveParsed(id TypeId) (*types.Type, error) {
	desc, ok := r.DescriptorById(id.Name)
	if !ok {
		return nil, types.NewTypeResolutionError(id.Name, "type id is not registered")
	}
	if !id.IsGeneric() {
		return desc.Type, nil
	}
	if !desc.IsGeneric() {
		return nil, types.NewConfigurationError(id.String(), "%q is not a generic definition", id.Name)
	}

	args := make([]*types.Type, len(id.Args))
	for i, a := range id.Args {
		arg, err := r.resolveParsed(a)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return r.MakeGeneric(desc.Type, args...)
}

// ResolveId returns the canonical type id of t
func (r *Registry) ResolveId(t *types.Type) (string, error) {
	if t == nil {
		return "", types.NewConfigurationError("", "cannot resolve the id of a nil type")
	}
	if t.ContainsParams() {
		return "", types.NewConfigurationError(t.String(), "type contains unbound generic parameters")
	}

	var sb strings.Builder
	if err := r.writeId(&sb, t); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Registry) writeId(sb *strings.Builder, t *types.Type) error {
	desc, err := r.Descriptor(t)
	if err != nil {
		return err
	}
	sb.WriteString(desc.Id)
	if !t.IsGeneric() {
		return nil
	}

	sb.WriteByte(argsOpen)
	for i, a := range t.Args() {
		if i > 0 {
			sb.WriteByte(argsSep)
		}
		if err := r.writeId(sb, a); err != nil {
			return err
		}
	}
	sb.WriteByte(argsClose)
	return nil
}

// Descriptor returns the descriptor of t, or of its generic definition if t is
// an instantiation
func (r *Registry) Descriptor(t *types.Type) (*Descriptor, error) {
	key := t
	if t.IsGeneric() {
		key = t.Definition()
	}

	r.mu.RLock()
	desc, ok := r.byType[key]
	r.mu.RUnlock()

	if !ok {
		return nil, types.NewTypeResolutionError(key.Name(), "type is not registered")
	}
	return desc, nil
}

// DescriptorById returns the descriptor registered under the bracket-free id
func (r *Registry) DescriptorById(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.byId[id]
	return desc, ok
}

// Descriptors returns a snapshot of all descriptors sorted by id
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	result := make([]*Descriptor, 0, len(r.byId))
	for _, d := range r.byId {
		result = append(result, d)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result
}

// Len returns the number of registered descriptors
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byId)
}
