package manifest

import (
	"fmt"
	"os"

	"github.com/Witchie/BinSerializer/lib/registry"
	"github.com/Witchie/BinSerializer/lib/serializer"
	"github.com/Witchie/BinSerializer/lib/types"
	"github.com/lni/dragonboat/v4/logger"
	toml "github.com/pelletier/go-toml/v2"
)

var Logger = logger.GetLogger("manifest")

const (
	KindValue     = "value"
	KindReference = "reference"
)

// Manifest lists declared types with their stable ids, in registration order
type Manifest struct {
	Types []TypeEntry `toml:"type"`
}

// TypeEntry declares one plain type
type TypeEntry struct {
	Id         string   `toml:"id"`
	Kind       string   `toml:"kind"`       // "value" | "reference" (default)
	Underlying string   `toml:"underlying"` // value types only: id of the value type whose routines are borrowed
	Supertypes []string `toml:"supertypes"` // ids of reference supertypes
	Version    uint32   `toml:"version"`
	MinVersion uint32   `toml:"min_version"`
}

// kind maps the textual kind of the entry to a types.Kind
func (e TypeEntry) kind() (types.Kind, error) {
	switch e.Kind {
	case KindValue:
		return types.KindValue, nil
	case KindReference, "":
		return types.KindReference, nil
	default:
		return 0, types.NewConfigurationError(e.Id, "unknown kind %q, expected %q or %q", e.Kind, KindValue, KindReference)
	}
}

// --------------------------------------------------------------------------
// Loading
// --------------------------------------------------------------------------

// Parse decodes and validates a TOML manifest
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, types.NewConfigurationError("", "failed to decode manifest: %v", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest file at path
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate checks every entry in isolation. References to other ids are
// checked by Apply, since they may name types registered in code.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Types))
	for i, e := range m.Types {
		if err := registry.ValidateName(e.Id); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := seen[e.Id]; dup {
			return types.NewConfigurationError(e.Id, "declared more than once")
		}
		seen[e.Id] = struct{}{}

		kind, err := e.kind()
		if err != nil {
			return err
		}
		if e.Underlying != "" && kind != types.KindValue {
			return types.NewConfigurationError(e.Id, "only value types can declare an underlying type")
		}
		if e.MinVersion > e.effectiveVersion() {
			return types.NewConfigurationError(e.Id, "min_version %d exceeds version %d", e.MinVersion, e.effectiveVersion())
		}
	}
	return nil
}

func (e TypeEntry) effectiveVersion() uint32 {
	if e.Version == 0 {
		return registry.DefaultVersion
	}
	return e.Version
}

func (e TypeEntry) effectiveMinVersion() uint32 {
	if e.MinVersion == 0 {
		return registry.DefaultMinSupportedVersion
	}
	return e.MinVersion
}

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// Apply registers every entry on s in declaration order and returns the
// created descriptors. Registration stops at the first failing entry; entries
// registered before it stay registered.
func (m *Manifest) Apply(s *serializer.Serializer) ([]*registry.Descriptor, error) {
	descs := make([]*registry.Descriptor, 0, len(m.Types))
	for _, e := range m.Types {
		desc, err := apply(s, e)
		if err != nil {
			return descs, err
		}
		descs = append(descs, desc)
	}
	Logger.Infof("registered %d manifest types", len(descs))
	return descs, nil
}

func apply(s *serializer.Serializer, e TypeEntry) (*registry.Descriptor, error) {
	kind, err := e.kind()
	if err != nil {
		return nil, err
	}

	var opts []types.Option
	supertypes := make([]*types.Type, 0, len(e.Supertypes))
	for _, id := range e.Supertypes {
		st, err := s.TypeForId(id)
		if err != nil {
			return nil, fmt.Errorf("supertype of %q: %w", e.Id, err)
		}
		if st.Kind() != types.KindReference {
			return nil, types.NewConfigurationError(e.Id, "supertype %s is not a reference type", st)
		}
		supertypes = append(supertypes, st)
	}
	if len(supertypes) > 0 {
		opts = append(opts, types.WithSupertypes(supertypes...))
	}

	var underlying *types.Type
	if e.Underlying != "" {
		underlying, err = s.TypeForId(e.Underlying)
		if err != nil {
			return nil, fmt.Errorf("underlying type of %q: %w", e.Id, err)
		}
		if !underlying.IsValueType() {
			return nil, types.NewConfigurationError(e.Id, "underlying type %s is not a value type", underlying)
		}
		opts = append(opts, types.WithUnderlying(underlying), types.WithGoType(underlying.GoType()))
	}

	t := types.New(e.Id, kind, opts...)

	var method registry.Method
	if underlying != nil {
		if method, err = borrow(s, underlying, t); err != nil {
			return nil, fmt.Errorf("routines of %q: %w", e.Id, err)
		}
	}

	return s.Register(t, e.Id, method, registry.WithVersion(e.effectiveVersion(), e.effectiveMinVersion()))
}

// borrow adapts the routines of the underlying value type to t
func borrow(s *serializer.Serializer, underlying, t *types.Type) (registry.Method, error) {
	w, err := s.GetWriterAs(underlying, t)
	if err != nil {
		return registry.Method{}, err
	}
	r, err := s.GetReaderAs(underlying, t)
	if err != nil {
		return registry.Method{}, err
	}
	sk, err := s.GetSkipperAs(underlying, t)
	if err != nil {
		return registry.Method{}, err
	}
	return registry.Method{Writer: w, Reader: r, Skipper: sk}, nil
}
