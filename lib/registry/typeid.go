package registry

import (
	"strings"
	"unicode"

	"github.com/Witchie/BinSerializer/lib/types"
)

// Grammar characters of a type id
const (
	argsOpen  = '['
	argsClose = ']'
	argsSep   = ','
)

// TypeId is a parsed type id of the form Name or Name[Id,Id,...]
type TypeId struct {
	Name string
	Args []TypeId
}

// IsGeneric reports whether the id names an instantiation
func (id TypeId) IsGeneric() bool { return len(id.Args) > 0 }

// String returns the canonical textual form of the id
func (id TypeId) String() string {
	var sb strings.Builder
	id.write(&sb)
	return sb.String()
}

func (id TypeId) write(sb *strings.Builder) {
	sb.WriteString(id.Name)
	if len(id.Args) == 0 {
		return
	}
	sb.WriteByte(argsOpen)
	for i, a := range id.Args {
		if i > 0 {
			sb.WriteByte(argsSep)
		}
		a.write(sb)
	}
	sb.WriteByte(argsClose)
}

// ParseTypeId parses an id recursively. Malformed ids fail with a
// types.ConfigurationError.
func ParseTypeId(s string) (TypeId, error) {
	base, args, err := SplitTypeId(s)
	if err != nil {
		return TypeId{}, err
	}

	id := TypeId{Name: base}
	for _, a := range args {
		arg, err := ParseTypeId(a)
		if err != nil {
			return TypeId{}, err
		}
		id.Args = append(id.Args, arg)
	}
	return id, nil
}

// SplitTypeId separates a type id into its base name and the textual ids of its
// arguments. Only commas on the first bracket level split arguments, so nested
// ids are returned untouched.
func SplitTypeId(s string) (base string, args []string, err error) {
	open := strings.IndexByte(s, argsOpen)
	if open < 0 {
		if err := ValidateName(s); err != nil {
			return "", nil, err
		}
		return s, nil, nil
	}

	base = s[:open]
	if err := ValidateName(base); err != nil {
		return "", nil, types.NewConfigurationError(s, "invalid base name: %v", err)
	}

	depth := 1
	start := open + 1
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case argsOpen:
			depth++
		case argsClose:
			depth--
			if depth == 0 {
				args = append(args, s[start:i])
				if i != len(s)-1 {
					return "", nil, types.NewConfigurationError(s, "unexpected characters after closing bracket")
				}
				return base, args, nil
			}
		case argsSep:
			if depth == 1 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	return "", nil, types.NewConfigurationError(s, "unbalanced brackets")
}

// ValidateName checks that name is usable as a bracket-free type id
func ValidateName(name string) error {
	if name == "" {
		return types.NewConfigurationError(name, "empty type name")
	}
	for _, r := range name {
		if r == argsOpen || r == argsClose || r == argsSep || unicode.IsSpace(r) {
			return types.NewConfigurationError(name, "type name must not contain %q", r)
		}
	}
	return nil
}
