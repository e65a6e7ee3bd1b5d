package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. The concrete error types below match
// their sentinel.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrTypeResolution = errors.New("type resolution error")
	ErrTypeMismatch   = errors.New("type mismatch")
)

// ConfigurationError reports malformed type ids, illegal registrations or
// requests for the id of a type that still has unbound generic parameters
type ConfigurationError struct {
	Id  string
	Msg string
}

func (e *ConfigurationError) Error() string {
	if e.Id == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Msg)
	}
	return fmt.Sprintf("%s: %s (%q)", ErrConfiguration, e.Msg, e.Id)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TypeResolutionError reports a base name, leaf type or routine that is not registered
type TypeResolutionError struct {
	Name string
	Msg  string
}

func (e *TypeResolutionError) Error() string {
	return fmt.Sprintf("%s: %s (%q)", ErrTypeResolution, e.Msg, e.Name)
}

func (e *TypeResolutionError) Is(target error) bool { return target == ErrTypeResolution }

// TypeMismatchError reports an adapter request between two types without a
// reinterpretation relationship, or a value that does not fit a shim's type
type TypeMismatchError struct {
	From *Type
	To   *Type
	Msg  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s (%s -> %s)", ErrTypeMismatch, e.Msg, e.From, e.To)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// NewConfigurationError creates a ConfigurationError for the given id
func NewConfigurationError(id string, format string, args ...any) error {
	return &ConfigurationError{Id: id, Msg: fmt.Sprintf(format, args...)}
}

// NewTypeResolutionError creates a TypeResolutionError for the given name
func NewTypeResolutionError(name string, format string, args ...any) error {
	return &TypeResolutionError{Name: name, Msg: fmt.Sprintf(format, args...)}
}

// NewTypeMismatchError creates a TypeMismatchError for the given type pair
func NewTypeMismatchError(from, to *Type, format string, args ...any) error {
	return &TypeMismatchError{From: from, To: to, Msg: fmt.Sprintf(format, args...)}
}
