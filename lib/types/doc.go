// Package types defines the runtime type model of the serializer core. Go has no
// runtime generic instantiation, so serializable types are described by explicit
// handles instead of reflect.Type values.
//
// Key Components:
//
//   - Type: immutable handle of a serializable type. A type is either plain, an
//     open generic definition (with parameter types), or an instantiation of a
//     definition with type arguments. Types carry their representation Kind
//     (value or reference), declared supertypes, an optional underlying value
//     type and an optional Go representation (reflect.Type).
//
//   - Writer, Reader, Skipper: routine handles that carry the type they were
//     written for. They are pointers, so two handles can be compared by identity.
//
//   - Reinterpretable / Reinterpret: the declared conversion capability used by
//     adapter shims. A value is only ever repackaged under a different static
//     type, never transformed (no numeric widening).
//
//   - ConfigurationError, TypeResolutionError, TypeMismatchError: the error
//     taxonomy of the core, matching the sentinels ErrConfiguration,
//     ErrTypeResolution and ErrTypeMismatch via errors.Is.
//
// Thread Safety:
//
//	Type handles are immutable after creation and safe to share between
//	goroutines. Instantiations should be created through the registry so that
//	identical arguments always map to the identical handle.
package types
