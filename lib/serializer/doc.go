// Package serializer exposes the type-resolution core to the serialize and
// deserialize facade. It combines three components:
//
//   - registry: canonical type ids for plain types, open generic definitions and
//     their (interned) closed instantiations.
//
//   - resolver: encode, decode and skip routines per type, closing the open
//     methods of generic definitions over concrete type arguments.
//
//   - adapter: casts a routine declared for one type to the static type a call
//     site expects, returning the routine itself when the substitution is
//     representation safe and a cached shim otherwise.
//
// Exposed operations:
//
//	GetWriter(t)   -> *types.Writer     (Write(stream, value))
//	GetReader(t)   -> *types.Reader     (Read(stream) value)
//	GetSkipper(t)  -> *types.Skipper    (Skip(stream))
//	TypeIdFor(t)   -> string
//	TypeForId(id)  -> *types.Type
//
// The ...As variants resolve the routine of a registered type and adapt it to a
// different static type.
//
// Usage:
//
//	s := serializer.Default()
//	t, err := s.TypeForId("List[List[Int]]")
//	w, err := s.GetWriter(t)
//	err = w.Write(stream, [][]int32{{1, 2}, {3}})
//
// Wire framing, null markers and reference tables are not defined here; the
// facade composes them on top of these typed primitives.
package serializer
