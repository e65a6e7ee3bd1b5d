// Package adapter casts encode, decode and skip routines declared for one type
// to routines usable where a different static type is expected.
//
// Rules, applied in order:
//
//  1. Identical types: the routine itself is returned.
//  2. Both types are reference types and the substitution is safe in the
//     routine's direction (a writer's type is a supertype of the target, or
//     the target is a supertype of a reader's type): the routine itself is
//     returned, no wrapper is created.
//  3. The types are reinterpretable (assignable in either direction, or value
//     types sharing an underlying type): a shim is built that converts each
//     value between the two Go representations. Shims are cached per
//     (routine, target type) pair; under concurrent construction the first
//     stored shim wins and every caller gets it.
//  4. Otherwise construction fails with a types.TypeMismatchError before any
//     stream is touched.
//
// Skippers never materialize values, so rule 2 applies to them for related
// reference types in either direction.
//
// Value types never take the shortcut of rule 2: their representations are not
// interchangeable even when an assignability relation holds.
package adapter
