// Package registry provides the bidirectional mapping between runtime types and
// their canonical textual type ids, including nested generic instantiations.
//
// Type Id Grammar:
//
//	TypeId := Name | Name "[" TypeId { "," TypeId } "]"
//
// Names never contain brackets, commas or whitespace. A non generic id never
// contains "[" and the canonical form of a closed type is unique, so encoding a
// resolved type always reproduces the same string.
//
// Key Components:
//
//   - Registry: stores one Descriptor per registered type. Only plain types and
//     open generic definitions are registered (with bracket-free ids). Closed
//     instantiations are derived on demand: ResolveType("List[List[Int]]")
//     resolves the arguments recursively and closes the open definition "List"
//     over them, ResolveId emits "List[List[Int]]" for the result.
//
//   - Descriptor: id, version metadata and the Method (routine handles, or an
//     open method factory for generic definitions) of a registered type.
//
//   - SplitTypeId / ParseTypeId: the depth counting argument splitter. Commas
//     only separate arguments on the first bracket level, so arbitrarily deep
//     generic-of-generic ids parse correctly.
//
// Thread Safety:
//
//	The registry is guarded by a single sync.RWMutex. Resolution only takes the
//	read lock. Registration and interning of an unseen instantiation take the
//	write lock; when two goroutines intern the same instantiation concurrently
//	the first one wins and the other adopts the stored handle.
//
// Errors:
//
//	Malformed ids, bracketed registrations and ids requested for types with
//	unbound parameters fail with types.ConfigurationError. Unknown names fail
//	with types.TypeResolutionError.
package registry
