// Package manifest registers declared types from a TOML schema manifest.
//
// Member discovery runs outside this module; its result, the stable type id of
// every declared type, is handed over as a list of [[type]] tables:
//
//	[[type]]
//	id = "Color"
//	kind = "value"
//	underlying = "Int"
//	version = 2
//	min_version = 1
//
//	[[type]]
//	id = "Dog"
//	kind = "reference"
//	supertypes = ["Animal", "Object"]
//
// Entries are registered in order, so underlying and supertypes must name ids
// declared earlier in the manifest or registered beforehand. A value type with
// an underlying type reuses that type's routines through adapter shims; other
// entries are registered without routines and only take part in type id
// resolution and assignability.
package manifest
