// Package resolver binds types to their encode, decode and skip routines.
//
// Plain types return the routines stored in their registry descriptor as-is.
// Generic definitions are registered once with an open method factory
// (registry.OpenMethod); when routines for a closed instantiation such as
// List[Int] are requested, the factory is invoked with the instantiation and the
// resolver itself (to fetch element routines), and the closed result is cached
// per instantiation.
//
// Usage:
//
//	res := resolver.New(reg)
//	w, err := res.Writer(listOfInt)
//	if err != nil {
//	    // types.ErrTypeResolution: nothing registered for the base type
//	}
//	err = w.Write(stream, []int32{1, 2, 3})
package resolver
