// Package primitives provides leaf encode/decode/skip routines registered through
// the same contract as any user type: Bool, Int, Long, Double, String, the
// reference root Object and the open generic List[T].
//
// All numbers are encoded big endian with their fixed width, strings and lists
// carry a 4 byte length prefix.
package primitives
