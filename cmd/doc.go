// Package cmd implements the command-line interface of binser, the tooling
// around the type-resolution core of the binary serializer.
//
// The package is organized into several subpackages:
//
//   - typeid: Commands to resolve, list and adapt type ids (resolve, list, adapt)
//   - bench: Performance tests for type id resolution, routines and the adapter caches
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set through environment variables with the BINSER_
// prefix (e.g. BINSER_MANIFEST=types.toml), which are also read from .env and
// .env.local files.
//
// See binser -help for a list of all commands.
package cmd
