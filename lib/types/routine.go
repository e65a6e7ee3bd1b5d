package types

import "io"

// WriteFunc encodes v onto the stream
type WriteFunc func(w io.Writer, v any) error

// ReadFunc decodes one value from the stream
type ReadFunc func(r io.Reader) (any, error)

// SkipFunc consumes the bytes of one encoded value without materializing it
type SkipFunc func(r io.Reader) error

// Writer is an encode routine bound to the type it was written for.
// Handles are compared by pointer identity.
type Writer struct {
	typ *Type
	fn  WriteFunc
}

// NewWriter binds fn to its declared operand type
func NewWriter(t *Type, fn WriteFunc) *Writer {
	return &Writer{typ: t, fn: fn}
}

// Type returns the declared operand type
func (w *Writer) Type() *Type { return w.typ }

// Write encodes v onto the stream
func (w *Writer) Write(s io.Writer, v any) error { return w.fn(s, v) }

// Reader is a decode routine bound to the type it produces
type Reader struct {
	typ *Type
	fn  ReadFunc
}

// NewReader binds fn to its declared result type
func NewReader(t *Type, fn ReadFunc) *Reader {
	return &Reader{typ: t, fn: fn}
}

// Type returns the declared result type
func (r *Reader) Type() *Type { return r.typ }

// Read decodes one value from the stream
func (r *Reader) Read(s io.Reader) (any, error) { return r.fn(s) }

// Skipper is a skip routine bound to the type whose encoding it consumes
type Skipper struct {
	typ *Type
	fn  SkipFunc
}

// NewSkipper binds fn to the type whose encoding it consumes
func NewSkipper(t *Type, fn SkipFunc) *Skipper {
	return &Skipper{typ: t, fn: fn}
}

// Type returns the type whose encoding is consumed
func (s *Skipper) Type() *Type { return s.typ }

// Skip consumes one encoded value
func (s *Skipper) Skip(r io.Reader) error { return s.fn(r) }
