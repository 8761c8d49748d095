package chunker

// scratch is a grow-only reusable buffer. Requests no larger than the
// current capacity reuse the existing allocation; release is the only way
// to shrink it.
type scratch[T any] struct {
	buf []T
}

// get returns a slice of length n backed by the scratch allocation.
func (s *scratch[T]) get(n int) []T {
	if cap(s.buf) < n {
		s.buf = make([]T, n)
	}
	return s.buf[:n]
}

// capacity returns the size of the current allocation.
func (s *scratch[T]) capacity() int { return cap(s.buf) }

// release drops the allocation.
func (s *scratch[T]) release() { s.buf = nil }
