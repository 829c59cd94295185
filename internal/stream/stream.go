// Package stream re-exposes an already materialized result buffer as a
// finite, single-pass sequence. Nothing here is incremental: the host has
// returned every row before a Stream is created.
package stream

import "iter"

// Stream yields the elements of a buffer once, in order. Each element is
// released from the buffer as soon as it has been handed out.
type Stream[T any] struct {
	buf  []T
	pos  int
	cur  T
	done bool
}

// New wraps buf. The stream takes ownership of the slice.
func New[T any](buf []T) *Stream[T] {
	return &Stream[T]{buf: buf}
}

// Next advances to the next element and reports whether there was one.
// Once it has returned false it always returns false.
func (s *Stream[T]) Next() bool {
	var zero T
	if s.done || s.pos >= len(s.buf) {
		s.Close()
		return false
	}
	s.cur = s.buf[s.pos]
	s.buf[s.pos] = zero
	s.pos++
	return true
}

// Current returns the element produced by the last successful Next.
func (s *Stream[T]) Current() T {
	return s.cur
}

// Remaining is the number of elements not yet produced.
func (s *Stream[T]) Remaining() int {
	if s.done {
		return 0
	}
	return len(s.buf) - s.pos
}

// Close drops the rest of the buffer.
func (s *Stream[T]) Close() {
	var zero T
	s.done = true
	s.buf = nil
	s.cur = zero
}

// All returns an iterator over the remaining elements. The stream is
// consumed by the iteration; ranging over it a second time yields nothing.
func (s *Stream[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for s.Next() {
			if !yield(s.cur) {
				return
			}
		}
	}
}
