package renderer

import "fmt"

// maxBufferElements bounds any single allocation
var maxBufferElements = 1 << 28

// buffer is a fixed-size array owned by a session. It is sized once by
// allocate, refilled by upload or clear, and dropped by release.
type buffer[T any] struct {
	name string
	data []T
}

func newBuffer[T any](name string) buffer[T] {
	return buffer[T]{name: name}
}

// allocate sizes the buffer to n zeroed elements
func (b *buffer[T]) allocate(n int) error {
	if n < 0 || n > maxBufferElements {
		return deviceErrorAt(1, "allocate "+b.name, fmt.Errorf("cannot hold %d elements (limit %d)", n, maxBufferElements))
	}
	b.data = make([]T, n)
	return nil
}

// upload copies src into the buffer; the lengths must match
func (b *buffer[T]) upload(src []T) error {
	if len(src) != len(b.data) {
		return deviceErrorAt(1, "upload "+b.name, fmt.Errorf("source has %d elements, buffer holds %d", len(src), len(b.data)))
	}
	copy(b.data, src)
	return nil
}

// download copies the buffer into dst; the lengths must match
func (b *buffer[T]) download(dst []T) error {
	if len(dst) != len(b.data) {
		return deviceErrorAt(1, "download "+b.name, fmt.Errorf("destination has %d elements, buffer holds %d", len(dst), len(b.data)))
	}
	copy(dst, b.data)
	return nil
}

// clear sets every element to value
func (b *buffer[T]) clear(value T) {
	for i := range b.data {
		b.data[i] = value
	}
}

func (b *buffer[T]) release() {
	b.data = nil
}

func (b *buffer[T]) len() int {
	return len(b.data)
}
