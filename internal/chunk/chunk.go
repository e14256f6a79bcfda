// Package chunk splits slices into bounded-size groups so remote queries can
// respect backend clause limits.
package chunk

// Split partitions items into consecutive chunks of at most size elements.
// The chunks share the input's backing array. A nil or empty input yields nil;
// a non-positive size returns a single chunk with everything.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{items}
	}

	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
