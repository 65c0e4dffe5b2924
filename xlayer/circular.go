package xlayer

// Arena is the circular byte arena backing frame payloads (spec §4.2.2),
// grounded directly on original_source's xlayer_circular_data.c. Allocate
// hands out a contiguous run, wrapping to the start of the buffer when the
// head-to-end run is too small; Free releases in FIFO order except for one
// allowed rollback of the most recently returned allocation.
type Arena struct {
	buffer   []byte
	head     int
	tail     int
	lastHead int
}

// NewArena wraps buf as a circular arena. The caller owns buf's lifetime.
func NewArena(buf []byte) *Arena {
	return &Arena{buffer: buf}
}

// Allocate returns a contiguous slice of exactly `required` bytes, or nil if
// none is currently available. On success Head advances past the returned
// block and LastHead records where the block started, enabling exactly one
// rollback via Free.
func (a *Arena) Allocate(required int) []byte {
	if required <= 0 || required > len(a.buffer) {
		return nil
	}

	lastHead := a.head
	var out []byte

	if a.head >= a.tail {
		freeToEnd := len(a.buffer) - a.head
		freeFromBegin := a.tail
		if freeToEnd >= required {
			out = a.buffer[a.head : a.head+required]
		} else if freeFromBegin >= required {
			out = a.buffer[0:required]
			lastHead = 0
		}
	} else {
		freeMiddle := a.tail - a.head
		if freeMiddle >= required {
			out = a.buffer[a.head : a.head+required]
		}
	}

	if out == nil {
		return nil
	}

	a.lastHead = lastHead
	a.head = lastHead + required
	return out
}

// Free releases a block previously returned by Allocate. If ptr is the most
// recent allocation it is rolled back (Head resets to LastHead, Tail
// untouched); otherwise ptr must equal the current FIFO tail position or the
// call is an ordering bug and returns 0.
//
// Free only ever needs to distinguish two candidate positions (the last
// allocation, and the current FIFO tail), so it compares ptr's backing
// pointer against those two candidate slices directly rather than scanning
// the arena for an offset.
func (a *Arena) Free(ptr []byte, n int) int {
	if n == 0 || ptr == nil || len(a.buffer) == 0 {
		return 0
	}

	if a.lastHead+n <= len(a.buffer) && sameBacking(ptr, a.buffer[a.lastHead:a.lastHead+n]) {
		a.head = a.lastHead
		return n
	}

	tail := a.tail
	if tail+n > len(a.buffer) {
		tail = 0
	}
	if tail+n > len(a.buffer) || !sameBacking(ptr, a.buffer[tail:tail+n]) {
		return 0
	}

	a.tail = tail + n
	return n
}

func sameBacking(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return false
	}
	return &a[0] == &b[0]
}

// Flush resets the arena to empty without touching the backing buffer's
// contents.
func (a *Arena) Flush() {
	a.head = 0
	a.tail = 0
	a.lastHead = 0
}

// Head, Tail and LastHead expose internal state for invariant tests (spec
// §8, invariant 2/3).
func (a *Arena) Head() int     { return a.head }
func (a *Arena) Tail() int     { return a.tail }
func (a *Arena) LastHead() int { return a.lastHead }
func (a *Arena) Len() int      { return len(a.buffer) }
