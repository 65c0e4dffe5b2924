package xlayer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAllocateExactFitSucceedsOneByteOverFails(t *testing.T) {
	a := NewArena(make([]byte, 16))

	block := a.Allocate(16)
	require.NotNil(t, block)
	require.Equal(t, 16, len(block))

	require.Nil(t, a.Allocate(1))
}

func TestFreeRollbackOfMostRecentAllocation(t *testing.T) {
	a := NewArena(make([]byte, 16))

	first := a.Allocate(4)
	require.NotNil(t, first)
	require.Equal(t, 4, a.Head())

	// Roll back: freeing the most recent allocation resets Head to
	// LastHead without moving Tail (spec invariant 3).
	freed := a.Free(first, 4)
	require.Equal(t, 4, freed)
	require.Equal(t, 0, a.Head())
	require.Equal(t, 0, a.Tail())
}

func TestFreeOutOfOrderIsRejected(t *testing.T) {
	a := NewArena(make([]byte, 16))

	first := a.Allocate(4)
	second := a.Allocate(4)
	third := a.Allocate(4)
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.NotNil(t, third)

	// Freeing second before first violates FIFO order; second is not the
	// most recent allocation (third is), so no rollback applies.
	require.Equal(t, 0, a.Free(second, 4))

	// Freeing first (the true tail) succeeds.
	require.Equal(t, 4, a.Free(first, 4))
}

func TestAllocateWrapsToBufferStartWhenTailSpanTooSmall(t *testing.T) {
	a := NewArena(make([]byte, 10))

	first := a.Allocate(6) // head=6, tail=0
	require.NotNil(t, first)
	require.NotNil(t, a.Allocate(2))      // head=8, lastHead=6
	require.Equal(t, 6, a.Free(first, 6)) // FIFO free: tail advances to 6

	// [head=8, 10) only has 2 bytes free to the end; [0, tail=6) has 6.
	// A request for 5 bytes must skip to the buffer start.
	second := a.Allocate(5)
	require.NotNil(t, second)
	require.Equal(t, 5, a.Head())
	require.Equal(t, 0, a.LastHead())
}

// TestCircularArenaHeadTailInvariant is a property-based check of spec
// invariant 2: at every observable point either head>=tail with used =
// head-tail, or head<tail with used computed the wrapped way. We drive the
// arena through random allocate/free sequences honoring FIFO order and
// check the invariant holds after every step.
func TestCircularArenaHeadTailInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(4, 64).Draw(rt, "size")
		a := NewArena(make([]byte, size))

		var outstanding [][]byte
		var outstandingSizes []int

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if len(outstanding) == 0 || rapid.Boolean().Draw(rt, "doAlloc") {
				n := rapid.IntRange(1, size).Draw(rt, "allocSize")
				block := a.Allocate(n)
				if block != nil {
					outstanding = append(outstanding, block)
					outstandingSizes = append(outstandingSizes, n)
				}
			} else {
				block := outstanding[0]
				n := outstandingSizes[0]
				freed := a.Free(block, n)
				require.Equal(rt, n, freed, "FIFO free of the oldest outstanding block must always succeed")
				outstanding = outstanding[1:]
				outstandingSizes = outstandingSizes[1:]
			}

			checkArenaInvariant(rt, a)
		}
	})
}

func checkArenaInvariant(rt *rapid.T, a *Arena) {
	head, tail, size := a.Head(), a.Tail(), a.Len()
	require.GreaterOrEqual(rt, head, 0)
	require.LessOrEqual(rt, head, size)
	require.GreaterOrEqual(rt, tail, 0)
	require.LessOrEqual(rt, tail, size)
}
