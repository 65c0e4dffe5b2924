package link

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestIdentityLookupWhenNotRandomized(t *testing.T) {
	ch := NewChannelHopping([]uint8{3, 7, 11, 7}, false, 0)
	require.Equal(t, []uint8{3, 7, 11}, ch.LookupTable())
}

func TestGetChannelFollowsSequenceIndex(t *testing.T) {
	ch := NewChannelHopping([]uint8{3, 7, 11}, false, 0)
	require.Equal(t, uint8(3), ch.GetChannel())
	ch.Increment(1)
	require.Equal(t, uint8(7), ch.GetChannel())
	ch.Increment(2)
	require.Equal(t, uint8(3), ch.GetChannel())
}

func TestIncrementWrapsModuloSequenceLength(t *testing.T) {
	ch := NewChannelHopping([]uint8{1, 2, 3, 4}, false, 0)
	ch.Increment(9)
	require.Equal(t, 1, ch.GetIndex())
}

func TestIncrementHandlesNegativeSkipBackwards(t *testing.T) {
	ch := NewChannelHopping([]uint8{1, 2, 3, 4}, false, 0)
	ch.SetIndex(1)
	ch.Increment(-2)
	require.Equal(t, 3, ch.GetIndex())
}

func TestSetIndexWrapsOutOfRange(t *testing.T) {
	ch := NewChannelHopping([]uint8{1, 2, 3}, false, 0)
	ch.SetIndex(5)
	require.Equal(t, 2, ch.GetIndex())
}

func TestMiddleIndexIsHalfSequenceLength(t *testing.T) {
	ch := NewChannelHopping([]uint8{1, 2, 3, 4, 5}, false, 0)
	require.Equal(t, 2, ch.MiddleIndex())
}

func TestRandomizedLookupIsPermutationOfUniqueChannels(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		seed := rapid.Int64().Draw(rt, "seed")

		sequence := make([]uint8, n)
		for i := range sequence {
			sequence[i] = uint8(i % 5)
		}

		ch := NewChannelHopping(sequence, true, seed)
		table := ch.LookupTable()
		unique := uniqueChannels(sequence)

		require.Equal(rt, len(unique), len(table))

		gotSorted := append([]uint8(nil), table...)
		wantSorted := append([]uint8(nil), unique...)
		sort.Slice(gotSorted, func(i, j int) bool { return gotSorted[i] < gotSorted[j] })
		sort.Slice(wantSorted, func(i, j int) bool { return wantSorted[i] < wantSorted[j] })
		require.Equal(rt, wantSorted, gotSorted)
	})
}

func TestSameSeedProducesSamePermutation(t *testing.T) {
	sequence := []uint8{0, 1, 2, 3, 4, 5}
	a := NewChannelHopping(sequence, true, 42)
	b := NewChannelHopping(sequence, true, 42)
	require.Equal(t, a.LookupTable(), b.LookupTable())
}
