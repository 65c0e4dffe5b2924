// Package link implements the per-connection link-layer algorithms: channel
// hopping, stop-and-wait ARQ, credit flow control, random datarate offset,
// fallback, connect-status hysteresis, LQI statistics, and fragmentation
// (spec §4.3). Grounded on original_source's link_*.c/.h files.
package link

import "math/rand"

// ChannelHopping maps a logical sequence index to a physical channel
// through a lookup table that may be randomized at init, per spec §4.3.1.
// Grounded on original_source/core/wireless/link/link_channel_hopping.c.
type ChannelHopping struct {
	sequence    []uint8 // actual channels, in hop order
	lookup      []uint8 // unique-channel -> physical channel, indexed by position in the unique-channel list
	middleIndex int
	index       int
}

// NewChannelHopping builds the hopping state from a channel sequence. When
// randomize is true, the unique-channel lookup table is permuted with a
// seeded Fisher-Yates using rand_with_seed(seed+2); seed 1 would reset the
// shared PRNG in the original firmware so every caller offsets by 2 here
// too, purely to keep the same seed->permutation mapping a test fixture
// would expect.
func NewChannelHopping(sequence []uint8, randomize bool, seed int64) *ChannelHopping {
	ch := &ChannelHopping{
		sequence: append([]uint8(nil), sequence...),
	}

	unique := uniqueChannels(sequence)
	ch.lookup = make([]uint8, len(unique))
	copy(ch.lookup, unique)

	if randomize {
		r := rand.New(rand.NewSource(seed + 2))
		fisherYatesShuffle(ch.lookup, r)
	}

	ch.middleIndex = len(sequence) / 2
	return ch
}

func uniqueChannels(sequence []uint8) []uint8 {
	seen := make(map[uint8]bool, len(sequence))
	out := make([]uint8, 0, len(sequence))
	for _, c := range sequence {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func fisherYatesShuffle(s []uint8, r *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Increment advances the sequence index by n, modulo the sequence length.
// n includes skipped timeslots (spec §4.5.3's throttle requirement).
func (c *ChannelHopping) Increment(n int) {
	if len(c.sequence) == 0 {
		return
	}
	c.index = ((c.index+n)%len(c.sequence) + len(c.sequence)) % len(c.sequence)
}

// SetIndex forces the sequence index (used on (re)sync).
func (c *ChannelHopping) SetIndex(i int) {
	if len(c.sequence) == 0 {
		c.index = 0
		return
	}
	c.index = ((i % len(c.sequence)) + len(c.sequence)) % len(c.sequence)
}

// GetIndex returns the current sequence index.
func (c *ChannelHopping) GetIndex() int { return c.index }

// MiddleIndex returns the bias index used for blind sync acquisition.
func (c *ChannelHopping) MiddleIndex() int { return c.middleIndex }

// GetChannel resolves the current sequence index to a physical channel
// through the lookup table.
func (c *ChannelHopping) GetChannel() uint8 {
	if len(c.sequence) == 0 {
		return 0
	}
	logical := c.sequence[c.index]
	return c.resolve(logical)
}

func (c *ChannelHopping) resolve(logical uint8) uint8 {
	for i, u := range c.uniqueSet() {
		if u == logical {
			return c.lookup[i]
		}
	}
	return logical
}

// uniqueSet recomputes, on every call, the unique channel order the lookup
// table is indexed against; for the sequence lengths this protocol uses
// (single-digit channel counts) this is cheap enough to avoid carrying
// another slice across the struct.
func (c *ChannelHopping) uniqueSet() []uint8 {
	return uniqueChannels(c.sequence)
}

// LookupTable exposes the resolved permutation for tests (spec §8 invariant
//6: bijection over the unique set when randomized, identity otherwise).
func (c *ChannelHopping) LookupTable() []uint8 {
	out := make([]uint8, len(c.lookup))
	copy(out, c.lookup)
	return out
}
