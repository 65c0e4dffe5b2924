package link

// defaultRollover is the target rollover used when the caller passes 0,
// matching original_source's DEFAULT_ROLLOVER.
const defaultRollover = 15

// RDO is the random datarate offset state of spec §4.3.4 and §3. Grounded
// on original_source's link_random_datarate_offset.c.
type RDO struct {
	offset        uint16
	rolloverN     uint16
	incrementStep uint16
	enabled       bool
}

// NewRDO builds RDO state. A zero targetRollover selects the firmware
// default of 15*step; a zero targetIncrementStep is clamped to 1.
func NewRDO(targetRollover, targetIncrementStep uint16) *RDO {
	step := targetIncrementStep
	if step == 0 {
		step = 1
	}
	rollover := targetRollover
	if rollover == 0 {
		rollover = defaultRollover * step
	} else {
		rollover = targetRollover * step
	}
	return &RDO{incrementStep: step, rolloverN: rollover}
}

func (r *RDO) Enable()  { r.enabled = true }
func (r *RDO) Disable() { r.enabled = false }
func (r *RDO) Enabled() bool { return r.enabled }

// SendOffset writes the current offset into buf as big-endian 2 bytes (spec
// §6.3's RDO wire field).
func (r *RDO) SendOffset(buf []byte) {
	if len(buf) < 2 {
		return
	}
	buf[0] = byte(r.offset >> 8)
	buf[1] = byte(r.offset)
}

// SetOffset reads a big-endian 2-byte offset out of buf into local state —
// the receive-side counterpart of SendOffset, forming the round-trip law of
// spec §8.
func (r *RDO) SetOffset(buf []byte) {
	if len(buf) < 2 {
		return
	}
	r.offset = uint16(buf[0])<<8 | uint16(buf[1])
}

// GetOffset returns the offset in PLL cycles: 0 when disabled, otherwise
// Offset/IncrementStep.
func (r *RDO) GetOffset() uint16 {
	if !r.enabled {
		return 0
	}
	return r.offset / r.incrementStep
}

// UpdateOffset advances the internal counter modulo RolloverN, called once
// per timeslot.
func (r *RDO) UpdateOffset() {
	if r.rolloverN == 0 {
		r.offset = 0
		return
	}
	r.offset = (r.offset + 1) % r.rolloverN
}
