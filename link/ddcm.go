package link

// DDCM is the distributed desync concurrency mechanism named in spec
// §4.5.1 and the GLOSSARY: a bounded per-timeslot sleep offset a
// coordinator (as opposed to a network node synced to one) applies so
// several independently-clocked coordinators sharing a channel don't stay
// phase-locked with each other. Grounded on original_source/core/wireless/
// protocol_stack/wps_mac.c's prepare_tx_main, which adds
// link_ddcm_get_offset only when !wps_mac_is_network_node, and its RX
// handlers, which call link_ddcm_pll_cycles_update on every received main
// frame. This port folds the current tick count into the offset in place
// of the firmware's dedicated sync sleep-cycle counter, which this port's
// TDMASync does not expose.
type DDCM struct {
	maxOffset uint16
	enabled   bool
	offset    uint16
}

// NewDDCM builds DDCM state bounded to [0, maxOffset] PLL cycles
// (wps_enable_ddcm's max_timeslot_offset).
func NewDDCM(maxOffset uint16) *DDCM {
	return &DDCM{maxOffset: maxOffset}
}

func (d *DDCM) Enable()      { d.enabled = true }
func (d *DDCM) Disable()     { d.enabled = false }
func (d *DDCM) Enabled() bool { return d.enabled }

// PLLCyclesUpdate folds the current tick count into the desync offset,
// called once per received main frame (link_ddcm_pll_cycles_update).
func (d *DDCM) PLLCyclesUpdate(tick uint64) {
	if !d.enabled || d.maxOffset == 0 {
		return
	}
	d.offset = uint16(tick % uint64(d.maxOffset))
}

// GetOffset returns the current desync offset in PLL cycles, 0 if
// disabled (link_ddcm_get_offset).
func (d *DDCM) GetOffset() uint16 {
	if !d.enabled {
		return 0
	}
	return d.offset
}
