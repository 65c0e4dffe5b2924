package mac

import (
	"github.com/kidd971/wps/wpslog"
	"github.com/kidd971/wps/xlayer"
)

// SyncState is the TDMA sync state of a network (non-coordinator) node
// (spec §4.5.5).
type SyncState uint8

const (
	Syncing SyncState = iota
	Synced
)

func (s SyncState) String() string {
	if s == Synced {
		return "synced"
	}
	return "syncing"
}

// TDMASync tracks a network node's synchronization to its coordinator,
// grounded on wps_mac.c's update_sync (the link_tdma_sync_slave_find /
// link_tdma_sync_slave_adjust pair it calls into). A coordinator never
// constructs one of these — NodeRole selects whether MAC calls it at all.
type TDMASync struct {
	state SyncState

	corroborationsNeeded int
	corroborations       int

	frameLostDuration    uint32
	frameLostMaxDuration uint32

	driftClampTicks int32
}

// NewTDMASync builds sync tracking requiring corroborationsNeeded
// consecutive good receptions on the syncing address before declaring
// Synced, tolerating up to frameLostMaxDuration ticks of consecutive
// missed/lost frames before falling back to Syncing, and clamping any
// single drift adjustment to ±driftClampTicks.
func NewTDMASync(corroborationsNeeded int, frameLostMaxDuration uint32, driftClampTicks int32) *TDMASync {
	return &TDMASync{
		corroborationsNeeded: corroborationsNeeded,
		frameLostMaxDuration: frameLostMaxDuration,
		driftClampTicks:      driftClampTicks,
	}
}

// IsSlaveSynced reports the current sync state.
func (s *TDMASync) IsSlaveSynced() bool { return s.state == Synced }

// State returns the sync state machine's current value.
func (s *TDMASync) State() SyncState { return s.state }

// SlaveFind runs while not yet synced: a received frame on the configured
// syncing address counts as one corroboration; reaching
// corroborationsNeeded transitions to Synced. Any other outcome resets the
// corroboration count — a single miss during acquisition restarts the
// count, matching the firmware's conservative acquisition behavior.
// Returns true exactly on the call that completes the transition.
func (s *TDMASync) SlaveFind(outcome xlayer.FrameOutcome) (justSynced bool) {
	if s.state == Synced {
		return false
	}
	if outcome == xlayer.OutcomeReceived {
		s.corroborations++
		if s.corroborations >= s.corroborationsNeeded {
			s.state = Synced
			s.corroborations = 0
			s.frameLostDuration = 0
			wpslog.Info("tdma sync acquired")
			return true
		}
		return false
	}
	s.corroborations = 0
	return false
}

// SlaveAdjust runs once synced, on every RX outcome from the syncing
// address. On a good reception it clears the lost-frame accumulator and
// returns the clamped drift adjustment (measuredDriftTicks is rx_sync_time
// minus the expected preamble position, per spec §4.5.5) to apply to the
// next sleep period. On a lost/missed frame it accumulates rxWaitTime into
// frame_lost_duration and falls back to Syncing once that exceeds the
// configured maximum.
func (s *TDMASync) SlaveAdjust(outcome xlayer.FrameOutcome, measuredDriftTicks int32, rxWaitTime uint32) (adjustment int32) {
	if outcome != xlayer.OutcomeReceived {
		s.frameLostDuration += rxWaitTime
		if s.frameLostDuration > s.frameLostMaxDuration {
			s.state = Syncing
			s.corroborations = 0
			wpslog.Warn("tdma sync lost, re-acquiring")
		}
		return 0
	}

	s.frameLostDuration = 0
	return clampInt32(measuredDriftTicks, -s.driftClampTicks, s.driftClampTicks)
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
