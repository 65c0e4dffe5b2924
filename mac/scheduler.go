package mac

import "github.com/kidd971/wps/link"

// Scheduler advances the fixed TDMA schedule one timeslot at a time,
// applying link throttling, and exposes the current timeslot plus the
// accumulated sleep time to spend before the next radio wakeup (spec
// §4.5.1, grounded on wps_mac.c's process_next_timeslot and the
// link_scheduler_* calls it makes).
type Scheduler struct {
	timeslots       []*Timeslot
	currentIndex    int
	sleepTimeTicks  uint32
	channelHopping  *link.ChannelHopping
}

// NewScheduler builds a scheduler over a fixed timeslot table, driven by
// the given channel-hopping sequence.
func NewScheduler(timeslots []*Timeslot, hopping *link.ChannelHopping) *Scheduler {
	return &Scheduler{timeslots: timeslots, channelHopping: hopping}
}

// CurrentTimeslot returns the timeslot the scheduler currently points to.
func (s *Scheduler) CurrentTimeslot() *Timeslot {
	if len(s.timeslots) == 0 {
		return nil
	}
	return s.timeslots[s.currentIndex]
}

// ResetSleepTime clears the accumulated sleep-time accumulator
// (link_scheduler_reset_sleep_time), called once at the top of every
// process_next_timeslot.
func (s *Scheduler) ResetSleepTime() { s.sleepTimeTicks = 0 }

// AddSleepTime accumulates additional sleep ticks (e.g. the RDO/DDCM
// adjustment spec §4.5.1 folds in before programming the radio).
func (s *Scheduler) AddSleepTime(ticks uint32) { s.sleepTimeTicks += ticks }

// SleepTimeTicks reports the accumulated sleep time for the slot about to
// be prepared.
func (s *Scheduler) SleepTimeTicks() uint32 { return s.sleepTimeTicks }

// incrementRaw advances the index by one slot, wrapping, and returns 1 (the
// raw per-call increment the channel-hopping sequence must also advance by).
func (s *Scheduler) incrementRaw() uint8 {
	if len(s.timeslots) == 0 {
		return 0
	}
	s.currentIndex = (s.currentIndex + 1) % len(s.timeslots)
	return 1
}

// Advance moves to the next timeslot, repeatedly skipping over any
// timeslot whose every main connection is throttled off (spec §4.5.3), and
// returns the total slot count consumed (including skipped slots) so the
// caller can advance channel hopping by the same amount
// (link_channel_hopping_increment_sequence's inc_count parameter).
func (s *Scheduler) Advance() uint8 {
	var incCount uint8
	for {
		incCount += s.incrementRaw()
		ts := s.CurrentTimeslot()
		if ts == nil {
			return incCount
		}
		for _, c := range ts.MainConnections {
			if c != nil {
				c.advanceThrottle()
			}
		}
		for _, c := range ts.AutoConnections {
			if c != nil {
				c.CurrentlyEnabled = true
			}
		}
		if ts.anyMainEnabled() {
			return incCount
		}
	}
}

// ChannelHopping exposes the scheduler's channel-hop sequence so MAC can
// read the current channel and apply Advance's increment count to it.
func (s *Scheduler) ChannelHopping() *link.ChannelHopping { return s.channelHopping }
