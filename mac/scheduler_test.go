package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchedulerAdvanceWrapsAroundTimeslots(t *testing.T) {
	ts0, ts1 := NewTimeslot(), NewTimeslot()
	s := NewScheduler([]*Timeslot{ts0, ts1}, nil)

	require.Same(t, ts0, s.CurrentTimeslot())
	s.Advance()
	require.Same(t, ts1, s.CurrentTimeslot())
	s.Advance()
	require.Same(t, ts0, s.CurrentTimeslot())
}

func TestSchedulerAdvanceSkipsFullyThrottledTimeslot(t *testing.T) {
	enabled := NewTimeslot()
	conn := &Connection{CurrentlyEnabled: true}
	enabled.AddMainConnection(conn, 0)

	throttled := NewTimeslot()
	offConn := &Connection{}
	offConn.SetThrottlePattern([]bool{false})
	throttled.AddMainConnection(offConn, 0)

	s := NewScheduler([]*Timeslot{enabled, throttled}, nil)

	incCount := s.Advance()

	require.Same(t, enabled, s.CurrentTimeslot(), "the throttled timeslot should be skipped entirely")
	require.Equal(t, uint8(2), incCount, "skip must count both the throttled slot and the one landed on")
}

func TestSchedulerResetAndAddSleepTime(t *testing.T) {
	s := NewScheduler([]*Timeslot{NewTimeslot()}, nil)
	s.AddSleepTime(10)
	s.AddSleepTime(5)
	require.Equal(t, uint32(15), s.SleepTimeTicks())

	s.ResetSleepTime()
	require.Equal(t, uint32(0), s.SleepTimeTicks())
}

func TestConnectionAdvanceThrottleCyclesPattern(t *testing.T) {
	conn := &Connection{}
	conn.SetThrottlePattern([]bool{true, false, true})

	conn.advanceThrottle()
	require.False(t, conn.CurrentlyEnabled)
	conn.advanceThrottle()
	require.True(t, conn.CurrentlyEnabled)
	conn.advanceThrottle()
	require.True(t, conn.CurrentlyEnabled)
}

func TestConnectionAdvanceThrottleNilPatternAlwaysEnabled(t *testing.T) {
	conn := &Connection{}
	conn.advanceThrottle()
	require.True(t, conn.CurrentlyEnabled)
}
