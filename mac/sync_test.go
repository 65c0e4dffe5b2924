package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kidd971/wps/xlayer"
)

func TestSlaveFindRequiresConsecutiveCorroborations(t *testing.T) {
	s := NewTDMASync(3, 1000, 100)

	require.False(t, s.SlaveFind(xlayer.OutcomeReceived))
	require.False(t, s.IsSlaveSynced())
	require.False(t, s.SlaveFind(xlayer.OutcomeReceived))
	require.True(t, s.SlaveFind(xlayer.OutcomeReceived))
	require.True(t, s.IsSlaveSynced())
}

func TestSlaveFindResetsCorroborationOnMiss(t *testing.T) {
	s := NewTDMASync(2, 1000, 100)

	require.False(t, s.SlaveFind(xlayer.OutcomeReceived))
	require.False(t, s.SlaveFind(xlayer.OutcomeLost))
	require.False(t, s.SlaveFind(xlayer.OutcomeReceived))
	require.False(t, s.IsSlaveSynced(), "a single miss mid-acquisition should restart the corroboration count")
}

func TestSlaveAdjustClampsDrift(t *testing.T) {
	s := NewTDMASync(1, 1000, 50)
	s.SlaveFind(xlayer.OutcomeReceived)
	require.True(t, s.IsSlaveSynced())

	adj := s.SlaveAdjust(xlayer.OutcomeReceived, 1000, 10)
	require.Equal(t, int32(50), adj)

	adj = s.SlaveAdjust(xlayer.OutcomeReceived, -1000, 10)
	require.Equal(t, int32(-50), adj)
}

func TestSlaveAdjustFallsBackToSyncingAfterSustainedLoss(t *testing.T) {
	s := NewTDMASync(1, 100, 50)
	s.SlaveFind(xlayer.OutcomeReceived)
	require.True(t, s.IsSlaveSynced())

	s.SlaveAdjust(xlayer.OutcomeLost, 0, 60)
	require.True(t, s.IsSlaveSynced())

	s.SlaveAdjust(xlayer.OutcomeLost, 0, 60)
	require.False(t, s.IsSlaveSynced())
}

func TestSlaveAdjustGoodFrameClearsLostAccumulator(t *testing.T) {
	s := NewTDMASync(1, 100, 50)
	s.SlaveFind(xlayer.OutcomeReceived)

	s.SlaveAdjust(xlayer.OutcomeLost, 0, 90)
	s.SlaveAdjust(xlayer.OutcomeReceived, 0, 90)
	s.SlaveAdjust(xlayer.OutcomeLost, 0, 90)
	require.True(t, s.IsSlaveSynced(), "a good frame between two losses should reset the accumulator")
}
