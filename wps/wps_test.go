package wps

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidd971/wps/hal"
	"github.com/kidd971/wps/mac"
)

func newTestRadio(t *testing.T) *hal.Radio {
	t.Helper()
	link := hal.NewLoopbackLink()
	radio, err := hal.NewRadio(link.EndpointA(), hal.NewLoopbackPin(), hal.NewLoopbackPin(), func() {})
	require.NoError(t, err)
	return radio
}

func baseConfig() Config {
	return Config{
		LocalAddress:    1,
		Role:            mac.NetworkCoordinator,
		ChannelSequence: []uint8{1, 2, 3},
		Timeslots:       []*mac.Timeslot{mac.NewTimeslot()},
	}
}

func TestNewRejectsNilRadio(t *testing.T) {
	_, err := New(nil, baseConfig())
	require.Error(t, err)
}

func TestNewRejectsZeroLocalAddress(t *testing.T) {
	cfg := baseConfig()
	cfg.LocalAddress = 0
	_, err := New(newTestRadio(t), cfg)
	require.Error(t, err)
}

func TestNewRejectsEmptyChannelSequence(t *testing.T) {
	cfg := baseConfig()
	cfg.ChannelSequence = nil
	_, err := New(newTestRadio(t), cfg)
	require.Error(t, err)
}

func TestNewRejectsEmptyTimeslots(t *testing.T) {
	cfg := baseConfig()
	cfg.Timeslots = nil
	_, err := New(newTestRadio(t), cfg)
	require.Error(t, err)
}

func TestNewSucceedsWithMinimalValidConfig(t *testing.T) {
	d, err := New(newTestRadio(t), baseConfig())
	require.NoError(t, err)
	require.NotNil(t, d)
}

func TestDisconnectWithoutConnectReturnsError(t *testing.T) {
	d, err := New(newTestRadio(t), baseConfig())
	require.NoError(t, err)

	require.ErrorIs(t, d.Disconnect(), ErrAlreadyDisconnected)
}

func TestConnectThenDisconnectSucceeds(t *testing.T) {
	d, err := New(newTestRadio(t), baseConfig())
	require.NoError(t, err)

	require.NoError(t, d.Connect())
	require.NoError(t, d.Disconnect())
}

func TestHaltSuspendsRadioIRQUntilResume(t *testing.T) {
	d, err := New(newTestRadio(t), baseConfig())
	require.NoError(t, err)
	require.NoError(t, d.Connect())

	d.Halt()
	require.Equal(t, stateDisconnected, d.state)
	d.Resume()
	require.Equal(t, stateConnected, d.state)
}
