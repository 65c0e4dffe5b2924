package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidd971/wps/mac"
)

const sampleYAML = `
local_address: 1
role: coordinator
channel_sequence: [1, 2, 3, 4]
timeslots:
  - duration_pll_cycles: 1000
  - duration_pll_cycles: 1000
connections:
  - id: telemetry
    source: 1
    destination: 2
    payload_size: 16
    tx_queue_size: 4
    rx_queue_size: 4
    ack_enable: true
    saw_arq_enable: true
    saw_arq_ttl_ticks: 100
    saw_arq_ttl_retries: 3
    throttle_ratio: 10
    timeslot_index: 0
  - source: 2
    destination: 1
    payload_size: 4
    tx_queue_size: 2
    rx_queue_size: 2
    timeslot_index: 0
    auto: true
`

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesScheduleAndMintsMissingIDs(t *testing.T) {
	path := writeTempYAML(t, sampleYAML)

	spec, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, uint16(1), spec.LocalAddress)
	require.Equal(t, mac.NetworkCoordinator, spec.NodeRole())
	require.Len(t, spec.Connections, 2)
	require.Equal(t, "telemetry", spec.Connections[0].ID)
	require.NotEmpty(t, spec.Connections[1].ID, "missing id must be minted")
}

func TestBuildTimeslotsWiresConnectionsToTheirSlot(t *testing.T) {
	path := writeTempYAML(t, sampleYAML)
	spec, err := Load(path)
	require.NoError(t, err)

	timeslots, built, err := spec.BuildTimeslots()
	require.NoError(t, err)
	require.Len(t, timeslots, 2)
	require.Len(t, built, 2)

	require.Len(t, timeslots[0].MainConnections, 1)
	require.Len(t, timeslots[0].AutoConnections, 1)
	require.True(t, built["telemetry"].AckEnable)
	require.NotNil(t, built["telemetry"].ARQ)
}

func TestBuildTimeslotsRejectsOutOfRangeIndex(t *testing.T) {
	path := writeTempYAML(t, `
local_address: 1
role: node
channel_sequence: [1]
timeslots:
  - duration_pll_cycles: 1000
connections:
  - source: 1
    destination: 2
    timeslot_index: 5
`)
	spec, err := Load(path)
	require.NoError(t, err)

	_, _, err = spec.BuildTimeslots()
	require.Error(t, err)
}

func TestBuildTimeslotsRejectsArqWithoutAck(t *testing.T) {
	path := writeTempYAML(t, `
local_address: 1
role: node
channel_sequence: [1]
timeslots:
  - duration_pll_cycles: 1000
connections:
  - source: 1
    destination: 2
    timeslot_index: 0
    saw_arq_enable: true
`)
	spec, err := Load(path)
	require.NoError(t, err)

	_, _, err = spec.BuildTimeslots()
	require.Error(t, err)
}
