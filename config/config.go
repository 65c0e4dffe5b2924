// Package config loads a node's fixed TDMA schedule and connection table
// from a YAML file (spec §6.3's wire-level constants are derived from it),
// the way doismellburning-samoyed's deviceid.go loads tocalls.yaml:
// os.ReadFile + yaml.Unmarshal into a plain Go struct tree.
package config

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"gopkg.in/yaml.v3"

	"github.com/kidd971/wps/mac"
	"github.com/kidd971/wps/phy"
)

// ConnectionSpec is one connection entry in the YAML schedule file.
type ConnectionSpec struct {
	// ID is an opaque label for logs/metrics; left empty, one is minted
	// with xid so every connection is identifiable without the caller
	// having to invent names.
	ID          string `yaml:"id,omitempty"`
	Source      uint16 `yaml:"source"`
	Destination uint16 `yaml:"destination"`
	PayloadSize uint8  `yaml:"payload_size"`
	TxQueueSize int    `yaml:"tx_queue_size"`
	RxQueueSize int    `yaml:"rx_queue_size"`
	Priority    uint8  `yaml:"priority"`

	AckEnable bool `yaml:"ack_enable"`

	SawArqEnable     bool   `yaml:"saw_arq_enable"`
	SawArqTTLTicks   uint16 `yaml:"saw_arq_ttl_ticks"`
	SawArqTTLRetries uint16 `yaml:"saw_arq_ttl_retries"`

	FallbackThresholds []uint8 `yaml:"fallback_thresholds,omitempty"`

	CreditFlowEnable bool  `yaml:"credit_flow_enable"`
	InitialCredits   uint8 `yaml:"initial_credits"`

	ThrottleRatio int `yaml:"throttle_ratio,omitempty"`

	FragmentationEnable bool `yaml:"fragmentation_enable"`

	// TimeslotIndex selects which TimeslotSpec this connection belongs to.
	TimeslotIndex int `yaml:"timeslot_index"`
	// Auto marks this connection as the timeslot's auto-reply connection
	// rather than a main connection.
	Auto bool `yaml:"auto"`

	// CCAEnable turns on clear-channel assessment ahead of this
	// connection's transmissions (spec §6.2's enable_cca).
	CCAEnable         bool   `yaml:"cca_enable"`
	CCAThreshold      uint8  `yaml:"cca_threshold,omitempty"`
	CCARetryTimeTicks uint16 `yaml:"cca_retry_time_ticks,omitempty"`
	CCAMaxTryCount    uint8  `yaml:"cca_max_try_count,omitempty"`
	CCAOnTimeTicks    uint16 `yaml:"cca_on_time_ticks,omitempty"`
	// CCAFailAction is "wait" (default) or "tx_anyway".
	CCAFailAction string `yaml:"cca_fail_action,omitempty"`
}

// ccaFailAction parses CCAFailAction's yaml string, defaulting to
// phy.CCAFailWait for an empty or unrecognized value.
func (c ConnectionSpec) ccaFailAction() phy.CCAFailAction {
	if c.CCAFailAction == "tx_anyway" {
		return phy.CCAFailTXAnyway
	}
	return phy.CCAFailWait
}

// TimeslotSpec is one entry of the fixed schedule.
type TimeslotSpec struct {
	DurationPLLCycles uint32 `yaml:"duration_pll_cycles"`
}

// ScheduleSpec is the top-level YAML document: the fixed timeslot table
// plus every connection that rides on it, and the channel-hopping sequence
// shared by the whole node (spec §4.3.1, §4.5.2).
type ScheduleSpec struct {
	LocalAddress    uint16   `yaml:"local_address"`
	Role            string   `yaml:"role"` // "coordinator" or "node"
	SyncingAddress  uint16   `yaml:"syncing_address,omitempty"`
	ChannelSequence []uint8  `yaml:"channel_sequence"`
	RandomizeChannelSequence bool `yaml:"randomize_channel_sequence"`
	ChannelSequenceSeed      int64 `yaml:"channel_sequence_seed"`

	Timeslots   []TimeslotSpec   `yaml:"timeslots"`
	Connections []ConnectionSpec `yaml:"connections"`
}

// Load reads and parses a schedule file at path.
func Load(path string) (*ScheduleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var spec ScheduleSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	for i := range spec.Connections {
		if spec.Connections[i].ID == "" {
			spec.Connections[i].ID = xid.New().String()
		}
	}
	return &spec, nil
}

// NodeRole parses the Role string ("coordinator"/"node") into a
// mac.NodeRole, defaulting to NetworkNode for any unrecognized or empty
// value.
func (s *ScheduleSpec) NodeRole() mac.NodeRole {
	if s.Role == "coordinator" {
		return mac.NetworkCoordinator
	}
	return mac.NetworkNode
}

// throttlePattern expands a ratio r (out of patternThrottleGranularity) into
// the explicit bool pattern Connection.SetThrottlePattern expects: the
// first r slots of every 20 enabled, the rest disabled (spec §4.5.3). A
// ratio of 0 means no throttling (nil pattern).
func throttlePattern(ratio int) []bool {
	const granularity = 20
	if ratio <= 0 {
		return nil
	}
	if ratio > granularity {
		ratio = granularity
	}
	pattern := make([]bool, granularity)
	for i := 0; i < ratio; i++ {
		pattern[i] = true
	}
	return pattern
}

// BuildTimeslots constructs the mac.Timeslot table described by s,
// attaching every connection built from s.Connections to its configured
// timeslot. It returns the timeslots in schedule order and a lookup from
// connection ID to the built mac.Connection, ready to hand to wps.New /
// wps.Device.CreateConnection's caller.
func (s *ScheduleSpec) BuildTimeslots() ([]*mac.Timeslot, map[string]*mac.Connection, error) {
	timeslots := make([]*mac.Timeslot, len(s.Timeslots))
	for i, ts := range s.Timeslots {
		t := mac.NewTimeslot()
		t.DurationPLLCycles = ts.DurationPLLCycles
		timeslots[i] = t
	}

	built := make(map[string]*mac.Connection, len(s.Connections))
	for _, cs := range s.Connections {
		if cs.TimeslotIndex < 0 || cs.TimeslotIndex >= len(timeslots) {
			return nil, nil, fmt.Errorf("config: connection %s references out-of-range timeslot_index %d", cs.ID, cs.TimeslotIndex)
		}

		conn := mac.NewConnection(cs.Source, cs.Destination, cs.TxQueueSize, cs.RxQueueSize)
		conn.PayloadSize = cs.PayloadSize
		conn.Priority = cs.Priority

		if cs.AckEnable {
			conn.EnableAck()
		}
		if cs.SawArqEnable {
			if !conn.EnableSawArq(cs.SawArqTTLTicks, cs.SawArqTTLRetries) {
				return nil, nil, fmt.Errorf("config: connection %s requests saw_arq without ack_enable", cs.ID)
			}
		}
		if len(cs.FallbackThresholds) > 0 {
			conn.EnableFallback(cs.FallbackThresholds)
		}
		if cs.CreditFlowEnable {
			conn.EnableCreditFlowCtrl(cs.InitialCredits)
		}
		if pattern := throttlePattern(cs.ThrottleRatio); pattern != nil {
			conn.SetThrottlePattern(pattern)
		}
		if cs.FragmentationEnable {
			conn.EnableFragmentation(int(cs.PayloadSize))
		}
		if cs.CCAEnable {
			conn.EnableCCA(mac.CCASettings{
				Threshold:      cs.CCAThreshold,
				RetryTimeTicks: cs.CCARetryTimeTicks,
				MaxTryCount:    cs.CCAMaxTryCount,
				OnTimeTicks:    cs.CCAOnTimeTicks,
				FailAction:     cs.ccaFailAction(),
			})
		}

		slot := timeslots[cs.TimeslotIndex]
		var connectionID int
		if cs.Auto {
			connectionID = len(slot.AutoConnections)
			slot.AddAutoConnection(conn, cs.Priority)
		} else {
			connectionID = len(slot.MainConnections)
			slot.AddMainConnection(conn, cs.Priority)
		}
		// No MAC/RDO instance exists at config-load time (this function
		// builds the connection table ahead of wps.New); the RDO header
		// field is installed with a nil offset source and stays absent
		// from the wire layout until a real Device wires RDO separately.
		conn.InstallHeaderProtocol(uint8(cs.TimeslotIndex), uint8(connectionID), nil)
		built[cs.ID] = conn
	}

	return timeslots, built, nil
}
