// Package wps is the top-level facade gluing the HAL, PHY state machine and
// MAC scheduler into the application-facing lifecycle and connection API
// spec §6.2 describes. Modeled on michcald-nrf24's nrf24.go Device pattern:
// a mutex-guarded struct built by a constructor that validates and defaults
// a config struct, plus Close-style lifecycle methods.
package wps

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kidd971/wps/hal"
	"github.com/kidd971/wps/link"
	"github.com/kidd971/wps/mac"
	"github.com/kidd971/wps/phy"
	"github.com/kidd971/wps/wpslog"
	"github.com/kidd971/wps/xlayer"
)

// ErrAlreadyDisconnected is returned by Disconnect when the device isn't
// currently connected.
var ErrAlreadyDisconnected = errors.New("wps: already disconnected")

// Config bundles the fixed construction-time parameters for one Device.
type Config struct {
	// LocalAddress is this node's hardware address.
	LocalAddress uint16
	// Role selects coordinator vs network-node sync behavior (spec §4.5.5).
	Role mac.NodeRole
	// SyncingAddress is the peer address a network node synchronizes to.
	// Ignored for a coordinator.
	SyncingAddress uint16

	// ChannelSequence is the ordered list of channel indices this node
	// hops across (spec §6.3).
	ChannelSequence []uint8
	// RandomizeChannelSequence enables the Fisher-Yates-shuffled lookup
	// table (spec §4.3.1).
	RandomizeChannelSequence bool
	// ChannelSequenceSeed seeds the randomized permutation.
	ChannelSequenceSeed int64

	// Timeslots is the fixed TDMA schedule.
	Timeslots []*mac.Timeslot

	// FreePoolSize is the number of xlayer nodes preallocated in the pool
	// shared by outgoing (Send) and received frames.
	FreePoolSize int

	// GetTick returns the current tick count (spec §4.3.2's currentTime).
	GetTick func() uint64

	// SyncCorroborationsNeeded, FrameLostMaxDurationTicks and
	// DriftClampTicks configure a network node's TDMASync (spec §4.5.5).
	// Unused for a coordinator.
	SyncCorroborationsNeeded int
	FrameLostMaxDurationTicks uint32
	DriftClampTicks           int32

	// RDOEnable turns on the random datarate offset (spec §4.3.4); RDO
	// state is always built so a connection's LinkProtocol always has an
	// RDO field to install; the offset counter advances either way, but
	// GetOffset reports 0 (no effect on sleep time) until RDO is enabled.
	RDOEnable             bool
	RDORolloverPLLCycles  uint16
	RDOIncrementStepTicks uint16

	// DDCMEnable turns on the distributed desync concurrency mechanism
	// (spec §4.5.1, GLOSSARY), meaningful for a coordinator only.
	DDCMEnable         bool
	DDCMMaxOffsetTicks uint16

	// Logger receives structured lifecycle/error messages. If nil, New
	// leaves the wpslog global logger as it is (on host builds, the
	// timestamped std logger installed at init; see wpslog.Set).
	Logger wpslog.Logger
}

func (c *Config) applyDefaults() error {
	if c.LocalAddress == 0 {
		return fmt.Errorf("wps: LocalAddress must be non-zero")
	}
	if len(c.ChannelSequence) == 0 {
		return fmt.Errorf("wps: ChannelSequence must not be empty")
	}
	if len(c.Timeslots) == 0 {
		return fmt.Errorf("wps: Timeslots must not be empty")
	}
	if c.FreePoolSize == 0 {
		c.FreePoolSize = 16
	}
	if c.GetTick == nil {
		c.GetTick = func() uint64 { return 0 }
	}
	if c.Role == mac.NetworkNode && c.SyncCorroborationsNeeded == 0 {
		c.SyncCorroborationsNeeded = 3
	}
	return nil
}

// connectState tracks whether Connect has been called, mirroring
// wps_init/wps_connect/wps_disconnect's sequencing contract (spec §6.2).
type connectState uint8

const (
	stateNotInit connectState = iota
	stateDisconnected
	stateConnected
)

// Device is one radio node's complete protocol stack instance: HAL radio,
// PHY state machine, MAC scheduler, and the connection table the
// application drives through the Connection* API (wps/connection_api.go).
type Device struct {
	mu sync.Mutex

	config Config

	radio *hal.Radio
	phy   *phy.PHY
	mac   *mac.MAC

	connections map[uint16]*mac.Connection

	state connectState
}

// New builds a Device bound to the given radio facade. cfg is validated
// and defaulted the way NewWithHardware defaults HardwareConfig.
func New(radio *hal.Radio, cfg Config) (*Device, error) {
	if radio == nil {
		return nil, fmt.Errorf("wps: radio must not be nil")
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		wpslog.Set(cfg.Logger)
	}

	hopping := link.NewChannelHopping(cfg.ChannelSequence, cfg.RandomizeChannelSequence, cfg.ChannelSequenceSeed)
	scheduler := mac.NewScheduler(cfg.Timeslots, hopping)
	freePool := xlayer.InitPool(cfg.FreePoolSize)

	p := phy.New(radio, cfg.LocalAddress)

	var sync *mac.TDMASync
	if cfg.Role == mac.NetworkNode {
		sync = mac.NewTDMASync(cfg.SyncCorroborationsNeeded, cfg.FrameLostMaxDurationTicks, cfg.DriftClampTicks)
	}

	rdo := link.NewRDO(cfg.RDORolloverPLLCycles, cfg.RDOIncrementStepTicks)
	if cfg.RDOEnable {
		rdo.Enable()
	}

	var ddcm *link.DDCM
	if cfg.DDCMEnable {
		ddcm = link.NewDDCM(cfg.DDCMMaxOffsetTicks)
		ddcm.Enable()
	}

	macCfg := mac.Config{
		LocalAddress:   cfg.LocalAddress,
		Role:           cfg.Role,
		SyncingAddress: cfg.SyncingAddress,
		GetTick:        cfg.GetTick,
		Sync:           sync,
		RDO:            rdo,
		DDCM:           ddcm,
	}

	d := &Device{
		config:      cfg,
		radio:       radio,
		phy:         p,
		mac:         mac.New(p, scheduler, freePool, macCfg),
		connections: make(map[uint16]*mac.Connection),
		state:       stateNotInit,
	}
	return d, nil
}

// Connect brings the radio up and starts the schedule (spec §6.2's
// connect(); wps_phy_connect plus the MAC's first process_next_timeslot).
func (d *Device) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateConnected {
		return nil
	}
	d.phy.Connect()
	d.mac.ProcessNextTimeslot()
	d.state = stateConnected
	wpslog.Info("wps: connected")
	return nil
}

// Disconnect requests a cooperative shutdown: the request takes effect at
// the next PHY boundary (spec §4.5.10); the caller polls ProcessCallback
// for the resulting disconnect event.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateConnected {
		return ErrAlreadyDisconnected
	}
	d.mac.PostDisconnect()
	d.state = stateDisconnected
	wpslog.Info("wps: disconnect requested")
	return nil
}

// Reset marks every configured connection as currently enabled again,
// keeping the connections themselves. ARQ sequence bits, throttle pattern
// indices and queued frames are left as they are.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.connections {
		c.CurrentlyEnabled = true
	}
	wpslog.Info("wps: reset")
}

// Halt suspends schedule advancement; RadioIRQ/TransferComplete become
// no-ops until Resume is called (spec §6.2).
func (d *Device) Halt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = stateDisconnected
}

// Resume re-arms schedule advancement after Halt.
func (d *Device) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateDisconnected {
		d.state = stateConnected
	}
}

// RadioIRQ is the P_HI entry point the hardware interrupt line calls into.
func (d *Device) RadioIRQ() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateConnected {
		return
	}
	d.phy.Process(phy.SignalRadioIRQ)
	d.mac.PhyCallback()
	d.mac.ProcessNextTimeslot()
}

// TransferComplete is the P_HI entry point the SPI adapter's non-blocking
// done callback calls into once a chain's transfer completes; it drives
// the PHY's chain interpreter forward without re-entering the scheduler.
func (d *Device) TransferComplete() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateConnected {
		return
	}
	d.phy.Process(phy.SignalDmaCmplt)
}

// ProcessCallback drains the deferred application callback queue (P_MID
// context, spec §6.2's process_callback()). Locked like every other entry
// point: CallbackQueue itself is lock-free by design (mac/callback.go), and
// without this lock its Enqueue (called from RadioIRQ/TransferComplete,
// which do hold d.mu) and Dequeue (this method) race on the shared size/
// head/tail state whenever a real periph.io IRQ goroutine and the
// application's poll loop run concurrently.
func (d *Device) ProcessCallback() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mac.ProcessCallback()
}
