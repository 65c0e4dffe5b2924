// Package phy implements the cross-layer PHY state machine (spec §4.4):
// a cooperative, chain-driven interpreter that prepares the radio for a
// timeslot, drives the SPI transactions, and classifies the IRQ outcome
// back into an outcome signal MAC consumes. Grounded on
// original_source/core/wireless/protocol_stack/sr1100/wps_phy_common.c,
// abstracted away from that file's SR1100 register bit layout — the HAL
// facade is the boundary below which register-level detail doesn't belong
// in this port.
package phy

import (
	"github.com/kidd971/wps/hal"
	"github.com/kidd971/wps/xlayer"
)

// InputSignal is what woke process() up.
type InputSignal uint8

const (
	SignalNone InputSignal = iota
	SignalPrepareRadio
	SignalPrepareDone
	SignalDmaCmplt
	SignalRadioIRQ
	SignalConnect
	SignalSyncing
)

// OutputSignal is what a chain reports back to MAC once it stops running
// (either by yielding mid-chain or by draining the chain queue).
type OutputSignal uint8

const (
	OutNone OutputSignal = iota
	OutPrepareDone
	OutConfigComplete
	OutFrameSentAck
	OutFrameSentNack
	OutFrameReceived
	OutFrameMissed
	OutFrameNotSent
	OutYield
	OutError
)

func (s OutputSignal) String() string {
	switch s {
	case OutPrepareDone:
		return "prepare_done"
	case OutConfigComplete:
		return "config_complete"
	case OutFrameSentAck:
		return "frame_sent_ack"
	case OutFrameSentNack:
		return "frame_sent_nack"
	case OutFrameReceived:
		return "frame_received"
	case OutFrameMissed:
		return "frame_missed"
	case OutFrameNotSent:
		return "frame_not_sent"
	case OutYield:
		return "yield"
	case OutError:
		return "error"
	default:
		return "none"
	}
}

// stateFunc is one step of a chain. It reads/writes the PHY's scratch
// state and sets signalMain (and occasionally signalAuto) before
// returning.
type stateFunc func(p *PHY)

// chain is a fixed ordered list of steps, always terminated by end.
type chain []stateFunc

// stateQueueDepth is the fixed depth of the pending-chain ring buffer
// (spec §4.4: "an internal 8-deep state queue").
const stateQueueDepth = 8

// CalibrationWord is an opaque per-channel spectral calibration value
// supplied by the caller and passed through untouched — the "delegated to
// an engineer" PHY bits spec §9 calls out. No semantics are modeled here.
type CalibrationWord uint16

// RFChannel names one hop-table entry's spectral calibration profile.
type RFChannel struct {
	Pattern CalibrationWord
}

// CCAFailAction selects what the radio does once every CCA retry fails.
type CCAFailAction uint8

const (
	CCAFailWait CCAFailAction = iota
	CCAFailTXAnyway
)

// SleepLevel is the radio's power state between timeslots.
type SleepLevel uint8

const (
	SleepIdle SleepLevel = iota
	SleepShallow
	SleepDeep
)

// SlotConfig is the per-timeslot configuration MAC hands PHY before
// calling PrepareRadio (spec §4.4.2/4.4.3's "config" fields).
type SlotConfig struct {
	ExpectAck             bool
	CertificationHeaderEn bool
	CCAFailAction         CCAFailAction
	CCAThresholdDisabled  bool
	CCAThreshold          uint8
	CCARetryTime          uint16
	CCAMaxTryCount         uint8
	CCAOnTime             uint16
	RXTimeout             uint16
	SleepLevel            SleepLevel
	NextSleepLevel        SleepLevel
	SleepTime             uint32
	PowerUpDelay          uint16
	Channel               *RFChannel
	// MultiRadioAutoWake selects the WPS_RADIO_COUNT==1 AUTOWAKE behavior
	// vs. the dual-radio manual-wakeup variant (spec §4.4.2).
	MultiRadioAutoWake bool

	// CCATryCount is written back by process_event_tx after the fact, for
	// MAC/LQI to read.
	CCATryCount uint8
}

// ReadEvents is the IRQ-flags-plus-power-status burst read from the radio
// in one SPI transaction (spec §4.4.4's "ReadEvents struct").
type ReadEvents struct {
	CCAFail     bool
	RxEnd       bool
	CRCPass     bool
	AddrMatch   bool
	Broadcast   bool
	Timeout     bool
	Wakeup      bool
	RxEnabled   bool
	TxRetries   uint8
}

func rxGood(e ReadEvents) bool      { return e.RxEnd && e.CRCPass && (e.AddrMatch || e.Broadcast) }
func rxLost(e ReadEvents) bool      { return e.Timeout && !e.RxEnd }
func rxRejected(e ReadEvents) bool  { return e.RxEnd && !e.CRCPass }
func txComplete(e ReadEvents) bool  { return e.RxEnd && !e.CCAFail }

// registerRequest is a pending single write or read issued through
// WritePhyReg/ReadPhyReg (spec §4.4.6).
type registerRequest struct {
	pending  bool
	write    bool
	register uint8
	data     uint16
	readBuf  *uint16
	readDone *bool
}

// PHY is one radio's cross-layer state machine instance.
type PHY struct {
	radio        *hal.Radio
	localAddress uint16

	currentChain chain
	step         int
	chainQueue   []chain // ring buffer, capacity stateQueueDepth

	inputSignal InputSignal
	signalMain  OutputSignal
	signalAuto  OutputSignal

	xlayerMain *xlayer.Frame
	xlayerAuto *xlayer.Frame
	config     *SlotConfig

	readEvents ReadEvents

	spiTransferPending bool
	spiTxBuf           []byte
	spiRxBuf           []byte

	writeRequest registerRequest
	readRequest  registerRequest

	// overwriteRegs holds WRITE_PERIODIC requests, keyed by register
	// address so a repeat write replaces the pending value instead of
	// growing the set (spec §4.4.6).
	overwriteRegs map[uint8]uint16

	spiCloseNeeded bool
}

// New builds PHY state bound to a radio facade. localAddress is this
// node's hardware address, used to prime RX address matching.
func New(radio *hal.Radio, localAddress uint16) *PHY {
	return &PHY{
		radio:         radio,
		localAddress:  localAddress,
		currentChain:  prepareChain,
		overwriteRegs: make(map[uint8]uint16),
	}
}

// SetMainXlayer assigns the frame driving this timeslot's primary
// transfer, plus its slot configuration.
func (p *PHY) SetMainXlayer(f *xlayer.Frame, cfg *SlotConfig) {
	p.xlayerMain = f
	p.config = cfg
}

// SetAutoXlayer assigns the auto-reply frame, or nil to disable
// auto-reply for this timeslot.
func (p *PHY) SetAutoXlayer(f *xlayer.Frame) {
	p.xlayerAuto = f
}

// MainSignal returns the output signal produced for the main frame by the
// most recent Process call.
func (p *PHY) MainSignal() OutputSignal { return p.signalMain }

// AutoSignal returns the output signal produced for the auto-reply frame.
func (p *PHY) AutoSignal() OutputSignal { return p.signalAuto }

// enqueueChain pushes a chain onto the pending-chain queue, which holds at
// most stateQueueDepth chains like the firmware's fixed-size circular
// queue; a chain enqueued while the queue is full is dropped silently.
func (p *PHY) enqueueChain(c chain) {
	if len(p.chainQueue) >= stateQueueDepth {
		return
	}
	p.chainQueue = append(p.chainQueue, c)
}

func (p *PHY) dequeueChain() (chain, bool) {
	if len(p.chainQueue) == 0 {
		return nil, false
	}
	c := p.chainQueue[0]
	p.chainQueue = p.chainQueue[1:]
	return c, true
}

// Process runs state functions from the currently scheduled chain until a
// step yields (suspends for the next same-priority IRQ) or the whole chain
// queue drains to idle. This is the single entry point radio-IRQ and
// DMA-complete contexts call into (spec §4.4.8).
func (p *PHY) Process(input InputSignal) {
	p.inputSignal = input
	p.signalMain = OutNone
	p.signalAuto = OutNone

	for {
		if p.step >= len(p.currentChain) {
			next, ok := p.dequeueChain()
			if !ok {
				p.currentChain = endChain
				p.step = 0
				return
			}
			p.currentChain = next
			p.step = 0
			continue
		}

		fn := p.currentChain[p.step]
		p.step++
		fn(p)

		if p.signalMain == OutYield {
			return
		}
	}
}

// PrepareRadio kicks off the next timeslot's prepare/config/header/payload
// chain sequence. Called by MAC once it has picked the timeslot's
// connections and loaded xlayerMain/xlayerAuto.
func (p *PHY) PrepareRadio() {
	p.currentChain = prepareChain
	p.step = 0
	p.chainQueue = p.chainQueue[:0]
}

// mainIsTX reports whether this node originates the timeslot's main
// frame (source address equals our local address).
func mainIsTX(p *PHY) bool {
	if p.xlayerMain == nil {
		return false
	}
	return p.xlayerMain.SourceAddress == p.localAddress
}
