package mac

import (
	"github.com/kidd971/wps/link"
	"github.com/kidd971/wps/phy"
	"github.com/kidd971/wps/xlayer"
)

// patternThrottleGranularity is the denominator of a connection's throttle
// ratio r/20 (spec §4.5.3's WPS_PATTERN_THROTTLE_GRANULARITY).
const patternThrottleGranularity = 20

// Connection mirrors wps_connection_t: one logical traffic flow between a
// source and destination address, carrying its own link-layer algorithm
// instances (ARQ, CCA threshold via Fallback, credit flow control,
// channel-hop independent connect-status hysteresis) plus its TX/RX queues.
type Connection struct {
	SourceAddress      uint16
	DestinationAddress uint16

	PayloadSize  uint8
	HeaderSize   uint8
	AckHeaderSize uint8

	AckEnable      bool
	AckFrameEnable bool
	AutoSyncEnable bool

	Protocol    *LinkProtocol
	AckProtocol *LinkProtocol

	// TimeslotID/ConnectionID/RangingMarker are the values this connection's
	// LinkProtocol sends on every frame (spec §4.5.4); received*
	// counterparts are where the matching RX fields land once
	// InstallHeaderProtocol wires them.
	TimeslotID    uint8
	ConnectionID  uint8
	RangingMarker uint8

	receivedTimeslotID    uint8
	receivedConnectionID  uint8
	receivedRangingMarker uint8
	receivedSeqBit        bool

	ARQ        *link.ARQ
	Fallback   *link.Fallback
	CreditFlow *link.CreditFlowControl
	Connect    *link.ConnectStatus
	LQI        link.LQI
	Phase      *link.PhaseInfo

	Priority uint8

	CertificationModeEnabled bool

	// CCAEnabled/CCA hold this connection's clear-channel-assessment
	// configuration (spec §6.2's enable_cca); applyCCAConfig copies them
	// into the timeslot's phy.SlotConfig before every TX prepare.
	CCAEnabled bool
	CCA        CCASettings

	// Pattern is the link-throttle schedule: nil disables throttling
	// (always enabled). CurrentlyEnabled and patternIndex are per-timeslot
	// mutable state updated by the scheduler (spec §4.5.3).
	Pattern          []bool
	patternIndex     int
	CurrentlyEnabled bool

	TxQueue *xlayer.Queue
	RxQueue *xlayer.Queue

	GetTick func() uint64

	EventCallback     func(arg any)
	EventArg          any
	TxSuccessCallback func(arg any)
	TxSuccessArg      any
	TxFailCallback    func(arg any)
	TxFailArg         any
	TxDropCallback    func(arg any)
	TxDropArg         any
	RxSuccessCallback func(arg any)
	RxSuccessArg      any

	// Frag is non-nil when fragmentation is enabled on this connection
	// (spec §12); Split/Reassemble run above the xlayer queues.
	Frag *link.Fragmenter
}

// NewConnection builds a connection with its queues sized txQueueSize /
// rxQueueSize and every optional feature disabled; callers enable features
// with the Enable* methods, mirroring wps_connection_init plus the
// wps_connection_config_* feature toggles (spec §6.2).
func NewConnection(source, destination uint16, txQueueSize, rxQueueSize int) *Connection {
	return &Connection{
		SourceAddress:      source,
		DestinationAddress: destination,
		TxQueue:            xlayer.InitQueue(txQueueSize),
		RxQueue:            xlayer.InitQueue(rxQueueSize),
		CurrentlyEnabled:   true,
	}
}

// EnableAck turns on link-level acknowledgement of main frames.
func (c *Connection) EnableAck() { c.AckEnable = true }

// EnableSawArq enables Stop-and-Wait ARQ. Per spec §7's AckDisabled error,
// callers must EnableAck first; ok reports whether the precondition held.
func (c *Connection) EnableSawArq(ttlTick, ttlRetries uint16) (ok bool) {
	if !c.AckEnable {
		return false
	}
	c.ARQ = link.NewARQ(ttlTick, ttlRetries, false, true)
	return true
}

// EnableFallback attaches a payload-size-indexed datarate fallback table.
func (c *Connection) EnableFallback(thresholds []uint8) {
	c.Fallback = link.NewFallback(thresholds)
}

// EnableCreditFlowCtrl attaches credit-based flow control.
func (c *Connection) EnableCreditFlowCtrl(initCredits uint8) {
	c.CreditFlow = link.NewCreditFlowControl(true, initCredits)
}

// EnablePhasesAcquisition attaches ranging phase-sample storage.
func (c *Connection) EnablePhasesAcquisition(buf []uint8, maxSamples int) {
	c.Phase = link.NewPhaseInfo(buf, maxSamples)
}

// EnableConnectStatus attaches connect/disconnect hysteresis tracking.
func (c *Connection) EnableConnectStatus(onTransition func(link.ConnectState)) {
	c.Connect = link.NewConnectStatus(onTransition)
}

// EnableFragmentation attaches a fragmenter sized to this connection's
// per-frame payload budget (spec §12).
func (c *Connection) EnableFragmentation(payloadSize int) {
	c.Frag = link.NewFragmenter(payloadSize)
}

// CCASettings mirrors phy.SlotConfig's clear-channel-assessment knobs at
// the connection level, grounded on phy.SlotConfig's CCA* fields.
type CCASettings struct {
	Threshold      uint8
	RetryTimeTicks uint16
	MaxTryCount    uint8
	OnTimeTicks    uint16
	FailAction     phy.CCAFailAction
}

// EnableCCA turns on clear-channel assessment before this connection
// transmits (spec §6.2's enable_cca(threshold, retry_time, max_try,
// fail_action, on_time)).
func (c *Connection) EnableCCA(settings CCASettings) {
	c.CCAEnabled = true
	c.CCA = settings
}

// InstallHeaderProtocol builds this connection's main and ack LinkProtocols
// from its installed timeslot/connection identifiers and sets HeaderSize/
// AckHeaderSize from them (spec §4.5.4). rdo is nil for a node with no RDO
// instance wired (the config-only build path); when non-nil its offset
// rides the main protocol's RDO field. Must run after every Enable* call
// that can affect the header (EnableSawArq in particular, since the
// sequence-bit field reads the installed ARQ).
func (c *Connection) InstallHeaderProtocol(timeslotID, connectionID uint8, rdo *link.RDO) {
	c.TimeslotID = timeslotID
	c.ConnectionID = connectionID

	localSeqBit := func() bool {
		if c.ARQ == nil {
			return false
		}
		return c.ARQ.SeqNum()
	}

	fields := []HeaderField{
		TimeslotIDField(func() uint8 { return c.TimeslotID }, func(v uint8) { c.receivedTimeslotID = v }),
		ConnectionIDField(func() uint8 { return c.ConnectionID }, func(v uint8) { c.receivedConnectionID = v }),
	}
	if rdo != nil {
		fields = append(fields, RDOField(rdo.SendOffset, rdo.SetOffset))
	}
	fields = append(fields,
		RangingMarkerField(func() uint8 { return c.RangingMarker }, func(v uint8) { c.receivedRangingMarker = v }),
		SeqBitField(localSeqBit, func(v bool) { c.receivedSeqBit = v }),
	)
	c.Protocol = NewLinkProtocol(fields...)
	c.HeaderSize = uint8(c.Protocol.HeaderSize())

	c.AckProtocol = NewLinkProtocol(
		TimeslotIDField(func() uint8 { return c.TimeslotID }, func(v uint8) { c.receivedTimeslotID = v }),
		ConnectionIDField(func() uint8 { return c.ConnectionID }, func(v uint8) { c.receivedConnectionID = v }),
	)
	c.AckHeaderSize = uint8(c.AckProtocol.HeaderSize())
}

// SetThrottlePattern installs a link-throttle pattern of any length: the
// scheduler steps through it once per timeslot, cycling every len(pattern)
// slots, and the connection is enabled on the slots whose entry is true. A
// nil pattern disables throttling (spec §4.5.3).
func (c *Connection) SetThrottlePattern(pattern []bool) {
	c.Pattern = pattern
	c.patternIndex = 0
}

// advanceThrottle steps the pattern index and recomputes CurrentlyEnabled,
// called once per timeslot by the scheduler (wps_mac.c's handle_link_throttle).
func (c *Connection) advanceThrottle() {
	if c.Pattern == nil {
		c.CurrentlyEnabled = true
		return
	}
	c.patternIndex = (c.patternIndex + 1) % len(c.Pattern)
	c.CurrentlyEnabled = c.Pattern[c.patternIndex]
}

// TxQueueEmpty reports whether this connection has no frame pending.
func (c *Connection) TxQueueEmpty() bool {
	return c.TxQueue == nil || c.TxQueue.IsEmpty()
}
