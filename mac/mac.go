package mac

import (
	"github.com/kidd971/wps/link"
	"github.com/kidd971/wps/phy"
	"github.com/kidd971/wps/xlayer"
)

// NodeRole selects whether this MAC instance adjusts its clock to a peer
// (NetworkNode) or is the fixed time reference the rest of the network
// follows (NetworkCoordinator) — spec §4.5.5.
type NodeRole uint8

const (
	NetworkCoordinator NodeRole = iota
	NetworkNode
)

// Config bundles the fixed, rarely-changed MAC construction parameters.
type Config struct {
	LocalAddress   uint16
	Role           NodeRole
	SyncingAddress uint16
	GetTick        func() uint64

	// Sync is nil for a coordinator; a network node must supply one.
	Sync *TDMASync

	RDO *link.RDO
	// DDCM is nil to disable the distributed desync concurrency mechanism
	// (spec §4.5.1, GLOSSARY); only meaningful for a coordinator.
	DDCM *link.DDCM
}

// MAC is the scheduler/outcome-processing layer sitting between the
// application's connection table and one phy.PHY instance (spec §4.5).
// Grounded on wps_mac.c's wps_mac_t plus its phy callback/process_next_
// timeslot/outcome-processing functions.
type MAC struct {
	phy          *phy.PHY
	localAddress uint16
	role         NodeRole

	scheduler      *Scheduler
	sync           *TDMASync
	syncingAddress uint16
	rdo            *link.RDO
	ddcm           *link.DDCM

	// cs is the nestable IRQ-disable stand-in spec §4.2.1/§5 require around
	// every xlayer Queue/Arena mutation (spec §4.2.3's CriticalSection).
	cs *xlayer.CriticalSection

	getTick func() uint64

	callbackQueue CallbackQueue
	requestQueue  RequestQueue

	rxWaitTime uint32

	// emptyFrame is the sentinel frame identity used to recognize a
	// wake-only/auto-sync transmission with no application payload
	// (wps_mac.c compares against &wps_mac->empty_frame_tx by pointer).
	emptyFrame xlayer.Frame

	mainConnection *Connection
	autoConnection *Connection
	mainNode       *xlayer.Node
	autoNode       *xlayer.Node

	freePool *xlayer.Queue

	LastError Error
}

// New builds a MAC instance bound to one PHY and a fixed timeslot schedule.
func New(p *phy.PHY, scheduler *Scheduler, freePool *xlayer.Queue, cfg Config) *MAC {
	return &MAC{
		phy:            p,
		localAddress:   cfg.LocalAddress,
		role:           cfg.Role,
		scheduler:      scheduler,
		sync:           cfg.Sync,
		syncingAddress: cfg.SyncingAddress,
		rdo:            cfg.RDO,
		ddcm:           cfg.DDCM,
		cs:             xlayer.NewCriticalSection(nil, nil),
		getTick:        cfg.GetTick,
		freePool:       freePool,
	}
}

// isNetworkNode mirrors wps_mac_is_network_node.
func (m *MAC) isNetworkNode() bool { return m.role == NetworkNode }

// FreePool exposes the shared free-node pool so the application layer can
// allocate xlayer nodes for outgoing frames without reaching into MAC
// internals.
func (m *MAC) FreePool() *xlayer.Queue { return m.freePool }

// RDO exposes the random-datarate-offset instance so the connection table
// can wire its LinkProtocol's RDO field against the same offset the
// scheduler advances (spec §4.5.1/§6.3).
func (m *MAC) RDO() *link.RDO { return m.rdo }

// CriticalSection exposes the shared Queue/Arena-mutation guard so callers
// above MAC (the application-facing connection API) nest their own queue
// mutations inside the same IRQ-disable domain (spec §4.2.1/§4.2.3).
func (m *MAC) CriticalSection() *xlayer.CriticalSection { return m.cs }

func (m *MAC) enqueueCallback(fn func(arg any), arg any) {
	if fn == nil {
		return
	}
	m.callbackQueue.Enqueue(Callback{Fn: fn, Arg: arg})
}

// ProcessCallback drains the deferred callback queue (spec §6.2's
// process_callback(), P_MID context).
func (m *MAC) ProcessCallback() { m.callbackQueue.ProcessCallback() }

// ProcessNextTimeslot advances the schedule by one timeslot (respecting
// link throttle), selects the timeslot's connections, and hands PHY
// everything it needs to prepare the next TX or RX (spec §4.5.1,
// wps_mac.c's process_next_timeslot).
func (m *MAC) ProcessNextTimeslot() {
	m.cs.Enter()
	defer m.cs.Exit()

	m.scheduler.ResetSleepTime()
	incCount := m.scheduler.Advance()
	m.scheduler.ChannelHopping().Increment(int(incCount))

	ts := m.scheduler.CurrentTimeslot()
	if ts == nil {
		return
	}

	m.mainConnection, _ = ts.pickMainConnection(m.localAddress)
	m.autoConnection, _ = ts.pickAutoConnection(m.localAddress)

	if m.mainConnection == nil {
		return
	}

	ts.Config.Channel = &phy.RFChannel{Pattern: phy.CalibrationWord(m.scheduler.ChannelHopping().GetChannel())}

	if m.mainConnection.SourceAddress == m.localAddress {
		m.applyTimeslotDelay()
		m.prepareTxMain(ts)
	} else {
		m.prepareRxMain(ts)
	}

	switch {
	case m.autoConnection != nil:
		if m.autoConnection.SourceAddress == m.localAddress {
			m.prepareTxAuto(ts)
		} else {
			m.prepareRxAuto(ts)
		}
	case m.mainConnection.AckFrameEnable:
		// No dedicated auto-reply connection but the main connection still
		// expects/sends a header-only ACK frame carrying no payload; PHY's
		// own SlotConfig.ExpectAck (set in prepareTxMain/prepareRxMain)
		// drives that exchange without a distinct xlayer (wps_mac.c's
		// prepare_tx_empty_conn_auto / prepare_rx_empty_conn_auto).
		m.phy.SetAutoXlayer(nil)
	default:
		m.phy.SetAutoXlayer(nil)
	}

	m.phy.PrepareRadio()
}

// applyTimeslotDelay folds the RDO and (coordinator-only) DDCM offsets into
// the scheduler's accumulated sleep time ahead of a TX timeslot, and
// advances RDO's own rolling counter (spec §4.5.1, wps_mac.c's
// prepare_tx_main: link_rdo_get_offset/link_rdo_update_offset, then
// link_ddcm_get_offset when !wps_mac_is_network_node).
func (m *MAC) applyTimeslotDelay() {
	if m.rdo != nil {
		m.scheduler.AddSleepTime(uint32(m.rdo.GetOffset()))
		m.rdo.UpdateOffset()
	}
	if m.ddcm != nil && !m.isNetworkNode() {
		m.scheduler.AddSleepTime(uint32(m.ddcm.GetOffset()))
	}
}

// PhyCallback is the single entry point PHY calls once a timeslot's
// outcome signal is ready (spec §4.4.8's cooperative handoff into MAC,
// wps_mac_phy_callback). input is whichever of the PHY's MainSignal/
// AutoSignal just fired; the MAC reads both from the PHY instance.
func (m *MAC) PhyCallback() {
	m.cs.Enter()
	defer m.cs.Exit()

	mainSignal := m.phy.MainSignal()
	autoSignal := m.phy.AutoSignal()

	m.processMainFrameOutcome(mainSignal)
	m.processAutoFrameOutcome(autoSignal)
	m.processPendingRequest()

	for _, conn := range m.currentMainConnections() {
		if conn != nil && conn.ARQ != nil && conn.ARQ.Enabled() && !conn.ARQ.GuaranteedDelivery() {
			m.flushTimeoutFramesBeforeSending(conn)
		}
	}
}

// currentMainConnections exposes the active timeslot's main-connection set
// for the post-outcome ARQ-timeout sweep (spec §4.5.7's closing paragraph).
func (m *MAC) currentMainConnections() []*Connection {
	ts := m.scheduler.CurrentTimeslot()
	if ts == nil {
		return nil
	}
	return ts.MainConnections
}
