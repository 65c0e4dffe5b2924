package mac

import (
	"github.com/kidd971/wps/phy"
	"github.com/kidd971/wps/xlayer"
)

// prepareTxMain loads PHY with the current main connection's next queued
// TX frame, or the empty-frame sentinel when its queue is empty (spec
// §4.5.6's auto-sync/suppress-TX decision), grounded on wps_mac.c's
// prepare_tx_main / prepare_frame / config_tx.
func (m *MAC) prepareTxMain(ts *Timeslot) {
	conn := m.mainConnection
	node := conn.TxQueue.Peek()

	if node == nil {
		m.mainNode = nil
		frame := m.emptyFrameFor(conn)
		m.phy.SetMainXlayer(frame, &ts.Config)
		return
	}

	m.mainNode = node
	f := &node.Frame
	m.fillHeader(conn, f)
	ts.Config.ExpectAck = conn.AckEnable
	ts.Config.CertificationHeaderEn = conn.CertificationModeEnabled
	applyCCAConfig(conn, &ts.Config)
	m.phy.SetMainXlayer(f, &ts.Config)
}

// applyCCAConfig copies a connection's clear-channel-assessment settings
// into the timeslot's phy.SlotConfig ahead of a TX prepare (spec §6.2's
// enable_cca). A connection with CCA disabled sets CCAThresholdDisabled so
// PHY skips the assessment entirely.
func applyCCAConfig(conn *Connection, cfg *phy.SlotConfig) {
	if !conn.CCAEnabled {
		cfg.CCAThresholdDisabled = true
		return
	}
	cfg.CCAThresholdDisabled = false
	cfg.CCAThreshold = conn.CCA.Threshold
	cfg.CCARetryTime = conn.CCA.RetryTimeTicks
	cfg.CCAMaxTryCount = conn.CCA.MaxTryCount
	cfg.CCAOnTime = conn.CCA.OnTimeTicks
	cfg.CCAFailAction = conn.CCA.FailAction
}

// emptyFrameFor decides which of spec §4.5.6's three sub-cases applies when
// a connection's TX queue is empty: auto-sync always sends a header-only
// frame; otherwise a credit-flow-control skip threshold can still force
// one; otherwise the timeslot transmits nothing (wake-only).
func (m *MAC) emptyFrameFor(conn *Connection) *xlayer.Frame {
	sendHeaderOnly := conn.AutoSyncEnable
	if !sendHeaderOnly && conn.CreditFlow != nil && conn.CreditFlow.MustSendEmptyFrame() {
		sendHeaderOnly = true
	}
	if !sendHeaderOnly {
		return &m.emptyFrame
	}

	m.emptyFrame = xlayer.Frame{
		HeaderMemory: make([]byte, conn.HeaderSize),
		HeaderBegin:  0,
		HeaderEnd:    int(conn.HeaderSize),
		PayloadBegin: int(conn.HeaderSize),
		PayloadEnd:   int(conn.HeaderSize),
		TimeStamp:    m.tick(),
	}
	m.fillHeader(conn, &m.emptyFrame)
	return &m.emptyFrame
}

func (m *MAC) tick() uint64 {
	if m.getTick == nil {
		return 0
	}
	return m.getTick()
}

// prepareRxMain configures PHY to receive the main frame this timeslot
// (wps_mac.c's prepare_rx_main / config_rx).
func (m *MAC) prepareRxMain(ts *Timeslot) {
	conn := m.mainConnection
	node := xlayer.GetFreeNode(m.freePool)
	m.mainNode = node

	ts.Config.ExpectAck = conn.AckEnable
	ts.Config.RXTimeout = 0

	if node == nil {
		m.phy.SetMainXlayer(&m.emptyFrame, &ts.Config)
		return
	}

	node.Frame.HeaderMemory = make([]byte, int(conn.HeaderSize)+int(conn.PayloadSize))
	node.Frame.HeaderBegin = 0
	node.Frame.HeaderEnd = int(conn.HeaderSize)
	node.Frame.PayloadBegin = int(conn.HeaderSize)
	node.Frame.PayloadEnd = int(conn.HeaderSize) + int(conn.PayloadSize)
	m.phy.SetMainXlayer(&node.Frame, &ts.Config)
}

// prepareTxAuto / prepareRxAuto are the auto-reply-connection counterparts.
func (m *MAC) prepareTxAuto(ts *Timeslot) {
	conn := m.autoConnection
	node := conn.TxQueue.Peek()
	m.autoNode = node
	if node == nil {
		m.phy.SetAutoXlayer(&m.emptyFrame)
		return
	}
	m.fillAckHeader(conn, &node.Frame)
	m.phy.SetAutoXlayer(&node.Frame)
}

func (m *MAC) prepareRxAuto(ts *Timeslot) {
	conn := m.autoConnection
	node := xlayer.GetFreeNode(m.freePool)
	m.autoNode = node
	if node == nil {
		m.phy.SetAutoXlayer(&m.emptyFrame)
		return
	}
	node.Frame.HeaderMemory = make([]byte, int(conn.AckHeaderSize)+int(conn.PayloadSize))
	node.Frame.HeaderBegin = 0
	node.Frame.HeaderEnd = int(conn.AckHeaderSize)
	node.Frame.PayloadBegin = int(conn.AckHeaderSize)
	node.Frame.PayloadEnd = int(conn.AckHeaderSize) + int(conn.PayloadSize)
	m.phy.SetAutoXlayer(&node.Frame)
}

// fillHeader packs a connection's main-protocol header into f, using the
// fixed certification pattern instead when certification mode is enabled
// (spec §4.5.4, §4.5.9; wps_mac.c's fill_header).
func (m *MAC) fillHeader(conn *Connection, f *xlayer.Frame) {
	if conn.CertificationModeEnabled {
		FillCertificationHeader(f.Header())
		return
	}
	if conn.Protocol != nil {
		conn.Protocol.SendBuffer(f.Header())
	}
}

// fillAckHeader is fillHeader's counterpart for a connection's ack/auto-
// reply protocol (wps_mac.c's fill_ack_header).
func (m *MAC) fillAckHeader(conn *Connection, f *xlayer.Frame) {
	if conn.CertificationModeEnabled {
		FillCertificationHeader(f.Header())
		return
	}
	if conn.AckProtocol != nil {
		conn.AckProtocol.SendBuffer(f.Header())
	}
}
