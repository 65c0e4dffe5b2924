package mac

import (
	"github.com/kidd971/wps/phy"
	"github.com/kidd971/wps/wpslog"
	"github.com/kidd971/wps/xlayer"
)

// processMainFrameOutcome dispatches the main connection's outcome signal
// to the TX or RX handling path and feeds sync maintenance on RX (spec
// §4.5.7, wps_mac.c's process_main_frame_outcome).
func (m *MAC) processMainFrameOutcome(signal phy.OutputSignal) {
	switch signal {
	case phy.OutFrameSentAck, phy.OutFrameSentNack:
		if m.mainNode == nil {
			m.processTxMainEmpty()
		} else {
			m.processTxMain()
		}
	case phy.OutFrameReceived, phy.OutFrameMissed:
		m.updateSync(signal)
		m.processRxMain(signal)
	case phy.OutError:
		wpslog.Error("phy reported a critical error")
		m.LastError = ErrPhyCritical
	default:
	}
}

// processAutoFrameOutcome is the auto-reply-connection counterpart,
// wps_mac.c's process_auto_frame_outcome.
func (m *MAC) processAutoFrameOutcome(signal phy.OutputSignal) {
	if m.autoConnection == nil {
		return
	}
	switch signal {
	case phy.OutFrameSentAck, phy.OutFrameSentNack, phy.OutFrameNotSent:
		if m.autoNode == nil {
			m.processTxAutoEmpty()
		} else {
			m.processTxAuto()
		}
	case phy.OutFrameReceived, phy.OutFrameMissed:
		m.processRxAuto(signal)
	default:
	}
}

// updateSync runs the TDMA sync state machine on this node's behalf after
// a main-connection RX outcome (spec §4.5.5, wps_mac.c's update_sync). A
// coordinator (sync == nil) never adjusts its own clock.
func (m *MAC) updateSync(signal phy.OutputSignal) {
	if m.ddcm != nil {
		m.ddcm.PLLCyclesUpdate(m.tick())
	}
	if m.sync == nil || !m.isNetworkNode() {
		return
	}
	outcome := outcomeFromRxSignal(signal)

	if !m.sync.IsSlaveSynced() {
		m.sync.SlaveFind(outcome)
		return
	}
	if m.mainConnection != nil && m.mainConnection.SourceAddress == m.syncingAddress {
		drift := m.measuredDrift()
		adjustment := m.sync.SlaveAdjust(outcome, drift, m.rxWaitTime)
		m.scheduler.AddSleepTime(uint32(adjustment))
	}
}

// measuredDrift is a placeholder for the radio-reported receive timestamp
// minus the expected preamble position (spec §4.5.5); ports that wire a
// concrete timestamp source should override this via a field, not inline
// math against a signal enum that carries none.
func (m *MAC) measuredDrift() int32 { return 0 }

func outcomeFromRxSignal(signal phy.OutputSignal) xlayer.FrameOutcome {
	if signal == phy.OutFrameReceived {
		return xlayer.OutcomeReceived
	}
	return xlayer.OutcomeLost
}

// processRxMain extracts and routes a received main frame: duplicate
// frames (by ARQ sequence bit) are dropped and counted; otherwise the node
// is handed to the connection's RX queue and rx_success_callback fires
// (spec §4.5.7, wps_mac.c's process_rx_main).
func (m *MAC) processRxMain(signal phy.OutputSignal) {
	conn := m.mainConnection
	node := m.mainNode

	if conn == nil {
		return
	}

	if node == nil {
		wpslog.Warn("rx overrun: free pool exhausted")
		m.enqueueCallback(conn.EventCallback, conn.EventArg)
		m.LastError = ErrRxOverrun
		return
	}

	if signal != phy.OutFrameReceived {
		xlayer.FreeNode(node)
		m.mainNode = nil
		return
	}

	node.Frame.FrameOutcome = xlayer.OutcomeReceived
	m.extractHeaderMain(&node.Frame)

	if conn.ARQ != nil && conn.ARQ.Enabled() {
		conn.ARQ.OnFrameReceived(m.rxSequenceBit(conn))
		if conn.ARQ.IsRxFrameDuplicate() {
			xlayer.FreeNode(node)
			m.mainNode = nil
			return
		}
	}

	m.deliverRx(conn, node)
}

// rxSequenceBit reports the ARQ sequence bit the just-received frame
// carried, extracted by extractHeaderMain's call to conn.Protocol.
// ReceiveBuffer ahead of this check. A connection with no installed
// LinkProtocol (no header wired) always reports false.
func (m *MAC) rxSequenceBit(conn *Connection) bool {
	if conn.Protocol == nil {
		return false
	}
	return conn.receivedSeqBit
}

// deliverRx hands a received frame's payload to the application RX queue,
// reassembling it first when the connection has fragmentation enabled
// (spec §12): a fragment that doesn't yet complete a transaction is
// absorbed here with no RxSuccessCallback fired.
func (m *MAC) deliverRx(conn *Connection, node *xlayer.Node) {
	if conn.Frag == nil {
		m.enqueueRx(conn, node)
		return
	}

	payload, done, err := conn.Frag.Reassemble(node.Frame.Payload())
	conn.LQI.OnRxReceived(node.Frame.PayloadSize())
	xlayer.FreeNode(node)
	if err != nil {
		wpslog.Warn("fragment reassembly out of sequence")
		conn.Frag.Reset()
		m.LastError = ErrFragmentError
		return
	}
	if !done {
		return
	}

	out := xlayer.GetFreeNode(m.freePool)
	if out == nil {
		wpslog.Warn("rx overrun: free pool exhausted reassembling fragment")
		m.LastError = ErrRxOverrun
		return
	}
	out.Frame.UserPayload = true
	out.Frame.UserPayloadBuf = payload
	if !conn.RxQueue.Enqueue(out) {
		wpslog.Warn("rx overrun: connection rx queue full")
		xlayer.FreeNode(out)
		m.LastError = ErrRxOverrun
		conn.LQI.OnRxOverrun()
		return
	}
	m.enqueueCallback(conn.RxSuccessCallback, conn.RxSuccessArg)
}

// enqueueRx hands a non-fragmented frame straight to the application RX
// queue.
func (m *MAC) enqueueRx(conn *Connection, node *xlayer.Node) {
	conn.LQI.OnRxReceived(node.Frame.PayloadSize())
	if !conn.RxQueue.Enqueue(node) {
		wpslog.Warn("rx overrun: connection rx queue full")
		xlayer.FreeNode(node)
		m.LastError = ErrRxOverrun
		conn.LQI.OnRxOverrun()
		return
	}
	m.enqueueCallback(conn.RxSuccessCallback, conn.RxSuccessArg)
}

// processRxAuto is processRxMain's auto-reply-connection counterpart.
func (m *MAC) processRxAuto(signal phy.OutputSignal) {
	conn := m.autoConnection
	node := m.autoNode
	if conn == nil || node == nil {
		return
	}
	if signal != phy.OutFrameReceived {
		xlayer.FreeNode(node)
		m.autoNode = nil
		return
	}
	node.Frame.FrameOutcome = xlayer.OutcomeReceived
	m.extractHeaderAuto(&node.Frame)
	m.deliverRx(conn, node)
}

// processTxMain handles the outcome of a non-empty main TX frame: success
// advances ARQ's sequence bit and retires the frame; a lost/rejected
// acknowledgement fires tx_fail_callback and, with ARQ enabled, leaves the
// frame queued for a retry (flushTimeoutFramesBeforeSending drops it with
// tx_drop_callback once ARQ times it out); without ARQ the frame is retired
// (spec §4.5.7's outcome table).
func (m *MAC) processTxMain() {
	conn := m.mainConnection
	node := m.mainNode
	if conn == nil || node == nil {
		return
	}

	switch node.Frame.FrameOutcome {
	case xlayer.OutcomeSentAck:
		conn.LQI.OnTxSuccess(node.Frame.PayloadSize())
		if conn.ARQ != nil && conn.ARQ.Enabled() {
			conn.ARQ.IncSeqNum()
		}
		if conn.CreditFlow != nil {
			conn.CreditFlow.OnAckReceived()
		}
		m.enqueueCallback(conn.TxSuccessCallback, conn.TxSuccessArg)
		m.sendDone(conn)

	case xlayer.OutcomeWait:
		conn.LQI.OnCCAFail()
		m.enqueueCallback(conn.TxFailCallback, conn.TxFailArg)

	case xlayer.OutcomeSentAckLost, xlayer.OutcomeSentAckRejected:
		conn.LQI.OnTxFail()
		m.enqueueCallback(conn.TxFailCallback, conn.TxFailArg)
		if conn.ARQ == nil || !conn.ARQ.Enabled() {
			m.sendDone(conn)
		}

	default:
	}
	m.mainNode = nil
}

// processTxMainEmpty handles the outcome of an auto-sync or wake-only
// empty-frame transmission: there is no application queue entry to retire,
// only statistics to update (wps_mac.c's process_tx_main_empty).
func (m *MAC) processTxMainEmpty() {
	conn := m.mainConnection
	if conn == nil {
		return
	}
	switch m.emptyFrame.FrameOutcome {
	case xlayer.OutcomeSentAck:
		conn.LQI.OnTxSuccess(0)
	case xlayer.OutcomeWait:
		conn.LQI.OnCCAFail()
	default:
		conn.LQI.OnTxFail()
	}
}

// processTxAuto / processTxAutoEmpty mirror processTxMain /
// processTxMainEmpty for the auto-reply connection.
func (m *MAC) processTxAuto() {
	conn := m.autoConnection
	node := m.autoNode
	if conn == nil || node == nil {
		return
	}
	switch node.Frame.FrameOutcome {
	case xlayer.OutcomeSentAck:
		conn.LQI.OnTxSuccess(node.Frame.PayloadSize())
		m.enqueueCallback(conn.TxSuccessCallback, conn.TxSuccessArg)
		m.sendDone(conn)
	default:
		conn.LQI.OnTxFail()
		m.enqueueCallback(conn.TxFailCallback, conn.TxFailArg)
	}
	m.autoNode = nil
}

func (m *MAC) processTxAutoEmpty() {
	if m.autoConnection != nil {
		m.autoConnection.LQI.OnTxFail()
	}
}

// extractHeaderMain unpacks a received main frame's header via the
// connection's LinkProtocol, consuming the radio's leading automatic size
// byte first (spec §4.5.4).
func (m *MAC) extractHeaderMain(f *xlayer.Frame) {
	conn := m.mainConnection
	if conn == nil || conn.Protocol == nil {
		return
	}
	hdr := f.Header()
	if len(hdr) > int(conn.HeaderSize) {
		hdr = hdr[len(hdr)-int(conn.HeaderSize):]
	}
	conn.Protocol.ReceiveBuffer(hdr)
}

// extractHeaderAuto is extractHeaderMain's ack-protocol counterpart.
func (m *MAC) extractHeaderAuto(f *xlayer.Frame) {
	conn := m.autoConnection
	if conn == nil || conn.AckProtocol == nil {
		return
	}
	hdr := f.Header()
	if len(hdr) > int(conn.AckHeaderSize) {
		hdr = hdr[len(hdr)-int(conn.AckHeaderSize):]
	}
	conn.AckProtocol.ReceiveBuffer(hdr)
}

// sendDone retires the head of a connection's TX queue once its outcome is
// final: the node returns to the free pool (wps_mac.c's send_done).
func (m *MAC) sendDone(conn *Connection) {
	node := conn.TxQueue.Dequeue()
	xlayer.FreeNode(node)
}

// flushTimeoutFramesBeforeSending drops every ARQ-timed-out frame at the
// head of conn's TX queue before the next timeslot can pick it back up,
// firing tx_drop_callback for each (spec §4.5.7's closing paragraph,
// wps_mac.c's flush_timeout_frames_before_sending).
func (m *MAC) flushTimeoutFramesBeforeSending(conn *Connection) {
	for {
		node := conn.TxQueue.Peek()
		if node == nil {
			return
		}
		node.Frame.RetryCount++
		if !conn.ARQ.IsFrameTimeout(node.Frame.TimeStamp, node.Frame.RetryCount, m.tick()) {
			return
		}
		m.enqueueCallback(conn.TxDropCallback, conn.TxDropArg)
		conn.LQI.OnTxDrop()
		m.sendDone(conn)
	}
}

// flushTxFrame unconditionally drops the head of conn's TX queue, firing
// tx_drop_callback (wps_mac.c's flush_tx_frame). Nothing in this package
// calls it at present.
func (m *MAC) flushTxFrame(conn *Connection) {
	node := conn.TxQueue.Peek()
	if node == nil {
		return
	}
	m.enqueueCallback(conn.TxDropCallback, conn.TxDropArg)
	conn.LQI.OnTxDrop()
	m.sendDone(conn)
}
