package phy

import (
	"github.com/kidd971/wps/hal"
	"github.com/kidd971/wps/xlayer"
)

// Fixed chain table (spec §4.4.1). Each chain always ends with end, which
// pops the next chain off the queue (or goes idle).

var (
	prepareChain               = chain{prepare, end}
	setConfigChain             = chain{setConfig, closeSPI, end}
	setHeaderChain             = chain{closeSPI, setHeader, end}
	setPayloadChain            = chain{setPayload, end}
	setHeaderAndPayloadChain   = chain{closeSPI, setHeaderAndPayload, end}
	waitTXChain                = chain{closeSPI, enableRadioIRQ, readEvents, closeSPI, processEventTX, end}
	waitRXChain                = chain{closeSPI, enableRadioIRQ, readEvents, closeSPI, processEventRX, end}
	getFrameHeaderChain        = chain{closeSPI, getFrameHeader, end}
	getAutoReplyHeaderChain    = chain{closeSPI, getAutoReplyHeader, end}
	getPayloadChain            = chain{getPayload, end}
	syncingChain               = chain{readEventsSyncing, closeSPI, processEventRX, end}
	waitToSendAutoReplyChain   = chain{checkRadioIRQ, end}
	transferRegisterChain      = chain{transferRegister, end}
	overwriteRegistersChain    = chain{overwriteRegisters, end}
	endChain                   = chain{none}
)

// end pops the next pending chain. Reaching it with an empty queue is not
// an error — process() itself notices the drained queue and goes idle.
func end(p *PHY) {
	p.step = len(p.currentChain)
}

// none is the idle chain's sole step: nothing to do until the next
// PrepareRadio.
func none(p *PHY) {}

// closeSPI asserts chip-select high once the prior non-blocking transfer
// has drained; if a transfer is still in flight it rewinds its own step so
// the next IRQ re-checks, which is how the firmware avoids racing a DMA
// completion against the next register write.
func closeSPI(p *PHY) {
	if p.spiTransferPending {
		p.step--
		p.signalMain = OutYield
		return
	}
	p.spiCloseNeeded = false
}

func (p *PHY) beginTransfer(tx, rx []byte) {
	p.spiTransferPending = true
	p.spiTxBuf, p.spiRxBuf = tx, rx
	p.radio.SPI.TransferNonBlocking(tx, rx, func(err error) {
		p.spiTransferPending = false
		if err == nil {
			p.radio.RadioContextSwitch()
		}
	})
}

// prepare enqueues the config/header/payload/wait chains for the next
// timeslot, or the syncing chain when acquiring sync.
func prepare(p *PHY) {
	if p.inputSignal == SignalSyncing {
		p.enqueueChain(syncingChain)
		prepareSyncing(p)
		return
	}

	p.enqueueChain(setConfigChain)
	if len(p.overwriteRegs) != 0 {
		p.enqueueChain(overwriteRegistersChain)
	}
	prepareRadio(p)
}

// prepareRadio computes the timeslot's TX/RX programming and enqueues the
// chains that carry it out (spec §4.4.2/4.4.3).
func prepareRadio(p *PHY) {
	p.signalAuto = OutNone

	if mainIsTX(p) {
		prepareRadioTX(p)
	} else {
		prepareRadioRX(p)
	}
}

// prepareRadioTX implements spec §4.4.2.
func prepareRadioTX(p *PHY) {
	frame := p.xlayerMain
	headerSize := frame.HeaderSize()
	payloadSize := frame.PayloadSize()

	if headerSize+payloadSize == 0 && !p.config.CertificationHeaderEn {
		// Wake-only or empty-TX frame: no header/payload to transfer, go
		// straight to waiting for the radio's own IRQ.
		p.enqueueChain(waitTXChain)
		return
	}

	if frame.UserPayload {
		if headerSize+payloadSize != 0 {
			p.enqueueChain(setHeaderChain)
		}
		if payloadSize != 0 {
			p.enqueueChain(setPayloadChain)
		}
	} else {
		if headerSize+payloadSize != 0 {
			p.enqueueChain(setHeaderAndPayloadChain)
		}
	}
	p.enqueueChain(waitTXChain)
}

// prepareRadioRX implements spec §4.4.3.
func prepareRadioRX(p *PHY) {
	if p.xlayerAuto != nil {
		// Receive-with-auto-reply: preload the reply frame so it's ready
		// in the TX FIFO before RX completes.
		headerSize := p.xlayerAuto.HeaderSize()
		payloadSize := p.xlayerAuto.PayloadSize()
		if p.xlayerAuto.UserPayload {
			if headerSize+payloadSize != 0 {
				p.enqueueChain(setHeaderChain)
			}
			if payloadSize != 0 {
				p.enqueueChain(setPayloadChain)
			}
		} else if headerSize+payloadSize != 0 {
			p.enqueueChain(setHeaderAndPayloadChain)
		}
	}
	p.enqueueChain(waitRXChain)
}

// prepareSyncing programs a long idle sleep period while acquiring sync;
// the next radio IRQ drives the syncing chain's read_events_syncing step.
func prepareSyncing(p *PHY) {}

// setConfig ships the slot configuration blob over SPI non-blocking, and
// reports PrepareDone once issued (the actual completion is awaited by the
// next closeSPI).
func setConfig(p *PHY) {
	p.signalMain = OutPrepareDone
	tx := make([]byte, 1)
	rx := make([]byte, 1)
	p.beginTransfer(tx, rx)
}

// setHeader loads the frame header into the radio TX FIFO. Disables the
// radio IRQ first: an in-flight header write must not be interrupted by a
// stray IRQ from the previous timeslot.
func setHeader(p *PHY) {
	p.radio.DisableRadioIRQ()
	p.signalMain = OutYield
	frame := headerFrame(p)
	hdr := frame.Header()
	tx := make([]byte, len(hdr)+1)
	tx[0] = byte(len(hdr))
	copy(tx[1:], hdr)
	p.beginTransfer(tx, make([]byte, len(tx)))
}

// setPayload streams the frame payload into the radio TX FIFO in a
// second SPI burst, used only when the xlayer carries a user-supplied
// (non-contiguous) payload buffer.
func setPayload(p *PHY) {
	if p.inputSignal != SignalDmaCmplt {
		p.signalMain = OutError
		return
	}
	p.signalMain = OutYield
	frame := headerFrame(p)
	payload := frame.Payload()
	p.beginTransfer(payload, make([]byte, len(payload)))
}

// setHeaderAndPayload transfers header and payload in one contiguous SPI
// burst, the fast path used whenever the xlayer frame's header and
// payload share one backing buffer.
func setHeaderAndPayload(p *PHY) {
	if p.inputSignal != SignalDmaCmplt {
		p.signalMain = OutError
		return
	}
	p.radio.DisableRadioIRQ()
	p.signalMain = OutYield

	frame := headerFrame(p)
	hdr := frame.Header()
	payload := frame.Payload()
	tx := make([]byte, 1+len(hdr)+len(payload))
	tx[0] = byte(len(hdr))
	copy(tx[1:], hdr)
	copy(tx[1+len(hdr):], payload)
	p.beginTransfer(tx, make([]byte, len(tx)))
}

func headerFrame(p *PHY) *xlayer.Frame {
	if mainIsTX(p) {
		return p.xlayerMain
	}
	return p.xlayerAuto
}

// enableRadioIRQ re-arms the radio IRQ line once the prior config/header
// write has drained and reports ConfigComplete. It does not check whether
// the IRQ pin was already asserted before re-arming.
func enableRadioIRQ(p *PHY) {
	if p.inputSignal != SignalDmaCmplt {
		p.signalMain = OutError
		return
	}
	p.signalMain = OutConfigComplete
	p.radio.EnableRadioIRQ()
}

// readEvents issues the single SPI burst that reads back the IRQ flags
// and power-status byte (spec §4.4.4's ReadEvents struct).
func readEvents(p *PHY) {
	if p.inputSignal != SignalRadioIRQ {
		p.signalMain = OutError
		return
	}
	p.signalMain = OutYield
	tx := make([]byte, 4)
	rx := make([]byte, 4)
	p.beginTransfer(tx, rx)
	// The concrete ReadEvents bit layout is filled in by the owning node
	// (phy event-injection in tests, or a concrete HAL's SPI decode in a
	// real build); process_event_tx/rx then read p.readEvents.
}

func readEventsSyncing(p *PHY) {
	if p.inputSignal != SignalRadioIRQ {
		p.signalMain = OutError
		return
	}
	p.signalMain = OutYield
	tx := make([]byte, 4)
	rx := make([]byte, 4)
	p.beginTransfer(tx, rx)
}

// processEventTX classifies the just-read IRQ flags for a TX timeslot
// (spec §4.4.4).
func processEventTX(p *PHY) {
	if p.inputSignal != SignalDmaCmplt {
		p.signalMain = OutError
		return
	}
	ev := p.readEvents
	p.config.CCATryCount = ev.TxRetries

	switch {
	case ev.CCAFail:
		p.xlayerMain.FrameOutcome = xlayer.OutcomeWait
		p.signalMain = OutFrameSentNack

	case rxGood(ev) && p.xlayerAuto != nil:
		p.xlayerMain.FrameOutcome = xlayer.OutcomeSentAck
		p.xlayerAuto.FrameOutcome = xlayer.OutcomeReceived
		p.signalMain = OutFrameSentAck
		p.signalAuto = OutFrameReceived
		p.enqueueChain(getAutoReplyHeaderChain)

	case rxLost(ev):
		p.xlayerMain.FrameOutcome = xlayer.OutcomeSentAckLost
		if p.xlayerAuto != nil {
			p.xlayerAuto.FrameOutcome = xlayer.OutcomeLost
		}
		p.signalMain = OutFrameSentNack
		p.signalAuto = OutFrameMissed
		p.enqueueChain(prepareChain)

	case rxRejected(ev) && p.xlayerAuto != nil:
		p.xlayerMain.FrameOutcome = xlayer.OutcomeSentAckRejected
		p.xlayerAuto.FrameOutcome = xlayer.OutcomeRejected
		p.signalMain = OutFrameSentNack
		p.signalAuto = OutFrameMissed
		p.enqueueChain(prepareChain)

	case txComplete(ev):
		p.xlayerMain.FrameOutcome = xlayer.OutcomeSentAckLost
		if p.xlayerAuto != nil {
			p.xlayerAuto.FrameOutcome = xlayer.OutcomeLost
		}
		p.signalMain = OutFrameSentNack
		p.signalAuto = OutFrameMissed
		p.enqueueChain(prepareChain)

	case ev.Wakeup:
		p.xlayerMain.FrameOutcome = xlayer.OutcomeWait
		if p.xlayerAuto != nil {
			p.xlayerAuto.FrameOutcome = xlayer.OutcomeLost
		}
		p.signalMain = OutFrameSentNack
		p.signalAuto = OutFrameMissed
		p.enqueueChain(prepareChain)
	}
}

// processEventRX classifies the just-read IRQ flags for an RX timeslot
// (spec §4.4.5).
func processEventRX(p *PHY) {
	if p.inputSignal != SignalDmaCmplt {
		p.signalMain = OutError
		return
	}
	ev := p.readEvents

	switch {
	case rxGood(ev):
		if p.xlayerAuto != nil {
			p.xlayerAuto.FrameOutcome = xlayer.OutcomeSentAck
		}
		p.xlayerMain.FrameOutcome = xlayer.OutcomeReceived
		p.signalMain = OutFrameReceived
		p.enqueueChain(getFrameHeaderChain)

	case rxLost(ev):
		if ev.RxEnabled {
			p.radio.DisableRadioIRQ()
		}
		if p.xlayerAuto != nil {
			p.xlayerAuto.FrameOutcome = xlayer.OutcomeSentAckLost
			p.signalAuto = OutFrameNotSent
		} else {
			p.signalAuto = OutFrameSentNack
		}
		p.xlayerMain.FrameOutcome = xlayer.OutcomeLost
		p.signalMain = OutFrameMissed
		p.enqueueChain(prepareChain)

	case rxRejected(ev):
		p.xlayerMain.FrameOutcome = xlayer.OutcomeRejected
		if p.xlayerAuto != nil {
			p.xlayerAuto.FrameOutcome = xlayer.OutcomeSentAckRejected
		}
		p.signalMain = OutFrameMissed
		p.enqueueChain(prepareChain)

	default:
		p.enqueueChain(prepareChain)
	}
}

// getFrameHeader pulls the received main frame's header out of the RX
// FIFO and enqueues the payload fetch.
func getFrameHeader(p *PHY) {
	p.signalMain = OutYield
	hdr := p.xlayerMain.Header()
	p.beginTransfer(make([]byte, len(hdr)+1), append([]byte{0}, hdr...))
	p.enqueueChain(getPayloadChain)
}

// getAutoReplyHeader pulls the received ACK frame's header (the reply to
// our own TX) out of the RX FIFO.
func getAutoReplyHeader(p *PHY) {
	p.signalMain = OutYield
	if p.xlayerAuto == nil {
		return
	}
	hdr := p.xlayerAuto.Header()
	p.beginTransfer(make([]byte, len(hdr)+1), append([]byte{0}, hdr...))
}

// getPayload completes the receive by pulling the payload bytes.
func getPayload(p *PHY) {
	payload := p.xlayerMain.Payload()
	if len(payload) == 0 {
		return
	}
	p.signalMain = OutYield
	p.beginTransfer(make([]byte, len(payload)), payload)
}

// checkRadioIRQ polls whether the auto-reply transmission the radio is
// still sending has completed; if the IRQ line hasn't asserted yet it
// yields and is re-entered on the next context switch.
func checkRadioIRQ(p *PHY) {
	p.radio.EnableRadioIRQ()
	if p.radio.IRQ == nil || p.radio.IRQ.Read() != hal.Low {
		p.signalMain = OutYield
	}
}

// transferRegister services a single WritePhyReg/ReadPhyReg request with
// blocking SPI (spec §4.4.6): between timeslots, not time-critical.
func transferRegister(p *PHY) {
	if p.writeRequest.pending {
		tx := []byte{p.writeRequest.register, byte(p.writeRequest.data), byte(p.writeRequest.data >> 8)}
		rx := make([]byte, len(tx))
		p.radio.SPI.TransferBlocking(tx, rx)
		p.writeRequest.pending = false
		return
	}
	if p.readRequest.pending {
		tx := []byte{p.readRequest.register, 0, 0}
		rx := make([]byte, len(tx))
		p.radio.SPI.TransferBlocking(tx, rx)
		if p.readRequest.readBuf != nil {
			*p.readRequest.readBuf = uint16(rx[1]) | uint16(rx[2])<<8
		}
		if p.readRequest.readDone != nil {
			*p.readRequest.readDone = true
		}
		p.readRequest.pending = false
	}
}

// overwriteRegisters replays every WRITE_PERIODIC entry ahead of the next
// frame preparation (spec §4.4.6).
func overwriteRegisters(p *PHY) {
	for reg, val := range p.overwriteRegs {
		tx := []byte{reg, byte(val), byte(val >> 8)}
		rx := make([]byte, len(tx))
		p.radio.SPI.TransferBlocking(tx, rx)
	}
}
