package phy

import "github.com/kidd971/wps/wpslog"

// Connect enables the radio IRQ and schedules the prepare chain for the
// first timeslot (spec §4.4.7). It writes no radio register: no sleep
// period or AUTOWAKE setting is programmed here.
func (p *PHY) Connect() {
	wpslog.Info("phy connected, radio irq enabled")
	p.radio.EnableRadioIRQ()
	p.currentChain = prepareChain
	p.step = 0
	p.chainQueue = p.chainQueue[:0]
	p.signalMain = OutNone
}

// Disconnect disables the radio IRQ, blocks until readPowerStatus reports
// the radio awake and then until it reports deep sleep, and leaves the PHY
// idle (spec §4.4.7). The power status comes from a caller-supplied reader,
// since PHY has no register map of its own below the HAL boundary; for the
// same reason it writes no timer, AUTOWAKE or sleep-level register itself.
func (p *PHY) Disconnect(readPowerStatus func() (awake bool, deepSleep bool)) {
	p.radio.DisableRadioIRQ()

	for {
		awake, _ := readPowerStatus()
		if awake {
			break
		}
	}

	for {
		_, deepSleep := readPowerStatus()
		if deepSleep {
			break
		}
	}

	p.currentChain = endChain
	p.step = 0
	p.chainQueue = p.chainQueue[:0]
	wpslog.Info("phy disconnected, radio in deep sleep")
}

// WaitToSendAutoReply enqueues the polling chain used while an auto-reply
// transmission the radio is still driving hasn't finished yet.
func (p *PHY) WaitToSendAutoReply() {
	p.enqueueChain(waitToSendAutoReplyChain)
}

// InjectReadEvents lets the owning node (a concrete HAL decode, or a test)
// supply the decoded IRQ-flags/power-status burst once the non-blocking
// SPI transfer that read_events/read_events_syncing issued completes.
func (p *PHY) InjectReadEvents(ev ReadEvents) {
	p.readEvents = ev
}
