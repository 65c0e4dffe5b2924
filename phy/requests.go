package phy

// RegWriteMode selects whether a register write happens once or is
// replayed before every frame preparation (spec §4.4.6).
type RegWriteMode uint8

const (
	WriteOnce RegWriteMode = iota
	WritePeriodic
)

// WriteRegister schedules a register write. WriteOnce enqueues a
// blocking transfer chain serviced between timeslots; WritePeriodic
// stores (or replaces) the value in the overwrite set replayed ahead of
// every prepare.
func (p *PHY) WriteRegister(register uint8, data uint16, mode RegWriteMode) {
	switch mode {
	case WriteOnce:
		p.writeRequest = registerRequest{pending: true, write: true, register: register, data: data}
		p.enqueueChain(transferRegisterChain)
	case WritePeriodic:
		p.overwriteRegs[register] = data
	}
}

// ClearPeriodicWrites drops every WritePeriodic entry (used on
// reconfiguration).
func (p *PHY) ClearPeriodicWrites() {
	p.overwriteRegs = make(map[uint8]uint16)
}

// ReadRegister schedules a blocking register read; done is set true and
// dst holds the value once the request has been serviced by the next
// between-timeslot boundary.
func (p *PHY) ReadRegister(register uint8, dst *uint16, done *bool) {
	p.readRequest = registerRequest{pending: true, register: register, readBuf: dst, readDone: done}
	p.enqueueChain(transferRegisterChain)
}
