package mac

import "github.com/kidd971/wps/phy"

// PostScheduleRatioRequest queues a throttle-pattern change, applied at the
// next PHY boundary (spec §4.5.8). ok is false when the request queue is
// full (WPS_SCHEDULE_RATIO_REQUEST_QUEUE_FULL).
func (m *MAC) PostScheduleRatioRequest(conn *Connection, pattern []bool) (ok bool) {
	return m.requestQueue.Enqueue(Request{
		Type:   RequestChangeScheduleRatio,
		Config: ScheduleRatioConfig{Connection: conn, Pattern: pattern},
	})
}

// PostWritePhyReg queues a single-radio register write, forwarded to PHY.
func (m *MAC) PostWritePhyReg(register uint8, data uint16, periodic bool) (ok bool) {
	return m.requestQueue.Enqueue(Request{
		Type:   RequestWritePhyReg,
		Config: WriteRegConfig{Register: register, Data: data, Periodic: periodic},
	})
}

// PostReadPhyReg queues a single-radio register read.
func (m *MAC) PostReadPhyReg(register uint8, dst *uint16, done *bool) (ok bool) {
	return m.requestQueue.Enqueue(Request{
		Type:   RequestReadPhyReg,
		Config: ReadRegConfig{Register: register, Dst: dst, Done: done},
	})
}

// PostDisconnect queues a disconnect request; the MAC signal becomes
// WPS_DISCONNECT_EVENT once it takes effect (spec §4.5.8, §4.5.10).
func (m *MAC) PostDisconnect() (ok bool) {
	return m.requestQueue.Enqueue(Request{Type: RequestDisconnect})
}

// processPendingRequest drains the oldest request in the queue, dispatched
// by type (wps_mac.c's process_pending_request). Drained at the
// ConfigComplete/BlockingConfigDone PHY boundary — here, once per
// PhyCallback invocation.
func (m *MAC) processPendingRequest() {
	req, ok := m.requestQueue.Front()
	if !ok {
		return
	}
	switch req.Type {
	case RequestChangeScheduleRatio:
		cfg := req.Config.(ScheduleRatioConfig)
		if cfg.Connection != nil {
			cfg.Connection.SetThrottlePattern(cfg.Pattern)
		}
	case RequestWritePhyReg:
		cfg := req.Config.(WriteRegConfig)
		mode := phy.WriteOnce
		if cfg.Periodic {
			mode = phy.WritePeriodic
		}
		m.phy.WriteRegister(cfg.Register, cfg.Data, mode)
	case RequestReadPhyReg:
		cfg := req.Config.(ReadRegConfig)
		m.phy.ReadRegister(cfg.Register, cfg.Dst, cfg.Done)
	case RequestDisconnect:
		m.phy.Disconnect(func() (awake, deepSleep bool) { return true, true })
	}
	m.requestQueue.Dequeue()
}
