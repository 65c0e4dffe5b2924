package link

// LQI accumulates the running per-connection link-quality counters of spec
// §4.3.7. MAC updates these after every timeslot result; nothing here is
// time-windowed, matching the free-running counters of the original
// firmware (a host tool resets/diffs them if a rate is wanted).
type LQI struct {
	TxSuccessCount uint32
	TxSuccessBytes uint64
	TxFailCount    uint32
	TxDropCount    uint32

	RxReceivedCount uint32
	RxReceivedBytes uint64
	RxOverrunCount  uint32

	CCAPassCount   uint32
	CCAFailCount   uint32
	CCATxFailCount uint32
}

func (l *LQI) OnTxSuccess(bytes int) {
	l.TxSuccessCount++
	l.TxSuccessBytes += uint64(bytes)
}

func (l *LQI) OnTxFail() { l.TxFailCount++ }

func (l *LQI) OnTxDrop() { l.TxDropCount++ }

func (l *LQI) OnRxReceived(bytes int) {
	l.RxReceivedCount++
	l.RxReceivedBytes += uint64(bytes)
}

func (l *LQI) OnRxOverrun() { l.RxOverrunCount++ }

func (l *LQI) OnCCAPass() { l.CCAPassCount++ }

func (l *LQI) OnCCAFail() { l.CCAFailCount++ }

func (l *LQI) OnCCATxFail() { l.CCATxFailCount++ }
