package link

// ARQ is the stop-and-wait automatic-repeat-request state for one
// connection (spec §4.3.2, §3's "Stop-and-wait ARQ state"). Grounded on
// original_source/core/wireless/link/link_saw_arq.c.
//
// Guaranteed-delivery mode is exactly TTLTick == 0 && TTLRetries == 0: both
// deadlines disabled means a frame never times out.
type ARQ struct {
	TTLTick    uint16
	TTLRetries uint16

	seqNum         bool
	duplicate      bool
	duplicateCount uint32
	retryCount     uint32
	enabled        bool
}

// NewARQ builds ARQ state. initBoardSeq seeds the local sequence bit (the
// two ends of a link must start with complementary bits so the first frame
// isn't mistaken for a duplicate of nothing).
func NewARQ(ttlTick, ttlRetries uint16, initBoardSeq, enable bool) *ARQ {
	return &ARQ{
		TTLTick:    ttlTick,
		TTLRetries: ttlRetries,
		seqNum:     initBoardSeq,
		enabled:    enable,
	}
}

// Enabled reports whether ARQ is active for this connection.
func (a *ARQ) Enabled() bool { return a.enabled }

// GuaranteedDelivery reports whether both deadlines are disabled.
func (a *ARQ) GuaranteedDelivery() bool { return a.TTLTick == 0 && a.TTLRetries == 0 }

// SeqNum returns the local one-bit sequence number.
func (a *ARQ) SeqNum() bool { return a.seqNum }

// IncSeqNum toggles the local sequence bit, called after a frame is
// successfully acknowledged.
func (a *ARQ) IncSeqNum() { a.seqNum = !a.seqNum }

// RetryCount is the statistic counter of retries taken so far (not the
// per-frame xlayer.Frame.RetryCount, which this module reads as input).
func (a *ARQ) RetryCount() uint32 { return a.retryCount }

// DuplicateCount is the statistic counter of detected duplicate receptions.
func (a *ARQ) DuplicateCount() uint32 { return a.duplicateCount }

// IsFrameTimeout evaluates both the time and retry deadlines for a TX frame
// against currentTime, incrementing the retry statistic when neither fired
// and at least one retry has already happened. If ARQ is disabled every
// frame "times out" immediately (no retries are ever held).
func (a *ARQ) IsFrameTimeout(timeStamp uint64, retryCount uint16, currentTime uint64) bool {
	if !a.enabled {
		return true
	}

	deltaT := uint16(currentTime - timeStamp)

	var timeTimeout bool
	if a.TTLTick != 0 {
		timeTimeout = deltaT >= a.TTLTick
	}

	var retriesTimeout bool
	if a.TTLRetries != 0 {
		retriesTimeout = retryCount >= a.TTLRetries
	}

	timeout := timeTimeout || retriesTimeout

	if retryCount > 0 && !timeout {
		a.retryCount++
	}

	return timeout
}

// OnFrameReceived updates duplicate detection from an inbound frame's
// sequence bit: duplicate iff it equals the local bit, after which the
// local bit tracks whatever was just received (spec §4.3.2).
func (a *ARQ) OnFrameReceived(receivedSeq bool) {
	if !a.enabled {
		a.duplicate = false
		return
	}
	a.duplicate = receivedSeq == a.seqNum
	if a.duplicate {
		a.duplicateCount++
	}
	a.seqNum = receivedSeq
}

// IsRxFrameDuplicate reports the duplicate flag computed by the most recent
// OnFrameReceived call. Always false when ARQ is disabled.
func (a *ARQ) IsRxFrameDuplicate() bool {
	if !a.enabled {
		return false
	}
	return a.duplicate
}
