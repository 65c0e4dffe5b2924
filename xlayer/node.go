// Package xlayer implements the cross-layer frame descriptor and the
// linked-list queue / circular arena subsystem that moves frames between
// the application, the MAC, and the PHY without heap allocation on the hot
// path (spec §4.2). Grounded on original_source's xlayer_queue.c/.h and
// xlayer_circular_data.c/.h.
package xlayer

// FrameOutcome records what happened to a frame descriptor after its
// timeslot, per spec §3.
type FrameOutcome uint8

const (
	OutcomeWait FrameOutcome = iota
	OutcomeSentAck
	OutcomeSentAckLost
	OutcomeSentAckRejected
	OutcomeReceived
	OutcomeLost
	OutcomeRejected
)

func (o FrameOutcome) String() string {
	switch o {
	case OutcomeWait:
		return "wait"
	case OutcomeSentAck:
		return "sent_ack"
	case OutcomeSentAckLost:
		return "sent_ack_lost"
	case OutcomeSentAckRejected:
		return "sent_ack_rejected"
	case OutcomeReceived:
		return "received"
	case OutcomeLost:
		return "lost"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// FrameConfig carries the per-frame radio-observed metadata: RSSI/RNSI raw
// samples, CCA try count, and ranging phase info, filled in by the PHY.
type FrameConfig struct {
	RSSIRaw     int16
	RNSIRaw     int16
	CCATryCount uint8
	Phase       []uint8
}

// Frame is the cross-layer frame descriptor (spec §3's "Xlayer").
type Frame struct {
	SourceAddress      uint16
	DestinationAddress uint16

	// HeaderMemory backs HeaderBegin/HeaderEnd; when UserPayload is false
	// PayloadBegin/PayloadEnd point inside the same contiguous allocation,
	// immediately following the header.
	HeaderMemory []byte
	HeaderBegin  int
	HeaderEnd    int
	PayloadBegin int
	PayloadEnd   int

	// UserPayload selects whether the payload lives in separate,
	// caller-owned memory (true) or contiguously after the header in
	// HeaderMemory (false).
	UserPayload  bool
	UserPayloadBuf []byte

	MaxFrameSize int
	RetryCount   uint16
	TimeStamp    uint64
	FrameOutcome FrameOutcome
	Config       FrameConfig
}

// Header returns the header bytes currently described by HeaderBegin/End.
func (f *Frame) Header() []byte {
	if f.HeaderMemory == nil {
		return nil
	}
	return f.HeaderMemory[f.HeaderBegin:f.HeaderEnd]
}

// Payload returns the payload bytes, from whichever backing store
// UserPayload selects.
func (f *Frame) Payload() []byte {
	if f.UserPayload {
		return f.UserPayloadBuf
	}
	if f.HeaderMemory == nil {
		return nil
	}
	return f.HeaderMemory[f.PayloadBegin:f.PayloadEnd]
}

// HeaderSize is HeaderEnd - HeaderBegin.
func (f *Frame) HeaderSize() int { return f.HeaderEnd - f.HeaderBegin }

// PayloadSize is len(Payload()).
func (f *Frame) PayloadSize() int {
	if f.UserPayload {
		return len(f.UserPayloadBuf)
	}
	return f.PayloadEnd - f.PayloadBegin
}

// Reset clears per-timeslot transient state, keeping the backing memory.
func (f *Frame) Reset() {
	f.FrameOutcome = OutcomeWait
	f.RetryCount = 0
	f.Config = FrameConfig{}
}
