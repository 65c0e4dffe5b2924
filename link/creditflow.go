package link

// SkippedFramesThreshold is the constant from spec §3: once
// SkippedFramesCount exceeds it, MAC must send an empty header-only frame
// so the peer observes progress.
const SkippedFramesThreshold = 3

// CreditFlowControl implements the sliding-window admission limit of spec
// §4.3.3. Grounded on
// original_source/core/wireless/link/link_credit_flow_ctrl.c (init only;
// the accounting methods below follow the behavior spec.md §4.3.3
// describes, since the retrieved .c file is init-only and the rest lives in
// the corresponding MAC call sites).
type CreditFlowControl struct {
	enabled                  bool
	creditsCount             uint8
	skippedFramesCount       uint8
	notifyMissedCreditsCount uint8
}

// NewCreditFlowControl builds credit-flow state with an initial grant.
func NewCreditFlowControl(enabled bool, initCredits uint8) *CreditFlowControl {
	return &CreditFlowControl{enabled: enabled, creditsCount: initCredits}
}

func (c *CreditFlowControl) Enabled() bool               { return c.enabled }
func (c *CreditFlowControl) Credits() uint8              { return c.creditsCount }
func (c *CreditFlowControl) SkippedFrames() uint8        { return c.skippedFramesCount }
func (c *CreditFlowControl) NotifyMissedCredits() uint8  { return c.notifyMissedCreditsCount }

// IsAvailable reports whether a frame may be sent right now. When disabled,
// sending is always available. When enabled and out of credits, it records
// a skip and refuses.
func (c *CreditFlowControl) IsAvailable() bool {
	if !c.enabled {
		return true
	}
	if c.creditsCount == 0 {
		c.skippedFramesCount++
		return false
	}
	return true
}

// OnAckReceived accounts for a received ACK: spend one credit and clear the
// skip counter, since the peer has now observed progress.
func (c *CreditFlowControl) OnAckReceived() {
	if c.creditsCount > 0 {
		c.creditsCount--
	}
	c.skippedFramesCount = 0
}

// OnAutoReplySent accounts for sending an auto-reply: spend one credit and
// clear the missed-notification counter.
func (c *CreditFlowControl) OnAutoReplySent() {
	if c.creditsCount > 0 {
		c.creditsCount--
	}
	c.notifyMissedCreditsCount = 0
}

// Grant adds n credits, e.g. from an application-level flow-control update.
func (c *CreditFlowControl) Grant(n uint8) {
	c.creditsCount += n
}

// MustSendEmptyFrame reports whether the skipped-frame count has crossed
// SkippedFramesThreshold, obligating MAC to transmit a header-only frame on
// the next TX opportunity regardless of queue contents (spec §4.3.3).
func (c *CreditFlowControl) MustSendEmptyFrame() bool {
	return c.skippedFramesCount > SkippedFramesThreshold
}
