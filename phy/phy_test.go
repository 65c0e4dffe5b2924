package phy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidd971/wps/hal"
	"github.com/kidd971/wps/xlayer"
)

func newTestPHY(t *testing.T) *PHY {
	t.Helper()
	link := hal.NewLoopbackLink()
	radio, err := hal.NewRadio(link.EndpointA(), hal.NewLoopbackPin(), hal.NewLoopbackPin(), nil)
	require.NoError(t, err)
	return New(radio, 0x1234)
}

func frameWithSizes(headerLen, payloadLen int) *xlayer.Frame {
	mem := make([]byte, headerLen+payloadLen)
	return &xlayer.Frame{
		HeaderMemory: mem,
		HeaderBegin:  0,
		HeaderEnd:    headerLen,
		PayloadBegin: headerLen,
		PayloadEnd:   headerLen + payloadLen,
	}
}

func TestEnqueueChainRespectsFixedDepth(t *testing.T) {
	p := newTestPHY(t)
	for i := 0; i < stateQueueDepth+4; i++ {
		p.enqueueChain(prepareChain)
	}
	require.Len(t, p.chainQueue, stateQueueDepth)
}

func TestDequeueChainIsFIFO(t *testing.T) {
	p := newTestPHY(t)
	p.enqueueChain(setConfigChain)
	p.enqueueChain(waitTXChain)

	c, ok := p.dequeueChain()
	require.True(t, ok)
	require.Equal(t, len(setConfigChain), len(c))

	c, ok = p.dequeueChain()
	require.True(t, ok)
	require.Equal(t, len(waitTXChain), len(c))

	_, ok = p.dequeueChain()
	require.False(t, ok)
}

func TestProcessEventTXCCAFailReportsWaitAndSentNack(t *testing.T) {
	p := newTestPHY(t)
	p.xlayerMain = frameWithSizes(4, 8)
	p.config = &SlotConfig{}
	p.inputSignal = SignalDmaCmplt
	p.readEvents = ReadEvents{CCAFail: true}

	processEventTX(p)

	require.Equal(t, xlayer.OutcomeWait, p.xlayerMain.FrameOutcome)
	require.Equal(t, OutFrameSentNack, p.signalMain)
}

func TestProcessEventTXGoodAutoReplyReportsSentAck(t *testing.T) {
	p := newTestPHY(t)
	p.xlayerMain = frameWithSizes(4, 8)
	p.xlayerAuto = frameWithSizes(4, 0)
	p.config = &SlotConfig{}
	p.inputSignal = SignalDmaCmplt
	p.readEvents = ReadEvents{RxEnd: true, CRCPass: true, AddrMatch: true}

	processEventTX(p)

	require.Equal(t, xlayer.OutcomeSentAck, p.xlayerMain.FrameOutcome)
	require.Equal(t, xlayer.OutcomeReceived, p.xlayerAuto.FrameOutcome)
	require.Equal(t, OutFrameSentAck, p.signalMain)
	require.Equal(t, OutFrameReceived, p.signalAuto)
}

func TestProcessEventTXRxLostReportsSentAckLost(t *testing.T) {
	p := newTestPHY(t)
	p.xlayerMain = frameWithSizes(4, 8)
	p.xlayerAuto = frameWithSizes(4, 0)
	p.config = &SlotConfig{}
	p.inputSignal = SignalDmaCmplt
	p.readEvents = ReadEvents{Timeout: true}

	processEventTX(p)

	require.Equal(t, xlayer.OutcomeSentAckLost, p.xlayerMain.FrameOutcome)
	require.Equal(t, xlayer.OutcomeLost, p.xlayerAuto.FrameOutcome)
	require.Equal(t, OutFrameSentNack, p.signalMain)
}

func TestProcessEventRXGoodFetchesHeader(t *testing.T) {
	p := newTestPHY(t)
	p.xlayerMain = frameWithSizes(4, 8)
	p.inputSignal = SignalDmaCmplt
	p.readEvents = ReadEvents{RxEnd: true, CRCPass: true, AddrMatch: true}

	processEventRX(p)

	require.Equal(t, xlayer.OutcomeReceived, p.xlayerMain.FrameOutcome)
	require.Equal(t, OutFrameReceived, p.signalMain)
	require.Len(t, p.chainQueue, 1)
}

func TestProcessEventRXRejectedReportsRejected(t *testing.T) {
	p := newTestPHY(t)
	p.xlayerMain = frameWithSizes(4, 8)
	p.inputSignal = SignalDmaCmplt
	p.readEvents = ReadEvents{RxEnd: true, CRCPass: false}

	processEventRX(p)

	require.Equal(t, xlayer.OutcomeRejected, p.xlayerMain.FrameOutcome)
	require.Equal(t, OutFrameMissed, p.signalMain)
}

func TestPrepareRadioTXEmptyFrameSkipsHeaderPayloadChains(t *testing.T) {
	p := newTestPHY(t)
	p.xlayerMain = frameWithSizes(0, 0)
	p.xlayerMain.SourceAddress = p.localAddress
	p.config = &SlotConfig{}

	prepareRadioTX(p)

	require.Len(t, p.chainQueue, 1, "an empty frame should enqueue only the wait-for-radio chain")
}

func TestPrepareRadioTXNonEmptyContiguousFrameUsesCombinedChain(t *testing.T) {
	p := newTestPHY(t)
	p.xlayerMain = frameWithSizes(4, 8)
	p.xlayerMain.SourceAddress = p.localAddress
	p.config = &SlotConfig{}

	prepareRadioTX(p)

	require.Len(t, p.chainQueue, 2, "combined header+payload chain, then wait")
}

func TestWriteRegisterOnceEnqueuesTransferChain(t *testing.T) {
	p := newTestPHY(t)
	p.WriteRegister(0x10, 0xBEEF, WriteOnce)

	require.True(t, p.writeRequest.pending)
	require.Len(t, p.chainQueue, 1)
}

func TestWriteRegisterPeriodicReplacesExistingEntry(t *testing.T) {
	p := newTestPHY(t)
	p.WriteRegister(0x10, 0x0001, WritePeriodic)
	p.WriteRegister(0x10, 0x0002, WritePeriodic)

	require.Len(t, p.overwriteRegs, 1)
	require.Equal(t, uint16(0x0002), p.overwriteRegs[0x10])
}

func TestMainIsTXComparesSourceAddress(t *testing.T) {
	p := newTestPHY(t)
	p.xlayerMain = frameWithSizes(1, 1)
	p.xlayerMain.SourceAddress = p.localAddress
	require.True(t, mainIsTX(p))

	p.xlayerMain.SourceAddress = p.localAddress + 1
	require.False(t, mainIsTX(p))
}
