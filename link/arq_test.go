package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuaranteedDeliveryWhenBothDeadlinesDisabled(t *testing.T) {
	a := NewARQ(0, 0, false, true)
	require.True(t, a.GuaranteedDelivery())
	require.False(t, a.IsFrameTimeout(0, 50, 1_000_000))
}

func TestDisabledARQAlwaysTimesOut(t *testing.T) {
	a := NewARQ(100, 5, false, false)
	require.True(t, a.IsFrameTimeout(0, 0, 1))
}

func TestFrameTimeoutByTickDeadline(t *testing.T) {
	a := NewARQ(100, 0, false, true)
	require.False(t, a.IsFrameTimeout(0, 1, 99))
	require.True(t, a.IsFrameTimeout(0, 1, 100))
}

func TestFrameTimeoutByRetryDeadline(t *testing.T) {
	a := NewARQ(0, 3, false, true)
	require.False(t, a.IsFrameTimeout(0, 2, 10))
	require.True(t, a.IsFrameTimeout(0, 3, 10))
}

func TestRetryStatisticOnlyIncrementsBeforeTimeout(t *testing.T) {
	a := NewARQ(100, 0, false, true)
	a.IsFrameTimeout(0, 1, 10)
	a.IsFrameTimeout(0, 2, 20)
	require.Equal(t, uint32(2), a.RetryCount())

	a.IsFrameTimeout(0, 3, 100)
	require.Equal(t, uint32(2), a.RetryCount(), "a frame that has already timed out must not add to the retry statistic")
}

func TestSequenceBitDuplicateDetection(t *testing.T) {
	a := NewARQ(0, 0, false, true)
	require.False(t, a.SeqNum())

	a.OnFrameReceived(false)
	require.True(t, a.IsRxFrameDuplicate())

	a.OnFrameReceived(true)
	require.False(t, a.IsRxFrameDuplicate())
	require.Equal(t, uint32(1), a.DuplicateCount())
}

func TestIncSeqNumTogglesLocalBit(t *testing.T) {
	a := NewARQ(0, 0, true, true)
	require.True(t, a.SeqNum())
	a.IncSeqNum()
	require.False(t, a.SeqNum())
}

func TestDisabledARQNeverReportsDuplicate(t *testing.T) {
	a := NewARQ(0, 0, false, false)
	a.OnFrameReceived(false)
	require.False(t, a.IsRxFrameDuplicate())
}
