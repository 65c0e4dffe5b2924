package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestQueueFIFOOrder(t *testing.T) {
	var q RequestQueue
	require.True(t, q.Enqueue(Request{Type: RequestWritePhyReg}))
	require.True(t, q.Enqueue(Request{Type: RequestReadPhyReg}))

	req, ok := q.Front()
	require.True(t, ok)
	require.Equal(t, RequestWritePhyReg, req.Type)

	q.Dequeue()
	req, ok = q.Front()
	require.True(t, ok)
	require.Equal(t, RequestReadPhyReg, req.Type)
}

func TestRequestQueueRejectsPastDepth(t *testing.T) {
	var q RequestQueue
	for i := 0; i < requestQueueDepth; i++ {
		require.True(t, q.Enqueue(Request{Type: RequestDisconnect}))
	}
	require.False(t, q.Enqueue(Request{Type: RequestDisconnect}))
	require.Equal(t, requestQueueDepth, q.Len())
}

func TestRequestQueueFrontOnEmptyReturnsFalse(t *testing.T) {
	var q RequestQueue
	_, ok := q.Front()
	require.False(t, ok)
}

func TestRequestQueueWrapsAroundRingBuffer(t *testing.T) {
	var q RequestQueue
	for i := 0; i < requestQueueDepth; i++ {
		q.Enqueue(Request{Type: RequestWritePhyReg})
	}
	for i := 0; i < requestQueueDepth/2; i++ {
		q.Dequeue()
	}
	for i := 0; i < requestQueueDepth/2; i++ {
		require.True(t, q.Enqueue(Request{Type: RequestChangeScheduleRatio}))
	}
	require.Equal(t, requestQueueDepth, q.Len())
}
