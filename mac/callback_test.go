package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCallbackQueueDrainsInFIFOOrder(t *testing.T) {
	var q CallbackQueue
	var order []int

	q.Enqueue(Callback{Fn: func(arg any) { order = append(order, arg.(int)) }, Arg: 1})
	q.Enqueue(Callback{Fn: func(arg any) { order = append(order, arg.(int)) }, Arg: 2})

	q.ProcessCallback()

	require.Equal(t, []int{1, 2}, order)
	require.Equal(t, 0, q.Len())
}

func TestCallbackQueueRejectsPastDepth(t *testing.T) {
	var q CallbackQueue
	for i := 0; i < callbackQueueDepth; i++ {
		require.True(t, q.Enqueue(Callback{}))
	}
	require.False(t, q.Enqueue(Callback{}))
}

func TestCallbackQueueNilFnIsSkippedSafely(t *testing.T) {
	var q CallbackQueue
	q.Enqueue(Callback{Fn: nil})
	require.NotPanics(t, func() { q.ProcessCallback() })
}
