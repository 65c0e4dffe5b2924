package wps

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidd971/wps/xlayer"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	cfg := baseConfig()
	cfg.FreePoolSize = 8
	d, err := New(newTestRadio(t), cfg)
	require.NoError(t, err)
	return d
}

func TestCreateConnectionThenDestroy(t *testing.T) {
	d := newTestDevice(t)

	conn, err := d.CreateConnection(ConnectionConfig{
		Source: 1, Destination: 2, PayloadSize: 8, TxQueueSize: 4, RxQueueSize: 4,
	})
	require.NoError(t, err)
	require.NotNil(t, conn)

	_, ok := d.Connection(1)
	require.True(t, ok)

	require.NoError(t, d.DestroyConnection(1))
	_, ok = d.Connection(1)
	require.False(t, ok)
}

func TestCreateConnectionRejectsDuplicateSource(t *testing.T) {
	d := newTestDevice(t)
	cfg := ConnectionConfig{Source: 1, Destination: 2, PayloadSize: 8, TxQueueSize: 4, RxQueueSize: 4}

	_, err := d.CreateConnection(cfg)
	require.NoError(t, err)

	_, err = d.CreateConnection(cfg)
	require.Error(t, err)
}

func TestSendRejectsWrongPayloadSize(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.CreateConnection(ConnectionConfig{Source: 1, Destination: 2, PayloadSize: 8, TxQueueSize: 4, RxQueueSize: 4})
	require.NoError(t, err)

	err = d.Send(1, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrWrongPayloadSize)
}

func TestSendThenGetFifoSizeReflectsQueueDepth(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.CreateConnection(ConnectionConfig{Source: 1, Destination: 2, PayloadSize: 4, TxQueueSize: 4, RxQueueSize: 4})
	require.NoError(t, err)

	require.NoError(t, d.Send(1, []byte{1, 2, 3, 4}))

	size, err := d.GetFifoSize(1)
	require.NoError(t, err)
	require.Equal(t, 1, size)

	free, err := d.GetFifoFreeSpace(1)
	require.NoError(t, err)
	require.Equal(t, 3, free)
}

func TestSendOnUnknownConnectionFails(t *testing.T) {
	d := newTestDevice(t)
	require.ErrorIs(t, d.Send(99, []byte{1}), ErrUnknownConnection)
}

func TestReadReturnsNotOkWhenRxQueueEmpty(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.CreateConnection(ConnectionConfig{Source: 1, Destination: 2, PayloadSize: 4, TxQueueSize: 4, RxQueueSize: 4})
	require.NoError(t, err)

	buf, ok, err := d.Read(1)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, buf)
}

func TestReadReturnsEnqueuedPayload(t *testing.T) {
	d := newTestDevice(t)
	conn, err := d.CreateConnection(ConnectionConfig{Source: 1, Destination: 2, PayloadSize: 4, TxQueueSize: 4, RxQueueSize: 4})
	require.NoError(t, err)

	n := xlayer.GetFreeNode(d.mac.FreePool())
	require.NotNil(t, n)
	n.Frame.UserPayload = true
	n.Frame.UserPayloadBuf = []byte{9, 8, 7, 6}
	require.True(t, conn.RxQueue.Enqueue(n))

	buf, ok, err := d.Read(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{9, 8, 7, 6}, buf)
}

func TestSetTxSuccessCallbackIsInvokedDirectlyByTest(t *testing.T) {
	d := newTestDevice(t)
	_, err := d.CreateConnection(ConnectionConfig{Source: 1, Destination: 2, PayloadSize: 4, TxQueueSize: 4, RxQueueSize: 4})
	require.NoError(t, err)

	called := false
	require.NoError(t, d.SetTxSuccessCallback(1, func(arg any) { called = true }, nil))

	conn, _ := d.Connection(1)
	conn.TxSuccessCallback(conn.TxSuccessArg)
	require.True(t, called)
}
