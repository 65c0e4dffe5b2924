package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkProtocolHeaderSizeSumsFields(t *testing.T) {
	p := NewLinkProtocol(
		HeaderField{Size: 1},
		HeaderField{Size: 2},
		HeaderField{Size: 1},
	)
	require.Equal(t, 4, p.HeaderSize())
}

func TestLinkProtocolSendBufferCallsFieldsInOrder(t *testing.T) {
	var order []string
	p := NewLinkProtocol(
		HeaderField{Name: "a", Size: 1, SendFn: func(dst []byte) { order = append(order, "a"); dst[0] = 0xAA }},
		HeaderField{Name: "b", Size: 1, SendFn: func(dst []byte) { order = append(order, "b"); dst[0] = 0xBB }},
	)
	buf := make([]byte, 2)
	p.SendBuffer(buf)

	require.Equal(t, []string{"a", "b"}, order)
	require.Equal(t, []byte{0xAA, 0xBB}, buf)
}

func TestLinkProtocolReceiveBufferSlicesPerField(t *testing.T) {
	var timeslotID, connID uint8
	p := NewLinkProtocol(
		TimeslotIDField(func() uint8 { return 0 }, func(v uint8) { timeslotID = v }),
		ConnectionIDField(func() uint8 { return 0 }, func(v uint8) { connID = v }),
	)

	p.ReceiveBuffer([]byte{7, 42})

	require.Equal(t, uint8(7), timeslotID)
	require.Equal(t, uint8(42), connID)
}

func TestRDOFieldIsTwoBytes(t *testing.T) {
	f := RDOField(func([]byte) {}, func([]byte) {})
	require.Equal(t, 2, f.Size)
}

func TestLinkProtocolRoundTripsThroughSendAndReceive(t *testing.T) {
	var got uint8
	p := NewLinkProtocol(
		TimeslotIDField(func() uint8 { return 5 }, func(v uint8) { got = v }),
	)
	buf := make([]byte, p.HeaderSize())
	p.SendBuffer(buf)
	p.ReceiveBuffer(buf)

	require.Equal(t, uint8(5), got)
}
