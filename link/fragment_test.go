package link

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSmallPayloadSendsAsSingleFullFrame(t *testing.T) {
	f := NewFragmenter(32)
	frames := f.Split([]byte("hello"))
	require.Len(t, frames, 1)

	kind, _ := unpackHeader(frames[0][0])
	require.Equal(t, transferFull, kind)
}

func TestRoundTripSingleFrameReassembly(t *testing.T) {
	tx := NewFragmenter(32)
	rx := NewFragmenter(32)

	payload := []byte("a short message")
	frames := tx.Split(payload)
	require.Len(t, frames, 1)

	out, done, err := rx.Reassemble(frames[0])
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, payload, out)
}

func TestOversizedPayloadSplitsAcrossMultipleFrames(t *testing.T) {
	tx := NewFragmenter(8)
	payload := bytes.Repeat([]byte{0xAB}, 50)
	frames := tx.Split(payload)
	require.Greater(t, len(frames), 1)

	for i, fr := range frames {
		require.LessOrEqual(t, len(fr), 8, "frame %d exceeds the connection payload size", i)
	}
}

func TestRoundTripMultiFragmentReassembly(t *testing.T) {
	tx := NewFragmenter(8)
	rx := NewFragmenter(8)

	payload := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 10)
	frames := tx.Split(payload)
	require.Greater(t, len(frames), 2)

	var out []byte
	var done bool
	var err error
	for _, fr := range frames {
		out, done, err = rx.Reassemble(fr)
		require.NoError(t, err)
	}
	require.True(t, done)
	require.Equal(t, payload, out)
}

func TestReassembleDetectsFragmentNumberGap(t *testing.T) {
	tx := NewFragmenter(8)
	rx := NewFragmenter(8)

	payload := bytes.Repeat([]byte{0x09}, 40)
	frames := tx.Split(payload)
	require.Greater(t, len(frames), 3)

	_, _, err := rx.Reassemble(frames[0])
	require.NoError(t, err)

	_, _, err = rx.Reassemble(frames[2])
	require.ErrorIs(t, err, ErrFragmentSequence)
}

func TestReassembleDetectsTransactionIDMismatchMidTransfer(t *testing.T) {
	tx := NewFragmenter(8)
	rx := NewFragmenter(8)

	payloadA := bytes.Repeat([]byte{0x01}, 40)
	framesA := tx.Split(payloadA)
	require.Greater(t, len(framesA), 1)

	_, _, err := rx.Reassemble(framesA[0])
	require.NoError(t, err)

	payloadB := bytes.Repeat([]byte{0x02}, 40)
	framesB := tx.Split(payloadB)

	_, _, err = rx.Reassemble(framesB[0])
	require.ErrorIs(t, err, ErrFragmentSequence)
}

func TestResetThenFullFrameRecoversAfterSequenceError(t *testing.T) {
	tx := NewFragmenter(8)
	rx := NewFragmenter(8)

	stale := bytes.Repeat([]byte{0x03}, 40)
	framesStale := tx.Split(stale)
	_, _, err := rx.Reassemble(framesStale[0])
	require.NoError(t, err)
	_, _, err = rx.Reassemble(framesStale[2])
	require.ErrorIs(t, err, ErrFragmentSequence)

	rx.Reset()

	small := []byte("recover")
	framesSmall := tx.Split(small)
	out, done, err := rx.Reassemble(framesSmall[0])
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, small, out)
}

func TestTransactionIDWrapsAtMax(t *testing.T) {
	tx := NewFragmenter(32)
	for i := 0; i < maxTransactionID; i++ {
		tx.Split([]byte("x"))
	}
	require.Equal(t, uint8(0), tx.txTransactionID)
}
