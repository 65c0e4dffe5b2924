package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFillCertificationHeaderAlternatesPattern(t *testing.T) {
	buf := make([]byte, 5)
	FillCertificationHeader(buf)
	require.Equal(t, []byte{0x6F, 0x0A, 0x6F, 0x0A, 0x6F}, buf)
}

func TestEnableCertificationModeDisablesAckAndArq(t *testing.T) {
	conn := NewConnection(1, 2, 4, 4)
	conn.EnableAck()
	require.True(t, conn.EnableSawArq(0, 0))

	conn.EnableCertificationMode()

	require.True(t, conn.CertificationModeEnabled)
	require.False(t, conn.AckEnable)
	require.Nil(t, conn.ARQ)
}
