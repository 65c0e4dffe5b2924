package mac

// certificationByte0/1 are the fixed alternating pattern certification mode
// fills every header byte with, replacing the connection's configured link
// protocol (spec §4.5.9, wps_mac_certification.c's PHY_CERTIF_BYTE0/1).
const (
	certificationByte0 = 0x6F
	certificationByte1 = 0x0A
)

// FillCertificationHeader overwrites dst with the alternating
// 0x6F/0x0A pattern used in certification mode instead of the connection's
// normal LinkProtocol, so a spectrum analyzer sees a deterministic,
// protocol-independent payload regardless of header size.
func FillCertificationHeader(dst []byte) {
	for i := range dst {
		if i%2 == 0 {
			dst[i] = certificationByte0
		} else {
			dst[i] = certificationByte1
		}
	}
}

// EnableCertificationMode switches a connection into certification mode:
// the fixed header pattern replaces its LinkProtocol output and ACK is
// forced off to avoid ARQ interfering with a continuous transmit test
// (spec §4.5.9 — "Acknowledge is disabled to avoid ARQ interference").
func (c *Connection) EnableCertificationMode() {
	c.CertificationModeEnabled = true
	c.AckEnable = false
	c.ARQ = nil
}
