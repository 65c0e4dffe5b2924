// Package mac implements the timeslot scheduler, connection table, and
// outcome-processing state machine sitting between the application and the
// PHY (spec §4.5). Grounded on original_source's wps_mac.c, wps_mac_xlayer.c,
// wps_connection_list.c/.h, wps_conn_priority.h and wps_mac_certification.c.
package mac

// Error is the WPS error taxonomy (spec §7). Transient radio/link outcomes
// (timeouts, rejected frames, CCA failures) are absorbed inside mac/phy;
// configuration and API-contract violations use this type, and so do the
// runtime faults MAC records in MAC.LastError (ErrRxOverrun,
// ErrFragmentError, ErrPhyCritical).
type Error uint8

const (
	ErrNone Error = iota
	ErrNotInit
	ErrRxOverrun
	ErrPhyCritical
	ErrQueueEmpty
	ErrQueueFull
	ErrWrongTxSize
	ErrWrongRxSize
	ErrConnThrottleNotInit
	ErrAckDisabled
	ErrRequestQueueFull
	ErrFragmentError
	ErrDisconnectTimeout
	ErrInvalidCCASettings
	ErrNotEnoughMemory
	ErrChannelSequenceInitError
)

func (e Error) Error() string {
	switch e {
	case ErrNone:
		return "no error"
	case ErrNotInit:
		return "mac: not initialized"
	case ErrRxOverrun:
		return "mac: rx queue overrun"
	case ErrPhyCritical:
		return "mac: phy critical error, reset required"
	case ErrQueueEmpty:
		return "mac: queue empty"
	case ErrQueueFull:
		return "mac: queue full"
	case ErrWrongTxSize:
		return "mac: wrong tx payload size"
	case ErrWrongRxSize:
		return "mac: wrong rx payload size"
	case ErrConnThrottleNotInit:
		return "mac: connection throttle not initialized"
	case ErrAckDisabled:
		return "mac: ack must be enabled to use arq"
	case ErrRequestQueueFull:
		return "mac: request queue full"
	case ErrFragmentError:
		return "mac: fragment reassembly error"
	case ErrDisconnectTimeout:
		return "mac: disconnect exceeded its budget"
	case ErrInvalidCCASettings:
		return "mac: invalid cca settings"
	case ErrNotEnoughMemory:
		return "mac: not enough memory"
	case ErrChannelSequenceInitError:
		return "mac: channel sequence init error"
	default:
		return "mac: unknown error"
	}
}
