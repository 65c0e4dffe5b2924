package wps

import (
	"errors"
	"fmt"

	"github.com/kidd971/wps/mac"
	"github.com/kidd971/wps/phy"
	"github.com/kidd971/wps/xlayer"
)

var (
	// ErrUnknownConnection is returned by any Connection* call given an
	// address this Device never created a connection for.
	ErrUnknownConnection = errors.New("wps: unknown connection")
	// ErrWrongPayloadSize is returned by Send when buf doesn't match the
	// connection's configured PayloadSize (spec §7's WrongTxSize).
	ErrWrongPayloadSize = errors.New("wps: wrong tx payload size")
	// ErrQueueFull is returned by Send when the connection's tx queue is
	// already full.
	ErrQueueFull = errors.New("wps: tx queue full")
	// ErrQueueEmpty names an rx queue with nothing waiting. Read and
	// ReadToBuffer do not return it; they report that case with ok == false
	// and a nil error.
	ErrQueueEmpty = errors.New("wps: rx queue empty")
	// ErrInvalidTimeslotIndex is returned by CreateConnection when
	// TimeslotIndex does not reference a configured timeslot.
	ErrInvalidTimeslotIndex = errors.New("wps: timeslot_index out of range")
)

// ConnectionConfig describes one logical traffic flow to create (spec §6.2's
// create_connection). Destination carries SyncingAddress's peer address for
// a main connection whose source is this node, or the opposite end
// otherwise — mac.Connection's SourceAddress/DestinationAddress pair decides
// TX vs RX role per timeslot.
type ConnectionConfig struct {
	Source, Destination uint16
	PayloadSize         uint8
	TxQueueSize         int
	RxQueueSize         int

	AckEnable bool

	// SawArqEnable turns on Stop-and-Wait ARQ with the SawArqTTLTicks/
	// SawArqTTLRetries deadlines; CreateConnection returns
	// mac.ErrAckDisabled if it is set while AckEnable is false.
	SawArqEnable      bool
	SawArqTTLTicks    uint16
	SawArqTTLRetries  uint16

	FallbackThresholds []uint8

	CreditFlowEnable bool
	InitialCredits   uint8

	ThrottlePattern []bool

	FragmentationEnable bool

	// TimeslotIndex selects which of Config.Timeslots this connection
	// rides on; Auto marks it as that timeslot's auto-reply connection
	// rather than a main connection. Priority breaks ties when more than
	// one connection shares a timeslot (spec §4.5.2).
	TimeslotIndex int
	Auto          bool
	Priority      uint8

	// CCAEnable turns on clear-channel assessment ahead of this
	// connection's transmissions (spec §6.2's enable_cca); the remaining
	// CCA* fields are ignored when it's false.
	CCAEnable        bool
	CCAThreshold     uint8
	CCARetryTimeTicks uint16
	CCAMaxTryCount   uint8
	CCAOnTimeTicks   uint16
	CCAFailAction    phy.CCAFailAction
}

// CreateConnection builds a mac.Connection from cfg, wires its optional
// features, and registers it on this Device under cfg.Source (spec §6.2's
// create_connection / get_free_slot).
func (d *Device) CreateConnection(cfg ConnectionConfig) (*mac.Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.connections[cfg.Source]; exists {
		return nil, fmt.Errorf("wps: connection for address %d already exists", cfg.Source)
	}
	if cfg.TimeslotIndex < 0 || cfg.TimeslotIndex >= len(d.config.Timeslots) {
		return nil, ErrInvalidTimeslotIndex
	}

	conn := mac.NewConnection(cfg.Source, cfg.Destination, cfg.TxQueueSize, cfg.RxQueueSize)
	conn.PayloadSize = cfg.PayloadSize
	conn.Priority = cfg.Priority
	conn.GetTick = d.config.GetTick

	if cfg.AckEnable {
		conn.EnableAck()
	}
	if cfg.SawArqEnable {
		if !conn.EnableSawArq(cfg.SawArqTTLTicks, cfg.SawArqTTLRetries) {
			return nil, mac.ErrAckDisabled
		}
	}
	if len(cfg.FallbackThresholds) > 0 {
		conn.EnableFallback(cfg.FallbackThresholds)
	}
	if cfg.CreditFlowEnable {
		conn.EnableCreditFlowCtrl(cfg.InitialCredits)
	}
	if cfg.ThrottlePattern != nil {
		conn.SetThrottlePattern(cfg.ThrottlePattern)
	}
	if cfg.FragmentationEnable {
		conn.EnableFragmentation(int(cfg.PayloadSize))
	}
	if cfg.CCAEnable {
		conn.EnableCCA(mac.CCASettings{
			Threshold:      cfg.CCAThreshold,
			RetryTimeTicks: cfg.CCARetryTimeTicks,
			MaxTryCount:    cfg.CCAMaxTryCount,
			OnTimeTicks:    cfg.CCAOnTimeTicks,
			FailAction:     cfg.CCAFailAction,
		})
	}

	slot := d.config.Timeslots[cfg.TimeslotIndex]
	var connectionID int
	if cfg.Auto {
		connectionID = len(slot.AutoConnections)
		slot.AddAutoConnection(conn, cfg.Priority)
	} else {
		connectionID = len(slot.MainConnections)
		slot.AddMainConnection(conn, cfg.Priority)
	}
	conn.InstallHeaderProtocol(uint8(cfg.TimeslotIndex), uint8(connectionID), d.mac.RDO())

	d.connections[cfg.Source] = conn
	return conn, nil
}

// DestroyConnection removes the connection registered under address and
// flushes its queues back to the free pool.
func (d *Device) DestroyConnection(address uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, ok := d.connections[address]
	if !ok {
		return ErrUnknownConnection
	}
	d.mac.CriticalSection().Enter()
	xlayer.Flush(conn.TxQueue)
	xlayer.Flush(conn.RxQueue)
	d.mac.CriticalSection().Exit()
	delete(d.connections, address)
	return nil
}

// Connection looks up a previously created connection by its source
// address.
func (d *Device) Connection(address uint16) (*mac.Connection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, ok := d.connections[address]
	return conn, ok
}

// Send enqueues buf for transmission on the connection registered under
// address (spec §6.2's send()). buf must match the connection's configured
// PayloadSize unless fragmentation is enabled, in which case it is split
// across as many frames as needed.
func (d *Device) Send(address uint16, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, ok := d.connections[address]
	if !ok {
		return ErrUnknownConnection
	}

	if conn.Frag != nil {
		frames := conn.Frag.Split(buf)
		for _, chunk := range frames {
			if err := d.enqueueTxChunk(conn, chunk); err != nil {
				return err
			}
		}
		return nil
	}

	if len(buf) != int(conn.PayloadSize) {
		return ErrWrongPayloadSize
	}
	return d.enqueueTxChunk(conn, buf)
}

func (d *Device) enqueueTxChunk(conn *mac.Connection, buf []byte) error {
	d.mac.CriticalSection().Enter()
	defer d.mac.CriticalSection().Exit()

	n := xlayer.GetFreeNode(d.mac.FreePool())
	if n == nil {
		return ErrQueueFull
	}
	n.Frame.UserPayload = true
	n.Frame.UserPayloadBuf = buf
	n.Frame.SourceAddress = conn.SourceAddress
	n.Frame.DestinationAddress = conn.DestinationAddress
	if !conn.TxQueue.Enqueue(n) {
		xlayer.FreeNode(n)
		return ErrQueueFull
	}
	return nil
}

// Read dequeues the oldest received frame's payload on the connection
// registered under address, copying it into a freshly allocated slice
// (spec §6.2's read()). ok is false if nothing is waiting.
func (d *Device) Read(address uint16) (buf []byte, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, exists := d.connections[address]
	if !exists {
		return nil, false, ErrUnknownConnection
	}
	d.mac.CriticalSection().Enter()
	defer d.mac.CriticalSection().Exit()

	n := conn.RxQueue.Dequeue()
	if n == nil {
		return nil, false, nil
	}
	payload := n.Frame.Payload()
	out := make([]byte, len(payload))
	copy(out, payload)
	xlayer.FreeNode(n)
	return out, true, nil
}

// ReadToBuffer dequeues the oldest received frame's payload into the
// caller-owned dst, avoiding the allocation Read performs, returning the
// number of bytes copied. It's the allocation-free counterpart
// wps_connection_read_to_buffer models.
func (d *Device) ReadToBuffer(address uint16, dst []byte) (n int, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, exists := d.connections[address]
	if !exists {
		return 0, false, ErrUnknownConnection
	}
	d.mac.CriticalSection().Enter()
	defer d.mac.CriticalSection().Exit()

	node := conn.RxQueue.Dequeue()
	if node == nil {
		return 0, false, nil
	}
	payload := node.Frame.Payload()
	copied := copy(dst, payload)
	xlayer.FreeNode(node)
	return copied, true, nil
}

// GetFifoSize reports the number of frames currently queued for TX on the
// connection registered under address.
func (d *Device) GetFifoSize(address uint16) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, ok := d.connections[address]
	if !ok {
		return 0, ErrUnknownConnection
	}
	return conn.TxQueue.Size(), nil
}

// GetFifoFreeSpace reports how many more frames can be queued for TX on the
// connection registered under address before Send starts returning
// ErrQueueFull.
func (d *Device) GetFifoFreeSpace(address uint16) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, ok := d.connections[address]
	if !ok {
		return 0, ErrUnknownConnection
	}
	if conn.TxQueue.Cap() == 0 {
		return 0, nil
	}
	return conn.TxQueue.Cap() - conn.TxQueue.Size(), nil
}

// SetTxSuccessCallback registers fn to run (via ProcessCallback) whenever a
// frame on this connection is acknowledged successfully.
func (d *Device) SetTxSuccessCallback(address uint16, fn func(arg any), arg any) error {
	return d.setCallback(address, func(c *mac.Connection) {
		c.TxSuccessCallback, c.TxSuccessArg = fn, arg
	})
}

// SetTxFailCallback registers fn to run each time a transmission on this
// connection ends without an acknowledgement (lost or rejected ACK) or is
// held back by a failed clear-channel assessment.
func (d *Device) SetTxFailCallback(address uint16, fn func(arg any), arg any) error {
	return d.setCallback(address, func(c *mac.Connection) {
		c.TxFailCallback, c.TxFailArg = fn, arg
	})
}

// SetTxDropCallback registers fn to run when a queued frame is discarded
// after ARQ times it out. Send reports a full queue by returning
// ErrQueueFull and does not run this callback.
func (d *Device) SetTxDropCallback(address uint16, fn func(arg any), arg any) error {
	return d.setCallback(address, func(c *mac.Connection) {
		c.TxDropCallback, c.TxDropArg = fn, arg
	})
}

// SetRxSuccessCallback registers fn to run when a frame is received and
// accepted on this connection.
func (d *Device) SetRxSuccessCallback(address uint16, fn func(arg any), arg any) error {
	return d.setCallback(address, func(c *mac.Connection) {
		c.RxSuccessCallback, c.RxSuccessArg = fn, arg
	})
}

// SetEventCallback registers fn to run on connection-scoped events not
// covered by the Tx/Rx callbacks. The MAC raises it when a received frame
// finds no free node (RX overrun); connect/disconnect status transitions
// do not raise it.
func (d *Device) SetEventCallback(address uint16, fn func(arg any), arg any) error {
	return d.setCallback(address, func(c *mac.Connection) {
		c.EventCallback, c.EventArg = fn, arg
	})
}

func (d *Device) setCallback(address uint16, apply func(*mac.Connection)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, ok := d.connections[address]
	if !ok {
		return ErrUnknownConnection
	}
	apply(conn)
	return nil
}
