// Package hal defines the facade the WPS core consumes to drive a radio:
// SPI transactions, GPIO pins, IRQ enable/disable, and a tick source. The
// core never talks to a concrete transceiver; it only ever talks to these
// interfaces (spec §4.1, §6.1). Concrete adapters live alongside this file,
// selected at build/configuration time.
package hal

import "time"

// Level mirrors a logical pin level, kept distinct from bool so call sites
// read as hardware rather than boolean logic.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Pull is the input pin bias.
type Pull uint8

const (
	PullNoChange Pull = iota
	PullFloat
	PullDown
	PullUp
)

// Edge selects which pin transition triggers a Watch callback.
type Edge uint8

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

// Pin is a single GPIO line: reset, chip-select, or radio IRQ.
type Pin interface {
	Out(l Level) error
	In(pull Pull) error
	Read() Level
	// Watch arms an edge-triggered callback. The handler runs on whatever
	// goroutine the adapter chooses to deliver it on — callers must treat
	// it as a foreign execution context and hand off quickly.
	Watch(edge Edge, handler func()) error
	Unwatch() error
}

// SPI is a full-duplex SPI connection to the radio.
type SPI interface {
	// TransferBlocking writes tx and reads len(tx) bytes into rx,
	// returning only once the exchange has completed.
	TransferBlocking(tx, rx []byte) error
	// TransferNonBlocking starts the same exchange without blocking; done
	// is invoked from the adapter once the DMA completes and rx is valid.
	TransferNonBlocking(tx, rx []byte, done func(err error)) error
	// IsBusy reports whether a non-blocking transfer is still in flight.
	IsBusy() bool
}

// Radio bundles the pins and SPI bus of a single transceiver, plus the
// radio-IRQ and software context-switch primitives §4.1 requires.
type Radio struct {
	SPI   SPI
	Reset Pin
	IRQ   Pin

	// radioIRQEnabled tracks idempotent enable/disable calls; the PHY state
	// machine relies on double-disable/double-enable being harmless.
	radioIRQEnabled bool
	radioIRQHandler func()
}

// NewRadio wires a Radio facade on top of raw SPI/pin primitives. irqHandler
// is invoked every time the IRQ pin asserts while radio IRQs are enabled; it
// is the PHY's process() entry point.
func NewRadio(spi SPI, reset, irq Pin, irqHandler func()) (*Radio, error) {
	r := &Radio{SPI: spi, Reset: reset, IRQ: irq, radioIRQHandler: irqHandler}
	if irq != nil {
		if err := irq.In(PullUp); err != nil {
			return nil, err
		}
		if err := irq.Watch(FallingEdge, func() {
			if r.radioIRQEnabled && r.radioIRQHandler != nil {
				r.radioIRQHandler()
			}
		}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// EnableRadioIRQ is idempotent: calling it twice in a row is a no-op on the
// second call, matching the HAL contract in spec §4.1.
func (r *Radio) EnableRadioIRQ() { r.radioIRQEnabled = true }

// DisableRadioIRQ is idempotent.
func (r *Radio) DisableRadioIRQ() { r.radioIRQEnabled = false }

// RadioContextSwitch raises the radio IRQ path in software, used by the PHY
// to re-enter process() without a real interrupt (e.g. to unblock a
// close_spi retry).
func (r *Radio) RadioContextSwitch() {
	if r.radioIRQEnabled && r.radioIRQHandler != nil {
		r.radioIRQHandler()
	}
}

// Tick is the monotonic time source the MAC/PHY schedule against.
type Tick interface {
	NowTicks() uint64
	TickFrequencyHz() uint32
}

// MultiRadioTimer is the optional shared timer used when WPS_RADIO_COUNT=2
// (spec §5, multi-radio variant): it fires a periodic synchronization tick
// that flips the "current radio index" before the next PHY event.
type MultiRadioTimer interface {
	SetPeriod(d time.Duration)
	Start(callback func())
	Stop()
}

// ContextSwitch is the low-priority software interrupt used to deliver
// deferred application callbacks (P_MID in spec §5).
type ContextSwitch interface {
	Trigger()
	SetHandler(cb func())
}
