//go:build !tinygo

package hal

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/kidd971/wps/wpslog"
)

// pullLevels and edgeKinds are lookup tables in place of a switch per call:
// In consults pullLevels and Watch consults edgeKinds, and a map miss (a
// Pull/Edge value outside the ones this HAL defines) falls back to
// gpio.PullNoChange or gpio.NoEdge the same way a switch's default case
// would.
var pullLevels = map[Pull]gpio.Pull{
	PullFloat: gpio.Float,
	PullDown:  gpio.PullDown,
	PullUp:    gpio.PullUp,
}

var edgeKinds = map[Edge]gpio.Edge{
	RisingEdge:  gpio.RisingEdge,
	FallingEdge: gpio.FallingEdge,
	BothEdges:   gpio.BothEdges,
}

// periphPin adapts a periph.io gpio.PinIO to the Pin interface spec §4.1's
// HAL boundary requires: level-named Out/In/Read plus an edge-triggered
// Watch/Unwatch pair driving the radio IRQ line.
type periphPin struct {
	gpio.PinIO
	name      string
	stopWatch chan struct{}
}

func (p *periphPin) Out(l Level) error {
	if l == High {
		return p.PinIO.Out(gpio.High)
	}
	return p.PinIO.Out(gpio.Low)
}

func (p *periphPin) In(pull Pull) error {
	level, ok := pullLevels[pull]
	if !ok {
		level = gpio.PullNoChange
	}
	return p.PinIO.In(level, gpio.NoEdge)
}

func (p *periphPin) Read() Level {
	if p.PinIO.Read() == gpio.High {
		return High
	}
	return Low
}

// Watch arms edge detection and starts a goroutine blocking on WaitForEdge
// until Unwatch closes stopWatch. periph.io's WaitForEdge(-1) can also
// return false without an edge (the underlying epoll wait was interrupted);
// that case is treated as "check stopWatch and keep waiting", never as a
// spurious handler call.
func (p *periphPin) Watch(edge Edge, handler func()) error {
	kind, ok := edgeKinds[edge]
	if !ok {
		kind = gpio.NoEdge
	}

	if err := p.PinIO.In(gpio.PullUp, kind); err != nil {
		return err
	}

	p.stopWatch = make(chan struct{})
	wpslog.Debug("hal: gpio watch armed on " + p.name)
	go p.watchLoop(handler, p.stopWatch)
	return nil
}

func (p *periphPin) watchLoop(handler func(), stop chan struct{}) {
	for {
		edgeFired := p.PinIO.WaitForEdge(-1)
		select {
		case <-stop:
			return
		default:
		}
		if edgeFired {
			handler()
		}
	}
}

func (p *periphPin) Unwatch() error {
	if p.stopWatch != nil {
		close(p.stopWatch)
		p.stopWatch = nil
		wpslog.Debug("hal: gpio watch disarmed on " + p.name)
	}
	return p.PinIO.In(gpio.PullUp, gpio.NoEdge)
}

// periphSPI adapts a periph.io spi.Conn, offering the blocking/non-blocking
// split the WPS PHY relies on (§4.1). periph.io itself is always
// synchronous, so the "non-blocking" half runs the transfer on a goroutine
// and calls done from there — the PHY never assumes which goroutine that
// callback lands on.
type periphSPI struct {
	conn spi.Conn
	busy chan struct{}
}

func newPeriphSPI(conn spi.Conn) *periphSPI {
	return &periphSPI{conn: conn, busy: make(chan struct{}, 1)}
}

func (s *periphSPI) TransferBlocking(tx, rx []byte) error {
	return s.conn.Tx(tx, rx)
}

func (s *periphSPI) IsBusy() bool {
	select {
	case s.busy <- struct{}{}:
		<-s.busy
		return false
	default:
		return true
	}
}

func (s *periphSPI) TransferNonBlocking(tx, rx []byte, done func(err error)) error {
	select {
	case s.busy <- struct{}{}:
	default:
		return fmt.Errorf("hal: spi busy")
	}
	go func() {
		err := s.conn.Tx(tx, rx)
		<-s.busy
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// PeriphConfig configures the Linux/periph.io HAL adapter.
type PeriphConfig struct {
	SpiBusPath  string
	SpiClockHz  int
	ResetGPIO   string
	IRQGPIO     string
	IRQHandler  func()
}

// NewPeriphRadio opens an SPI bus and two GPIO lines (reset, IRQ) through
// periph.io and returns a HAL Radio wired to them.
func NewPeriphRadio(cfg PeriphConfig) (*Radio, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hal: periph.io host init: %w", err)
	}

	busPath := cfg.SpiBusPath
	if busPath == "" {
		busPath = "/dev/spidev0.0"
	}
	port, err := spireg.Open(busPath)
	if err != nil {
		return nil, fmt.Errorf("hal: open spi port: %w", err)
	}

	hz := cfg.SpiClockHz
	if hz == 0 {
		hz = 1_000_000
	}
	conn, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("hal: spi connect: %w", err)
	}

	resetPin := gpioreg.ByName(cfg.ResetGPIO)
	if resetPin == nil {
		port.Close()
		return nil, fmt.Errorf("hal: reset gpio %q not found", cfg.ResetGPIO)
	}

	var irqWrapped Pin
	if cfg.IRQGPIO != "" {
		irqPin := gpioreg.ByName(cfg.IRQGPIO)
		if irqPin == nil {
			port.Close()
			return nil, fmt.Errorf("hal: irq gpio %q not found", cfg.IRQGPIO)
		}
		irqWrapped = &periphPin{PinIO: irqPin, name: cfg.IRQGPIO}
	}

	return NewRadio(newPeriphSPI(conn), &periphPin{PinIO: resetPin, name: cfg.ResetGPIO}, irqWrapped, cfg.IRQHandler)
}
