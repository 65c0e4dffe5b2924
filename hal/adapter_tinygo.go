//go:build tinygo

package hal

import (
	"machine"
)

type tinygoPin struct {
	pin machine.Pin
}

func (p *tinygoPin) Out(l Level) error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pin.Set(bool(l))
	return nil
}

func (p *tinygoPin) In(pull Pull) error {
	var mode machine.PinMode
	switch pull {
	case PullUp:
		mode = machine.PinInputPullup
	case PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	p.pin.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (p *tinygoPin) Read() Level { return Level(p.pin.Get()) }

func (p *tinygoPin) Watch(edge Edge, handler func()) error {
	var change machine.PinChange
	switch edge {
	case RisingEdge:
		change = machine.PinRising
	case FallingEdge:
		change = machine.PinFalling
	case BothEdges:
		change = machine.PinToggle
	default:
		return nil
	}
	return p.pin.SetInterrupt(change, func(machine.Pin) { handler() })
}

func (p *tinygoPin) Unwatch() error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

type tinygoSPI struct {
	spi *machine.SPI
	cs  machine.Pin
}

func (s *tinygoSPI) TransferBlocking(tx, rx []byte) error {
	s.cs.Low()
	err := s.spi.Tx(tx, rx)
	s.cs.High()
	return err
}

func (s *tinygoSPI) IsBusy() bool { return false }

func (s *tinygoSPI) TransferNonBlocking(tx, rx []byte, done func(err error)) error {
	err := s.TransferBlocking(tx, rx)
	if done != nil {
		done(err)
	}
	return nil
}

// TinygoConfig configures the microcontroller HAL adapter.
type TinygoConfig struct {
	SPI        *machine.SPI
	CS         machine.Pin
	Reset      machine.Pin
	IRQ        machine.Pin
	IRQHandler func()
}

// NewTinygoRadio wires a HAL Radio directly on top of machine.* primitives.
func NewTinygoRadio(cfg TinygoConfig) (*Radio, error) {
	cfg.CS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cfg.CS.High()

	var irqWrapped Pin
	if cfg.IRQ != machine.NoPin {
		irqWrapped = &tinygoPin{pin: cfg.IRQ}
	}

	return NewRadio(&tinygoSPI{spi: cfg.SPI, cs: cfg.CS}, &tinygoPin{pin: cfg.Reset}, irqWrapped, cfg.IRQHandler)
}
