//go:build !tinygo

package hal

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// gpiocdevPin adapts a Linux GPIO character-device line (via go-gpiocdev) to
// the Pin interface. This is an alternative to adapter_periph.go's sysfs/
// periph.io GPIO path for boards whose kernel only exposes the chardev
// (/dev/gpiochipN) interface; SPI still goes through periph.io.
type gpiocdevPin struct {
	chip   string
	offset int
	line   *gpiocdev.Line
}

func newGpiocdevPin(chip string, offset int) *gpiocdevPin {
	return &gpiocdevPin{chip: chip, offset: offset}
}

func (p *gpiocdevPin) Out(l Level) error {
	if p.line != nil {
		p.line.Close()
	}
	val := 0
	if l == High {
		val = 1
	}
	line, err := gpiocdev.RequestLine(p.chip, p.offset, gpiocdev.AsOutput(val))
	if err != nil {
		return fmt.Errorf("hal: gpiocdev request output line: %w", err)
	}
	p.line = line
	return nil
}

func (p *gpiocdevPin) In(pull Pull) error {
	if p.line != nil {
		p.line.Close()
	}
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	switch pull {
	case PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	}
	line, err := gpiocdev.RequestLine(p.chip, p.offset, opts...)
	if err != nil {
		return fmt.Errorf("hal: gpiocdev request input line: %w", err)
	}
	p.line = line
	return nil
}

func (p *gpiocdevPin) Read() Level {
	if p.line == nil {
		return Low
	}
	v, err := p.line.Value()
	if err != nil || v == 0 {
		return Low
	}
	return High
}

func (p *gpiocdevPin) Watch(edge Edge, handler func()) error {
	if p.line != nil {
		p.line.Close()
	}

	var edgeOpt gpiocdev.LineReqOption
	switch edge {
	case RisingEdge:
		edgeOpt = gpiocdev.WithRisingEdge
	case FallingEdge:
		edgeOpt = gpiocdev.WithFallingEdge
	default:
		edgeOpt = gpiocdev.WithBothEdges
	}

	line, err := gpiocdev.RequestLine(p.chip, p.offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		edgeOpt,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { handler() }),
	)
	if err != nil {
		return fmt.Errorf("hal: gpiocdev watch line: %w", err)
	}
	p.line = line
	return nil
}

func (p *gpiocdevPin) Unwatch() error {
	if p.line == nil {
		return nil
	}
	err := p.line.Close()
	p.line = nil
	return err
}

// NewGpiocdevRadio wires a HAL Radio whose reset/IRQ pins go through the
// chardev GPIO API instead of periph.io's sysfs/gpiomem backend. The SPI
// bus is still provided by the caller (typically periph.io's, shared with
// adapter_periph.go's newPeriphSPI).
func NewGpiocdevRadio(spi SPI, chip string, resetOffset, irqOffset int, irqHandler func()) (*Radio, error) {
	reset := newGpiocdevPin(chip, resetOffset)
	var irq Pin
	if irqOffset >= 0 {
		irq = newGpiocdevPin(chip, irqOffset)
	}
	return NewRadio(spi, reset, irq, irqHandler)
}
