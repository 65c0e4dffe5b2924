package hal

import (
	"sync"
	"time"
)

// loopbackPin is an in-memory Pin used by tests.
// It has no real edge detection; Watch's handler is invoked explicitly via
// Raise.
type loopbackPin struct {
	mu      sync.Mutex
	level   Level
	edge    Edge
	handler func()
}

func NewLoopbackPin() *loopbackPin { return &loopbackPin{} }

func (p *loopbackPin) Out(l Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = l
	return nil
}

func (p *loopbackPin) In(pull Pull) error { return nil }

func (p *loopbackPin) Read() Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *loopbackPin) Watch(edge Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edge = edge
	p.handler = handler
	return nil
}

func (p *loopbackPin) Unwatch() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = nil
	return nil
}

// Raise sets the pin level and, if a handler is armed, invokes it
// synchronously on the caller's goroutine — tests control scheduling
// explicitly rather than racing a simulated edge.
func (p *loopbackPin) Raise(l Level) {
	p.mu.Lock()
	p.level = l
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

// LoopbackLink connects two LoopbackSPI endpoints back to back: whatever one
// side transmits becomes available as the other side's next receive frame.
// It models one shared-medium half-duplex UWB link for simulation purposes.
type LoopbackLink struct {
	mu   sync.Mutex
	a, b chan []byte
}

func NewLoopbackLink() *LoopbackLink {
	return &LoopbackLink{a: make(chan []byte, 4), b: make(chan []byte, 4)}
}

// EndpointA and EndpointB return the two SPI-like halves of the link. Each
// implements SPI by treating every TransferBlocking as "emit tx, then copy
// the oldest not-yet-read peer frame into rx"; rx is left untouched when
// the peer has sent nothing new.
func (l *LoopbackLink) EndpointA() SPI { return &loopbackSPI{out: l.a, in: l.b} }
func (l *LoopbackLink) EndpointB() SPI { return &loopbackSPI{out: l.b, in: l.a} }

type loopbackSPI struct {
	out, in chan []byte
}

func (s *loopbackSPI) TransferBlocking(tx, rx []byte) error {
	cp := make([]byte, len(tx))
	copy(cp, tx)
	select {
	case s.out <- cp:
	default:
	}
	select {
	case frame := <-s.in:
		copy(rx, frame)
	default:
	}
	return nil
}

func (s *loopbackSPI) IsBusy() bool { return false }

func (s *loopbackSPI) TransferNonBlocking(tx, rx []byte, done func(err error)) error {
	err := s.TransferBlocking(tx, rx)
	if done != nil {
		done(err)
	}
	return nil
}

// SystemTick implements Tick on top of time.Now, counting PLL cycles at the
// frequency passed to NewSystemTick.
type SystemTick struct {
	start time.Time
	hz    uint32
}

func NewSystemTick(hz uint32) *SystemTick {
	return &SystemTick{start: time.Now(), hz: hz}
}

func (t *SystemTick) NowTicks() uint64 {
	return uint64(time.Since(t.start).Seconds() * float64(t.hz))
}

func (t *SystemTick) TickFrequencyHz() uint32 { return t.hz }
