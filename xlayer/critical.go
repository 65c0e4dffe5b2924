package xlayer

import "sync"

// CriticalSection is the nestable IRQ-disable primitive spec §4.2.3
// requires: Enter disables interrupts and bumps a depth counter; Exit
// decrements it and only re-enables interrupts once depth reaches zero.
//
// On real firmware the disable/enable pair are a single compiler intrinsic
// that masks IRQs process-wide; this Go port takes the pair as injected
// functions (defaulting to no-ops) and serializes access with a mutex so the
// nesting depth itself stays correct under concurrent goroutines standing in
// for IRQ contexts, per the Design Note on the critical-section depth
// counter.
type CriticalSection struct {
	mu      sync.Mutex
	depth   int
	disable func()
	enable  func()
}

// NewCriticalSection builds a critical section around the given
// disable/enable IRQ callbacks. Either may be nil.
func NewCriticalSection(disable, enable func()) *CriticalSection {
	return &CriticalSection{disable: disable, enable: enable}
}

// Enter disables interrupts and increments the nesting depth.
func (c *CriticalSection) Enter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.depth == 0 && c.disable != nil {
		c.disable()
	}
	c.depth++
}

// Exit decrements the nesting depth, re-enabling interrupts only when it
// reaches zero.
func (c *CriticalSection) Exit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.depth == 0 {
		return
	}
	c.depth--
	if c.depth == 0 && c.enable != nil {
		c.enable()
	}
}

// Depth reports the current nesting depth, mostly for tests.
func (c *CriticalSection) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}
