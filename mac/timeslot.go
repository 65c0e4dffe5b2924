package mac

import "github.com/kidd971/wps/phy"

// Timeslot holds every connection that can use a given slot of the TDMA
// schedule, split into the main-frame candidates and the auto-reply
// candidates, each with its own priority array (spec §4.5.2).
// LastUsedMainConnection / LastUsedAutoConnection remember which candidate
// won the most recent pick, so a received frame with no timeslot-id
// mismatch still routes correctly when only one connection is configured.
type Timeslot struct {
	MainConnections []*Connection
	MainPriorities  []uint8
	AutoConnections []*Connection
	AutoPriorities  []uint8

	LastUsedMainConnection int
	LastUsedAutoConnection int

	// DurationPLLCycles is this slot's programmed PHY sleep duration,
	// adjustable by certification mode to delay an ACK by expected
	// receive air time (spec §4.5.9 / wps_mac_certification.c).
	DurationPLLCycles uint32

	// Config is the PHY slot configuration applied whenever this timeslot
	// is prepared.
	Config phy.SlotConfig
}

// NewTimeslot builds an empty timeslot ready to have connections appended.
func NewTimeslot() *Timeslot {
	return &Timeslot{}
}

// AddMainConnection appends a main-frame candidate at the given priority
// (spec §4.5.2; priorities must stay within [0, maxConnPriority]).
func (t *Timeslot) AddMainConnection(conn *Connection, priority uint8) {
	t.MainConnections = append(t.MainConnections, conn)
	t.MainPriorities = append(t.MainPriorities, priority)
}

// AddAutoConnection appends an auto-reply candidate at the given priority.
func (t *Timeslot) AddAutoConnection(conn *Connection, priority uint8) {
	t.AutoConnections = append(t.AutoConnections, conn)
	t.AutoPriorities = append(t.AutoPriorities, priority)
}

// anyMainEnabled reports whether at least one main connection's throttle
// pattern currently allows it to transmit/receive — used by the scheduler
// to decide whether a timeslot is skipped entirely (spec §4.5.3).
func (t *Timeslot) anyMainEnabled() bool {
	if len(t.MainConnections) == 0 {
		return true
	}
	for _, c := range t.MainConnections {
		if c != nil && c.CurrentlyEnabled {
			return true
		}
	}
	return false
}

// pickMainConnection selects this timeslot's main-frame connection by
// priority among those with a non-empty TX queue if this node is the
// source, or simply the configured (single) destination connection if this
// node is the sink — mirrored from link_scheduler_get_current_main_connection
// plus wps_conn_priority_get_highest_main_conn_index.
func (t *Timeslot) pickMainConnection(localAddress uint16) (conn *Connection, index int) {
	if len(t.MainConnections) == 0 {
		return nil, -1
	}
	nonEmpty := func(c *Connection) bool {
		if c.SourceAddress != localAddress {
			return true // we are the sink: always a candidate
		}
		return !c.TxQueueEmpty()
	}
	idx := highestMainConnIndex(t.MainConnections, t.MainPriorities, nonEmpty)
	if idx < 0 {
		idx = 0
	}
	t.LastUsedMainConnection = idx
	return t.MainConnections[idx], idx
}

// pickAutoConnection is the auto-reply analogue of pickMainConnection.
func (t *Timeslot) pickAutoConnection(localAddress uint16) (conn *Connection, index int) {
	if len(t.AutoConnections) == 0 {
		return nil, -1
	}
	nonEmpty := func(c *Connection) bool {
		if c.SourceAddress != localAddress {
			return true
		}
		return !c.TxQueueEmpty()
	}
	idx := highestAutoConnIndex(t.AutoConnections, t.AutoPriorities, nonEmpty)
	if idx < 0 {
		idx = 0
	}
	t.LastUsedAutoConnection = idx
	return t.AutoConnections[idx], idx
}
