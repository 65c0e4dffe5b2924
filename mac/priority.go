package mac

// maxConnPerTimeslot bounds how many connections can share a single
// timeslot (spec §4.5.2's WPS_MAX_CONN_PER_TIMESLOT); priorities range over
// [0, maxConnPerTimeslot-1], lower value meaning higher priority.
const maxConnPerTimeslot = 3

// maxConnPriority is the highest legal priority value.
const maxConnPriority = maxConnPerTimeslot - 1

// connNonEmptyFn reports whether a connection has a main-TX frame ready: a
// nil connection, or one with an empty TX queue, is never selected.
type connNonEmptyFn func(conn *Connection) bool

// highestMainConnIndex returns the index of the highest-priority (lowest
// priority number) connection in conns whose predicate reports true,
// grounded on wps_conn_priority_get_highest_main_conn_index. Returns -1 if
// none qualify.
func highestMainConnIndex(conns []*Connection, priorities []uint8, nonEmpty connNonEmptyFn) int {
	return highestIndex(conns, priorities, nonEmpty)
}

// highestAutoConnIndex is the auto-reply-connection analogue of
// highestMainConnIndex (wps_conn_priority_get_highest_auto_conn_index):
// same selection rule, applied to the timeslot's auto-reply candidates.
func highestAutoConnIndex(conns []*Connection, priorities []uint8, nonEmpty connNonEmptyFn) int {
	return highestIndex(conns, priorities, nonEmpty)
}

func highestIndex(conns []*Connection, priorities []uint8, nonEmpty connNonEmptyFn) int {
	best := -1
	bestPriority := uint8(maxConnPriority) + 1
	for i, c := range conns {
		if c == nil || !nonEmpty(c) {
			continue
		}
		if priorities[i] < bestPriority {
			bestPriority = priorities[i]
			best = i
		}
	}
	return best
}
