package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func alwaysNonEmpty(*Connection) bool { return true }

func TestHighestMainConnIndexPicksLowestPriorityNonEmpty(t *testing.T) {
	conns := []*Connection{{}, {}, {}}
	priorities := []uint8{2, 0, 1}

	idx := highestMainConnIndex(conns, priorities, alwaysNonEmpty)
	require.Equal(t, 1, idx)
}

func TestHighestMainConnIndexSkipsEmptyQueues(t *testing.T) {
	conns := []*Connection{{}, {}, {}}
	priorities := []uint8{0, 1, 2}
	nonEmpty := func(c *Connection) bool { return c != conns[0] }

	idx := highestMainConnIndex(conns, priorities, nonEmpty)
	require.Equal(t, 1, idx)
}

func TestHighestMainConnIndexAllEmptyReturnsNegativeOne(t *testing.T) {
	conns := []*Connection{{}, {}}
	priorities := []uint8{0, 1}

	idx := highestMainConnIndex(conns, priorities, func(*Connection) bool { return false })
	require.Equal(t, -1, idx)
}

func TestHighestAutoConnIndexIgnoresNilEntries(t *testing.T) {
	conns := []*Connection{nil, {}, {}}
	priorities := []uint8{0, 0, 1}

	idx := highestAutoConnIndex(conns, priorities, alwaysNonEmpty)
	require.Equal(t, 1, idx)
}
