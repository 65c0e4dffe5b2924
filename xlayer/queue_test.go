package xlayer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolHandsOutDistinctNodes(t *testing.T) {
	pool := InitPool(3)
	require.Equal(t, 3, pool.Size())

	var got []*Node
	for i := 0; i < 3; i++ {
		n := GetFreeNode(pool)
		require.NotNil(t, n)
		got = append(got, n)
	}
	require.Nil(t, GetFreeNode(pool))
	require.Equal(t, 0, pool.Size())

	for _, n := range got {
		FreeNode(n)
	}
	require.Equal(t, 3, pool.Size())
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	pool := InitPool(1)
	n := GetFreeNode(pool)
	require.NotNil(t, n)

	q := InitQueue(4)
	require.True(t, q.Enqueue(n))
	require.Equal(t, 1, q.Size())

	got := q.Dequeue()
	require.Same(t, n, got)
	require.True(t, q.IsEmpty())
	require.Nil(t, q.Dequeue())
}

func TestEnqueueAtHeadThenDequeueReturnsPrepended(t *testing.T) {
	pool := InitPool(2)
	a := GetFreeNode(pool)
	b := GetFreeNode(pool)

	q := InitQueue(0)
	require.True(t, q.Enqueue(a))
	require.True(t, q.EnqueueAtHead(b))

	require.Same(t, b, q.Dequeue())
	require.Same(t, a, q.Dequeue())
}

func TestQueueFullReturnsFalseWithoutCorruption(t *testing.T) {
	pool := InitPool(2)
	a := GetFreeNode(pool)
	b := GetFreeNode(pool)

	q := InitQueue(1)
	require.True(t, q.Enqueue(a))
	require.False(t, q.Enqueue(b))
	require.Equal(t, 1, q.Size())
}

func TestCopyCountDefersReturnToHomeQueue(t *testing.T) {
	pool := InitPool(1)
	n := GetFreeNode(pool)
	IncCopyCount(n)
	require.Equal(t, 2, n.CopyCount())

	FreeNode(n)
	require.Equal(t, 0, pool.Size(), "node must not return to the pool while a second owner still holds it")

	FreeNode(n)
	require.Equal(t, 1, pool.Size())
}

func TestFlushDrainsAndFreesEveryNode(t *testing.T) {
	pool := InitPool(3)
	q := InitQueue(0)
	for i := 0; i < 3; i++ {
		q.Enqueue(GetFreeNode(pool))
	}
	require.Equal(t, 0, pool.Size())

	Flush(q)
	require.True(t, q.IsEmpty())
	require.Equal(t, 3, pool.Size())
}
