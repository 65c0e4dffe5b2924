package xlayer

import "errors"

var (
	// ErrQueueFull names a queue at MaxSize. Enqueue and EnqueueAtHead do
	// not return it; they report that case by returning false.
	ErrQueueFull = errors.New("xlayer: queue full")
)

// Node owns one Frame plus the bookkeeping spec §3/§4.2.1 calls for: a next
// link, the queue it returns to when freed, and a refcount (CopyCount) so
// the same frame can be referenced from more than one queue (e.g. the TX
// queue and a retransmit-pending view) without copying or heap allocation.
type Node struct {
	Frame     Frame
	next      *Node
	homeQueue *Queue
	copyCount int
}

// Queue is a singly linked, bounded FIFO of Nodes. All mutating operations
// must run inside a CriticalSection per spec §4.2.1; callers own that
// section (the Queue itself does not grab one, so a caller can batch several
// operations inside a single Enter/Exit).
type Queue struct {
	head, tail *Node
	size       int
	maxSize    int
}

// InitQueue returns an empty transit queue bounded at maxSize. maxSize == 0
// means unbounded (used for the free pool, which is never enqueued into by
// application code beyond its fixed population).
func InitQueue(maxSize int) *Queue {
	return &Queue{maxSize: maxSize}
}

// InitPool lays out numNodes back to back, all homed on a single free
// queue, each starting with CopyCount 1 — the only allocation of Node
// values the subsystem ever performs.
func InitPool(numNodes int) *Queue {
	pool := &Queue{maxSize: 0}
	nodes := make([]Node, numNodes)
	for i := range nodes {
		n := &nodes[i]
		n.homeQueue = pool
		n.copyCount = 1
		pool.enqueueTail(n)
	}
	return pool
}

func (q *Queue) enqueueTail(n *Node) {
	n.next = nil
	if q.tail == nil {
		q.head, q.tail = n, n
	} else {
		q.tail.next = n
		q.tail = n
	}
	q.size++
}

// Size returns the current element count.
func (q *Queue) Size() int { return q.size }

// IsEmpty reports whether the queue has no nodes.
func (q *Queue) IsEmpty() bool { return q.head == nil }

// Cap returns the queue's MaxSize, or 0 for an unbounded queue (the free
// pool).
func (q *Queue) Cap() int { return q.maxSize }

// GetFreeNode dequeues a node from a free pool. Returns nil if the pool is
// exhausted.
func GetFreeNode(freeQueue *Queue) *Node {
	return freeQueue.Dequeue()
}

// FreeNode returns n to its home queue if CopyCount has reached 1 (the last
// owner), otherwise just decrements the refcount. Must run inside a
// CriticalSection.
func FreeNode(n *Node) {
	if n == nil {
		return
	}
	if n.copyCount <= 1 {
		n.copyCount = 1
		n.Frame.Reset()
		if n.homeQueue != nil {
			n.homeQueue.enqueueTail(n)
		}
		return
	}
	n.copyCount--
}

// IncCopyCount bumps the refcount when the same node is about to be
// referenced by a second queue.
func IncCopyCount(n *Node) {
	if n != nil {
		n.copyCount++
	}
}

// CopyCount reports the node's current refcount (tests/diagnostics only).
func (n *Node) CopyCount() int { return n.copyCount }

// Enqueue appends n at the tail. Returns false if the queue is already at
// MaxSize (MaxSize == 0 means unbounded).
func (q *Queue) Enqueue(n *Node) bool {
	if q.maxSize != 0 && q.size >= q.maxSize {
		return false
	}
	q.enqueueTail(n)
	return true
}

// EnqueueAtHead prepends n — used for priority reinsertion (e.g. putting a
// CCA-deferred frame back at the front of the connection's TX queue).
func (q *Queue) EnqueueAtHead(n *Node) bool {
	if q.maxSize != 0 && q.size >= q.maxSize {
		return false
	}
	n.next = q.head
	q.head = n
	if q.tail == nil {
		q.tail = n
	}
	q.size++
	return true
}

// Dequeue removes and returns the head node, or nil if empty.
func (q *Queue) Dequeue() *Node {
	if q.head == nil {
		return nil
	}
	n := q.head
	q.head = n.next
	if q.head == nil {
		q.tail = nil
	}
	n.next = nil
	q.size--
	return n
}

// Peek returns the head node without removing it.
func (q *Queue) Peek() *Node {
	return q.head
}

// Flush repeatedly dequeues and frees every node in q.
func Flush(q *Queue) {
	for {
		n := q.Dequeue()
		if n == nil {
			return
		}
		FreeNode(n)
	}
}
