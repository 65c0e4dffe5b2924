package mac

// callbackQueueDepth bounds the deferred-callback ring: MAC/PHY enqueue at
// P_HI, process_callback drains at P_MID (spec §5). Sized generously above
// WPS_MAX_CONN_PER_TIMESLOT*2 so a full timeslot's worth of TX/RX/event
// callbacks never overruns it under normal operation.
const callbackQueueDepth = 16

// Callback is one deferred application notification: a function plus its
// opaque argument, queued from IRQ context and run later at task level.
type Callback struct {
	Fn  func(arg any)
	Arg any
}

// CallbackQueue is a single-producer/single-consumer ring buffer, matching
// the firmware's lock-free SP/SC design where the producer (MAC, at P_HI)
// and consumer (ProcessCallback, at P_MID) are different interrupt
// priorities on one core and so never truly run at once. This Go port runs
// both contexts as goroutines instead of interrupt levels, so the SP/SC
// shape alone does not protect q.size/head/tail from a genuine data race;
// wps.Device's mutex, held across every entry point including
// ProcessCallback, is what actually serializes producer and consumer here.
// CallbackQueue itself stays lock-free by design — callers own mutual
// exclusion, the same contract xlayer.Queue documents.
type CallbackQueue struct {
	buf        [callbackQueueDepth]Callback
	head, tail int
	size       int
}

// Enqueue appends cb. Returns false if the queue is full (a full callback
// queue means the application isn't draining ProcessCallback fast enough;
// the caller drops the notification rather than blocking the radio core).
func (q *CallbackQueue) Enqueue(cb Callback) bool {
	if q.size == callbackQueueDepth {
		return false
	}
	q.buf[q.tail] = cb
	q.tail = (q.tail + 1) % callbackQueueDepth
	q.size++
	return true
}

// Dequeue removes and returns the oldest callback. ok is false when empty.
func (q *CallbackQueue) Dequeue() (cb Callback, ok bool) {
	if q.size == 0 {
		return Callback{}, false
	}
	cb = q.buf[q.head]
	q.head = (q.head + 1) % callbackQueueDepth
	q.size--
	return cb, true
}

// Len reports the number of pending callbacks.
func (q *CallbackQueue) Len() int { return q.size }

// ProcessCallback drains and runs every pending callback. This is the P_MID
// context-switch entry point the application task calls (spec §6.2's
// process_callback()).
func (q *CallbackQueue) ProcessCallback() {
	for {
		cb, ok := q.Dequeue()
		if !ok {
			return
		}
		if cb.Fn != nil {
			cb.Fn(cb.Arg)
		}
	}
}
