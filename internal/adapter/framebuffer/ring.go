package framebuffer

// ringIndex holds the head/tail cursors. head is the next slot to write and
// tail the oldest unread slot; both stay in [0, size). Callers hold Buffer.mu.
type ringIndex struct {
	head int
	tail int
	size int
}

// advanceHead moves head past the slot just written and returns that slot.
// If head lands on tail the oldest frame is evicted by pushing tail forward,
// so occupancy never exceeds size-1 and the producer never waits.
func (r *ringIndex) advanceHead() (written int, evicted bool) {
	written = r.head
	r.head = (r.head + 1) % r.size
	if r.head == r.tail {
		r.tail = (r.tail + 1) % r.size
		evicted = true
	}
	return written, evicted
}

func (r *ringIndex) advanceTailBy(k int) {
	if k <= 0 {
		return
	}
	r.tail = (r.tail + k) % r.size
}

func (r *ringIndex) occupancy() int {
	return (r.head - r.tail + r.size) % r.size
}

// at maps an offset from tail onto a slot index
func (r *ringIndex) at(offset int) int {
	return (r.tail + offset) % r.size
}
