package missionary

// process is a running instance of a Publisher. It owns user-level state,
// the two intrusive subscription rings (waiting, pending), and the
// child/sibling links the reactor's pairing heap uses.
type process struct {
	parent *Publisher
	state  any
	comp   Computation

	waiting *subscription
	pending *subscription

	// pairing heap links, valid only while queued on reacted/delayed.
	child   *process
	sibling *process
}

// --- intrusive ring operations (spec.md §4.4) ---

// ringAttach inserts s immediately before head in the circular list,
// making s the new tail, and returns the (possibly new) head.
func ringAttach(head *subscription, s *subscription) *subscription {
	if head == nil {
		s.next = s
		s.prev = s
		return s
	}
	s.prev = head.prev
	s.next = head
	head.prev.next = s
	head.prev = s
	return head
}

// ringDetach removes s from its ring and clears its links. headPtr is
// updated if s was the head; it is set to nil if s was the sole member.
func ringDetach(headPtr **subscription, s *subscription) {
	if s.next == nil && s.prev == nil {
		return // already detached
	}
	if s.next == s {
		*headPtr = nil
	} else {
		s.prev.next = s.next
		s.next.prev = s.prev
		if *headPtr == s {
			*headPtr = s.next
		}
	}
	s.prev = nil
	s.next = nil
}

// ringForeach iterates the ring starting at head.next through head (i.e.
// every member, insertion order, head visited last), setting eng.sub
// around each call to f so user code can observe which subscription is
// current. Tolerates f removing the current node via ringDetach.
func ringForeach(eng *Engine, head *subscription, f func(s *subscription)) {
	if head == nil {
		return
	}
	saved := eng.sub
	s := head.next
	for {
		next := s.next
		cur := s
		atHead := cur == head
		eng.sub = cur
		f(cur)
		if atHead || next == cur {
			break // visited head last, or cur removed itself as the sole member
		}
		s = next
	}
	eng.sub = saved
}

// dispatch removes s from whichever ring headPtr points at and pushes it
// onto the front of its target process's publisher prop list (so the list
// is drained LIFO), scheduling a notification.
func dispatch(headPtr **subscription, s *subscription) {
	ringDetach(headPtr, s)
	pub := s.target.parent
	s.propNext = pub.prop
	pub.prop = s
}
