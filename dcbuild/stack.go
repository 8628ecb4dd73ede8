package dcbuild

import "sync/atomic"

// taskStack is a bounded, lock-free, multi-producer/multi-consumer stack
// of *task values, sized to the worker count. It is the global task store
// the original worker pool distributes octree-construction work through;
// each worker pushes to it first and falls back to a thread-local
// overflow stack (see Build in build.go) when it is full, and pops from
// that overflow stack before this one.
//
// Slot ownership is handed off through the pointer stored in each slot:
// a slot is empty when its pointer is nil. top packs the current stack
// size together with a tag that increments on every successful push or
// pop, giving the monotonic generation counter the design calls for as
// defense against a CAS on the bare size value being confused by
// interleaved push/pop pairs that happen to cancel out.
type taskStack struct {
	slots []atomic.Pointer[task]
	top   atomic.Uint64 // packed (size:32, tag:32)
}

func newTaskStack(capacity int) *taskStack {
	return &taskStack{slots: make([]atomic.Pointer[task], capacity)}
}

func packTop(size, tag uint32) uint64       { return uint64(size)<<32 | uint64(tag) }
func unpackTop(v uint64) (size, tag uint32) { return uint32(v >> 32), uint32(v) }

// push attempts to add t to the stack, returning false if it is full.
func (s *taskStack) push(t *task) bool {
	for {
		old := s.top.Load()
		size, tag := unpackTop(old)
		if int(size) >= len(s.slots) {
			return false
		}
		next := packTop(size+1, tag+1)
		if s.top.CompareAndSwap(old, next) {
			s.slots[size].Store(t)
			return true
		}
	}
}

// pop removes and returns the top task, or nil if the stack is empty.
func (s *taskStack) pop() *task {
	for {
		old := s.top.Load()
		size, tag := unpackTop(old)
		if size == 0 {
			return nil
		}
		next := packTop(size-1, tag+1)
		if s.top.CompareAndSwap(old, next) {
			idx := size - 1
			// The pusher that reserved this slot may not have finished
			// its Store yet; spin briefly until the value is visible.
			// This window is bounded by a single Store instruction on
			// the pusher's side, never by another goroutine's scheduling
			// delay beyond that.
			for {
				if v := s.slots[idx].Swap(nil); v != nil {
					return v
				}
			}
		}
	}
}
