package scheduler

import "container/heap"

// timerHeap implements container/heap.Interface for timerEvent,
// earliest fire time first.
type timerHeap []timerEvent

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(timerEvent))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *timerHeap, e timerEvent) {
	heap.Push(h, e)
}

// heapPop panics on an empty heap.
func heapPop(h *timerHeap) timerEvent {
	return heap.Pop(h).(timerEvent)
}

// heapRemove drops the entry for k, reporting whether one existed.
func heapRemove(h *timerHeap, k timerKey) bool {
	for i, e := range *h {
		if e.key == k {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

// heapReplace arms k at e.at, replacing any existing entry for k.
func heapReplace(h *timerHeap, e timerEvent) {
	heapRemove(h, e.key)
	heapPush(h, e)
}
