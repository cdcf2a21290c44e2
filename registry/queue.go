package registry

import (
	"container/heap"

	"github.com/radiusxyz/lightbulb/domain"
)

// auctionHeap is a min-heap of pending AuctionInfo ordered ascending by
// StartTime, ties broken by AuctionId, satisfying container/heap.Interface.
type auctionHeap []domain.AuctionInfo

func (h auctionHeap) Len() int { return len(h) }

func (h auctionHeap) Less(i, j int) bool {
	if h[i].StartTime != h[j].StartTime {
		return h[i].StartTime < h[j].StartTime
	}
	return h[i].AuctionId < h[j].AuctionId
}

func (h auctionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *auctionHeap) Push(x any) {
	*h = append(*h, x.(domain.AuctionInfo))
}

func (h *auctionHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// pendingQueue wraps auctionHeap behind the heap.Interface so callers never
// touch container/heap directly.
type pendingQueue struct {
	h auctionHeap
}

func newPendingQueue() *pendingQueue {
	q := &pendingQueue{h: auctionHeap{}}
	heap.Init(&q.h)
	return q
}

func (q *pendingQueue) push(info domain.AuctionInfo) {
	heap.Push(&q.h, info)
}

func (q *pendingQueue) peek() (domain.AuctionInfo, bool) {
	if len(q.h) == 0 {
		return domain.AuctionInfo{}, false
	}
	return q.h[0], true
}

func (q *pendingQueue) pop() (domain.AuctionInfo, bool) {
	if len(q.h) == 0 {
		return domain.AuctionInfo{}, false
	}
	return heap.Pop(&q.h).(domain.AuctionInfo), true
}
