package hnsw

// priorityQueueItem pairs a node ID with its distance to the query.
type priorityQueueItem struct {
	Distance float32
	Node     int
}

// priorityQueue is a heap of candidates. Order false sorts as a
// min-heap (closest on top), Order true as a max-heap (furthest on
// top, used to cap the candidate set).
type priorityQueue struct {
	items []*priorityQueueItem
	Order bool
}

func (pq *priorityQueue) Len() int { return len(pq.items) }

func (pq *priorityQueue) Less(i, j int) bool {
	if pq.Order {
		return pq.items[i].Distance > pq.items[j].Distance
	}
	return pq.items[i].Distance < pq.items[j].Distance
}

func (pq *priorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *priorityQueue) Push(x any) {
	pq.items = append(pq.items, x.(*priorityQueueItem))
}

func (pq *priorityQueue) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	pq.items = old[:n-1]
	return item
}

// Top returns the root of the heap without removing it.
func (pq *priorityQueue) Top() any {
	if len(pq.items) == 0 {
		return nil
	}
	return pq.items[0]
}
