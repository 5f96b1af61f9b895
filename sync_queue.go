package bricks

import "sync"

// queuePage is a circular block of elements.
type queuePage[T any] struct {
	items []T
	head  int
	count int
	next  *queuePage[T]
}

// SyncQueue is a mutex guarded FIFO queue over a linked list of pages.
// Pages emptied by TryPop are kept on a free stack and reused before new
// ones are allocated.
type SyncQueue[T any] struct {
	mu     sync.Mutex
	head   *queuePage[T]
	tail   *queuePage[T]
	free   []*queuePage[T]
	size   Pow2
	count  int
	alloc  Allocator
	params Params
}

// NewSyncQueue rounds pageSize up to a power of two.
// A nil allocator takes pages from the Go heap.
func NewSyncQueue[T any](pageSize int, a Allocator, params Params) *SyncQueue[T] {
	if pageSize <= 0 {
		panic("bricks: queue page size must be positive")
	}
	return &SyncQueue[T]{size: CeilPow2(pageSize), alloc: a, params: params}
}

// Push
func (q *SyncQueue[T]) Push(v T) {
	q.mu.Lock()
	*q.pushSlot() = v
	q.mu.Unlock()
}

// PushFunc appends a zero element and runs init on it while the lock is held.
func (q *SyncQueue[T]) PushFunc(init func(v *T)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p := q.pushSlot()
	var zero T
	*p = zero
	if init != nil {
		init(p)
	}
}

func (q *SyncQueue[T]) pushSlot() *T {
	t := q.tail
	if t == nil {
		t = q.newPage()
		q.head, q.tail = t, t
	} else if t.count == len(t.items) {
		n := q.newPage()
		t.next = n
		q.tail = n
		t = n
	}
	i := (t.head + t.count) & q.size.Mask()
	t.count++
	q.count++
	return &t.items[i]
}

// TryPop removes and returns the oldest element.
func (q *SyncQueue[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p := q.head
	if p == nil || p.count == 0 {
		return v, false
	}
	v = p.items[p.head]
	var zero T
	p.items[p.head] = zero
	p.head = (p.head + 1) & q.size.Mask()
	p.count--
	q.count--

	if p.count == 0 {
		if p == q.tail {
			p.head = 0
		} else {
			q.head = p.next
			q.retire(p)
		}
	}
	return v, true
}

// FindFunc returns a copy of the first element matching fn.
func (q *SyncQueue[T]) FindFunc(fn func(*T) bool) (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	mask := q.size.Mask()
	for p := q.head; p != nil; p = p.next {
		for i := 0; i < p.count; i++ {
			e := &p.items[(p.head+i)&mask]
			if fn(e) {
				return *e, true
			}
		}
	}
	return v, false
}

// ContainsFunc
func (q *SyncQueue[T]) ContainsFunc(fn func(*T) bool) bool {
	_, ok := q.FindFunc(fn)
	return ok
}

// Len
func (q *SyncQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Clear drops every element and retires every page.
func (q *SyncQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for p := q.head; p != nil; {
		next := p.next
		q.retire(p)
		p = next
	}
	q.head, q.tail = nil, nil
	q.count = 0
}

// Release frees every page.
func (q *SyncQueue[T]) Release() {
	q.Clear()

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range q.free {
		FreeSlice(q.alloc, p.items, q.params)
	}
	q.free = nil
}

func (q *SyncQueue[T]) newPage() *queuePage[T] {
	if n := len(q.free); n > 0 {
		p := q.free[n-1]
		q.free[n-1] = nil
		q.free = q.free[:n-1]
		return p
	}
	return &queuePage[T]{items: MakeSlice[T](q.alloc, q.size.Int(), q.params)}
}

func (q *SyncQueue[T]) retire(p *queuePage[T]) {
	clear(p.items)
	p.head, p.count, p.next = 0, 0, nil
	q.free = append(q.free, p)
}
