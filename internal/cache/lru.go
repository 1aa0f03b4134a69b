package cache

// entry is a node of the recency list. It carries the key so the oldest
// entry can be deleted from the map in O(1).
type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

// lruList orders entries from most (head) to least (tail) recently used.
// It is not safe for concurrent use.
type lruList[K comparable, V any] struct {
	head *entry[K, V]
	tail *entry[K, V]
	len  int
}

// Len returns the number of entries.
func (l *lruList[K, V]) Len() int { return l.len }

// PushFront inserts a new entry as the most recently used.
func (l *lruList[K, V]) PushFront(key K, value V) *entry[K, V] {
	e := &entry[K, V]{key: key, value: value}
	l.linkFront(e)
	return e
}

// MoveToFront marks e as the most recently used.
func (l *lruList[K, V]) MoveToFront(e *entry[K, V]) {
	if e == nil || e == l.head {
		return
	}
	l.unlink(e)
	l.linkFront(e)
}

// Remove unlinks e.
func (l *lruList[K, V]) Remove(e *entry[K, V]) {
	if e != nil {
		l.unlink(e)
	}
}

// RemoveOldest unlinks and returns the least recently used entry, or nil.
func (l *lruList[K, V]) RemoveOldest() *entry[K, V] {
	e := l.tail
	if e != nil {
		l.unlink(e)
	}
	return e
}

// Clear drops all entries.
func (l *lruList[K, V]) Clear() {
	l.head, l.tail, l.len = nil, nil, 0
}

func (l *lruList[K, V]) linkFront(e *entry[K, V]) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	} else {
		l.tail = e
	}
	l.head = e
	l.len++
}

func (l *lruList[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nil, nil
	l.len--
}
