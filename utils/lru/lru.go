// Package lru interns frequently repeated names (rpc names, header names) so
// decoding a long stream of frames does not allocate the same strings over and over.
package lru

import (
	"container/list"
	"sync"
)

type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type LRU struct {
	maxSize int
	items   map[string]*list.Element
	list    *list.List
	stats   Stats
	mu      sync.Mutex
}

func New(maxSize int) *LRU {
	if maxSize < 1 {
		panic("assertion error: maxSize < 1")
	}
	return &LRU{
		maxSize: maxSize,
		items:   make(map[string]*list.Element, maxSize),
		list:    list.New(),
	}
}

// GetOrAdd returns the interned string equal to keyB, adding it and evicting
// the least recently used entry when the cache is full.
func (l *LRU) GetOrAdd(keyB []byte) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	// string(keyB) in a map index does not allocate.
	element, ok := l.items[string(keyB)]
	if ok {
		l.stats.Hits++
		l.list.MoveToFront(element)
		return element.Value.(string)
	}

	l.stats.Misses++
	if len(l.items) >= l.maxSize {
		element = l.list.Back()
		l.list.Remove(element)
		delete(l.items, element.Value.(string))
		l.stats.Evictions++
	}

	keyS := string(keyB)
	l.items[keyS] = l.list.PushFront(keyS)
	return keyS
}

func (l *LRU) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *LRU) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
