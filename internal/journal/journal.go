// Package journal provides a bounded in-memory record of handled requests.
package journal

import (
	"sync"
	"time"
)

// Entry records one completed request/response cycle.
type Entry struct {
	Time       time.Time
	Method     string
	Path       string
	ClientAddr string
	Status     int
	Duration   time.Duration
}

// Journal is a fixed-capacity ring buffer of request entries. At capacity
// the oldest entry is evicted first. Safe for concurrent use. All access
// goes through its methods; there is no ambient global.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
	head    int // index of the next write
	count   int
	total   uint64
}

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 1000

// New creates a Journal holding at most capacity entries.
func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{entries: make([]Entry, capacity)}
}

// Append records an entry, evicting the oldest when full.
func (j *Journal) Append(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[j.head] = e
	j.head = (j.head + 1) % len(j.entries)
	if j.count < len(j.entries) {
		j.count++
	}
	j.total++
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Total returns the number of entries ever appended, including evicted ones.
func (j *Journal) Total() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.total
}

// Recent returns up to n retained entries in chronological order,
// oldest first. n <= 0 returns all retained entries.
func (j *Journal) Recent(n int) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	if n <= 0 || n > j.count {
		n = j.count
	}
	out := make([]Entry, n)
	// Oldest retained entry sits at head-count (mod cap); we want the
	// last n of the retained window.
	start := j.head - n
	if start < 0 {
		start += len(j.entries)
	}
	for i := 0; i < n; i++ {
		out[i] = j.entries[(start+i)%len(j.entries)]
	}
	return out
}
