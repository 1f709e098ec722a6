package inspector

import (
	"sync"
	"time"
)

// HistoryEntry is a published frame kept for replay.
type HistoryEntry struct {
	Seq    uint64    // Frame sequence number
	Frame  []byte    // Encoded frame
	SentAt time.Time // When the frame was published
}

// History is a thread-safe ring buffer of recent frames. A client that
// connects with ?after=N receives every retained frame with a higher
// sequence before live frames. The oldest entries are overwritten when full.
type History struct {
	mu       sync.RWMutex
	entries  []*HistoryEntry
	head     int    // Next write position (circular)
	count    int    // Current number of entries
	capacity int    // Max entries
	minSeq   uint64 // Lowest sequence in buffer
	maxSeq   uint64 // Highest sequence in buffer
}

// NewHistory creates a history holding up to capacity frames.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 64
	}
	return &History{
		entries:  make([]*HistoryEntry, capacity),
		capacity: capacity,
	}
}

// Add stores a frame. Sequences must increase.
func (h *History) Add(seq uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = &HistoryEntry{Seq: seq, Frame: frame, SentAt: time.Now()}
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}

	h.maxSeq = seq
	oldest := h.entries[(h.head-h.count+h.capacity)%h.capacity]
	h.minSeq = oldest.Seq
}

// Since returns the retained frames with a sequence above after, oldest
// first.
func (h *History) Since(after uint64) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var frames [][]byte
	for i := 0; i < h.count; i++ {
		entry := h.entries[(h.head-h.count+i+h.capacity)%h.capacity]
		if entry.Seq > after {
			frames = append(frames, entry.Frame)
		}
	}
	return frames
}

// CanRecover reports whether every frame after lastSeq is still retained.
func (h *History) CanRecover(lastSeq uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return false
	}
	return lastSeq+1 >= h.minSeq && lastSeq < h.maxSeq
}

// MinSeq returns the lowest retained sequence.
func (h *History) MinSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.minSeq
}

// MaxSeq returns the highest retained sequence.
func (h *History) MaxSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxSeq
}

// Count returns the number of retained frames.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
