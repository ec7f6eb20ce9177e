package gzinspect

// TailBuffer retains the most recent capacity chunks of a stream without
// materializing the whole sequence. Slots are reused in physical insertion
// order, so the retained chunks are not necessarily stored in chunk-number
// order; Buffered reconstructs chronological order from the circular layout.
type TailBuffer struct {
	chunks    []*ChunkInfo
	capacity  int
	totalSeen int
}

// NewTailBuffer creates a TailBuffer holding at most capacity chunks
func NewTailBuffer(capacity int) *TailBuffer {
	return &TailBuffer{
		chunks:   make([]*ChunkInfo, 0, capacity),
		capacity: capacity,
	}
}

// Add records a chunk, overwriting the oldest slot once the buffer is full.
// A buffer with zero capacity counts the chunk but retains nothing.
func (tb *TailBuffer) Add(chunk *ChunkInfo) {
	if tb.capacity <= 0 {
		tb.totalSeen++
		return
	}
	if len(tb.chunks) < tb.capacity {
		tb.chunks = append(tb.chunks, chunk)
	} else {
		tb.chunks[tb.totalSeen%tb.capacity] = chunk
	}
	tb.totalSeen++
}

// TotalSeen returns how many chunks have ever been added
func (tb *TailBuffer) TotalSeen() int {
	return tb.totalSeen
}

// ShouldBuffer reports whether chunkNum falls within the last capacity
// chunks seen so far
func (tb *TailBuffer) ShouldBuffer(chunkNum int) bool {
	oldest := tb.totalSeen - tb.capacity
	if oldest < 0 {
		oldest = 0
	}
	return chunkNum >= oldest
}

// Buffered returns the retained chunks oldest first. Once the buffer has
// wrapped, the physical layout splits at totalSeen % capacity: everything
// from there to the end predates everything before it.
func (tb *TailBuffer) Buffered() []*ChunkInfo {
	if tb.capacity <= 0 {
		return nil
	}
	if tb.totalSeen <= tb.capacity {
		return append([]*ChunkInfo(nil), tb.chunks...)
	}

	start := tb.totalSeen % tb.capacity
	out := make([]*ChunkInfo, 0, tb.capacity)
	out = append(out, tb.chunks[start:]...)
	out = append(out, tb.chunks[:start]...)
	return out
}
