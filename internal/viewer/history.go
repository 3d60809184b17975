package viewer

import "github.com/rileyhilliard/hoststats/internal/metrics"

// DefaultHistorySize is how many samples the sparklines keep.
const DefaultHistorySize = 60

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{data: make([]float64, size)}
}

func (r *ringBuffer) push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// last returns up to n values, oldest first.
func (r *ringBuffer) last(n int) []float64 {
	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	start := (r.head - n + len(r.data)) % len(r.data)
	for i := 0; i < n; i++ {
		out[i] = r.data[(start+i)%len(r.data)]
	}
	return out
}

// History keeps the recent samples shown by the viewer. It lives only as
// long as the viewer does.
type History struct {
	cpu *ringBuffer
	mem *ringBuffer
}

// NewHistory creates a History holding size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{cpu: newRingBuffer(size), mem: newRingBuffer(size)}
}

// Push records a sample.
func (h *History) Push(s metrics.Sample) {
	h.cpu.push(s.CPU)
	h.mem.push(s.Memory)
}

// Len returns the number of samples held.
func (h *History) Len() int {
	return h.cpu.count
}

// CPU returns up to n recent CPU values, oldest first.
func (h *History) CPU(n int) []float64 {
	return h.cpu.last(n)
}

// Memory returns up to n recent memory values, oldest first.
func (h *History) Memory(n int) []float64 {
	return h.mem.last(n)
}
