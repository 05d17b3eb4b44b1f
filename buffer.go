package shade

import "math"

// gridBuffer holds the accumulator state for one partition: a dense
// height x width grid of cells, each cell spanning one or more float64
// planes as dictated by the reduction's layout. A buffer is owned
// exclusively by the chunk task that fills it until it is merged, so no
// locking is needed during rasterization.
type gridBuffer struct {
	width  int
	height int
	planes int
	red    Reduction

	// data is plane-major: plane*(width*height) + row*width + col.
	data []float64
}

// newGridBuffer allocates a buffer initialized to the reduction's
// identity value.
func newGridBuffer(width, height int, red Reduction) *gridBuffer {
	p := red.planes()
	b := &gridBuffer{
		width:  width,
		height: height,
		planes: p,
		red:    red,
		data:   make([]float64, p*width*height),
	}
	b.reset()
	return b
}

// reset fills the buffer with the reduction's identity.
func (b *gridBuffer) reset() {
	n := b.width * b.height
	switch b.red.Kind {
	case Min:
		fill(b.data[:n], math.Inf(1))
	case Max:
		fill(b.data[:n], math.Inf(-1))
	case First, Last:
		// Value plane stays zero; the sequence plane at -1 marks "never
		// touched" and is what finalize keys off.
		fill(b.data[n:2*n], -1)
	default:
		// Zero already.
	}
}

func (b *gridBuffer) idx(plane, row, col int) int {
	return plane*b.width*b.height + row*b.width + col
}

func (b *gridBuffer) at(plane, row, col int) float64 {
	return b.data[b.idx(plane, row, col)]
}

func fill(s []float64, v float64) {
	for i := range s {
		s[i] = v
	}
}
