package shade

import "math"

// This file holds the per-reduction accumulator kernels: combine (apply
// one sample to a cell), merge (fold one partition's cell into another),
// and finalize (convert accumulator state to the reported value). The
// kernels are monomorphic per kind, dispatched by a single switch; the
// driver hoists the dispatch out of the pixel loop where it matters.

// combine applies one sample with value v at (row, col). v may be NaN to
// mean "missing": missing values are excluded from every accumulator,
// except that a field-less Count still counts the touch. seq is the
// sample's total-order key for First/Last and is ignored elsewhere.
func (b *gridBuffer) combine(row, col int, v float64, seq int64) {
	i := row*b.width + col
	n := b.width * b.height
	switch b.red.Kind {
	case Count:
		if b.red.hasField() && math.IsNaN(v) {
			return
		}
		b.data[i]++
	case Sum:
		if math.IsNaN(v) {
			return
		}
		b.data[i] += v
	case Min:
		if math.IsNaN(v) {
			return
		}
		if v < b.data[i] {
			b.data[i] = v
		}
	case Max:
		if math.IsNaN(v) {
			return
		}
		if v > b.data[i] {
			b.data[i] = v
		}
	case Mean:
		if math.IsNaN(v) {
			return
		}
		b.data[i] += v
		b.data[n+i]++
	case Var, Std:
		if math.IsNaN(v) {
			return
		}
		// Welford's running moments: count, mean, M2.
		cnt := b.data[i] + 1
		d := v - b.data[n+i]
		mean := b.data[n+i] + d/cnt
		b.data[i] = cnt
		b.data[n+i] = mean
		b.data[2*n+i] += d * (v - mean)
	case First:
		if math.IsNaN(v) {
			return
		}
		if s := b.data[n+i]; s < 0 || float64(seq) < s {
			b.data[i] = v
			b.data[n+i] = float64(seq)
		}
	case Last:
		if math.IsNaN(v) {
			return
		}
		if s := b.data[n+i]; float64(seq) > s {
			b.data[i] = v
			b.data[n+i] = float64(seq)
		}
	case Mode, CountCat:
		if math.IsNaN(v) {
			return
		}
		cat := int(v)
		if cat < 0 || cat >= b.planes {
			return
		}
		b.data[cat*n+i]++
	}
}

// merge folds src into dst cell by cell. Both buffers must share
// dimensions and reduction; the driver guarantees this. merge is
// associative and commutative for every kind except First/Last, which
// instead resolve by sequence key, giving a total order over sample
// origin regardless of merge order.
func merge(dst, src *gridBuffer) {
	n := dst.width * dst.height
	switch dst.red.Kind {
	case Count, Sum:
		for i := range n {
			dst.data[i] += src.data[i]
		}
	case Min:
		for i := range n {
			if src.data[i] < dst.data[i] {
				dst.data[i] = src.data[i]
			}
		}
	case Max:
		for i := range n {
			if src.data[i] > dst.data[i] {
				dst.data[i] = src.data[i]
			}
		}
	case Mean:
		for i := range 2 * n {
			dst.data[i] += src.data[i]
		}
	case Var, Std:
		// Chan et al. pairwise moment combination.
		for i := range n {
			na, nb := dst.data[i], src.data[i]
			if nb == 0 {
				continue
			}
			if na == 0 {
				dst.data[i] = src.data[i]
				dst.data[n+i] = src.data[n+i]
				dst.data[2*n+i] = src.data[2*n+i]
				continue
			}
			nt := na + nb
			d := src.data[n+i] - dst.data[n+i]
			dst.data[n+i] += d * nb / nt
			dst.data[2*n+i] += src.data[2*n+i] + d*d*na*nb/nt
			dst.data[i] = nt
		}
	case First:
		for i := range n {
			sa, sb := dst.data[n+i], src.data[n+i]
			if sb >= 0 && (sa < 0 || sb < sa) {
				dst.data[i] = src.data[i]
				dst.data[n+i] = sb
			}
		}
	case Last:
		for i := range n {
			sa, sb := dst.data[n+i], src.data[n+i]
			if sb >= 0 && sb > sa {
				dst.data[i] = src.data[i]
				dst.data[n+i] = sb
			}
		}
	case Mode, CountCat:
		for i := range dst.planes * n {
			dst.data[i] += src.data[i]
		}
	}
}

// finalize converts accumulator state into the reported value planes.
// It returns the finalized planes and, when the accumulator tracks one,
// the per-pixel valid-value counts. finalize never fails on valid
// accumulator state: it is pure arithmetic.
func (b *gridBuffer) finalize() (out []float64, counts []float64) {
	n := b.width * b.height
	switch b.red.Kind {
	case Count:
		out = append([]float64(nil), b.data[:n]...)
		counts = out
	case Sum:
		out = append([]float64(nil), b.data[:n]...)
	case Min:
		out = make([]float64, n)
		for i := range n {
			if math.IsInf(b.data[i], 1) {
				out[i] = math.NaN()
			} else {
				out[i] = b.data[i]
			}
		}
	case Max:
		out = make([]float64, n)
		for i := range n {
			if math.IsInf(b.data[i], -1) {
				out[i] = math.NaN()
			} else {
				out[i] = b.data[i]
			}
		}
	case Mean:
		out = make([]float64, n)
		counts = append([]float64(nil), b.data[n:2*n]...)
		for i := range n {
			if counts[i] == 0 {
				out[i] = math.NaN()
			} else {
				out[i] = b.data[i] / counts[i]
			}
		}
	case Var, Std:
		out = make([]float64, n)
		counts = append([]float64(nil), b.data[:n]...)
		for i := range n {
			if counts[i] == 0 {
				out[i] = math.NaN()
				continue
			}
			v := b.data[2*n+i] / counts[i]
			if b.red.Kind == Std {
				v = math.Sqrt(v)
			}
			out[i] = v
		}
	case First, Last:
		out = make([]float64, n)
		for i := range n {
			if b.data[n+i] < 0 {
				out[i] = math.NaN()
			} else {
				out[i] = b.data[i]
			}
		}
	case Mode:
		out = make([]float64, n)
		for i := range n {
			best, bestCount := -1, 0.0
			for p := range b.planes {
				if c := b.data[p*n+i]; c > bestCount {
					best, bestCount = p, c
				}
			}
			if best < 0 {
				out[i] = math.NaN()
			} else {
				out[i] = float64(best)
			}
		}
	case CountCat:
		out = append([]float64(nil), b.data...)
	}
	return out, counts
}
