package phase

import "gonum.org/v1/gonum/mat"

// SmoothWindow returns the largest odd Savitzky-Golay window not above
// min(maxWindow, ⌊n/3⌋·2+1) that can fit a polynomial of the given order.
// It returns 0 when the signal is too short to smooth.
func SmoothWindow(n, maxWindow, order int) int {
	w := (n/3)*2 + 1
	if maxWindow < w {
		w = maxWindow
	}
	if w%2 == 0 {
		w--
	}
	if w <= order || w > n {
		return 0
	}
	return w
}

// Smooth applies a Savitzky-Golay filter: a least-squares polynomial of
// the given order is fitted over each window and evaluated at the sample.
// The first and last half-windows are evaluated on the polynomial fitted
// to the edge window. A zero window returns a copy of the input.
func Smooth(signal []float64, window, order int) []float64 {
	out := make([]float64, len(signal))
	copy(out, signal)

	n := len(signal)
	if window <= order || window > n || window%2 == 0 {
		return out
	}

	h, ok := projection(window, order)
	if !ok {
		return out
	}

	half := window / 2
	for i := 0; i < n; i++ {
		start, row := i-half, half
		switch {
		case i < half:
			start, row = 0, i
		case i >= n-half:
			start, row = n-window, i-(n-window)
		}

		var v float64
		for j := 0; j < window; j++ {
			v += h.At(row, j) * signal[start+j]
		}
		out[i] = v
	}

	return out
}

// projection builds the hat matrix A(AᵀA)⁻¹Aᵀ of the polynomial design
// matrix A over sample offsets -half..half. Row r of the result gives the
// fitted value at offset r.
func projection(window, order int) (*mat.Dense, bool) {
	half := window / 2

	a := mat.NewDense(window, order+1, nil)
	for r := 0; r < window; r++ {
		x := float64(r - half)
		p := 1.0
		for c := 0; c <= order; c++ {
			a.Set(r, c, p)
			p *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, false
	}

	var h mat.Dense
	h.Product(a, &inv, a.T())
	return &h, true
}
