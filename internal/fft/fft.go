// Package fft provides 2D discrete Fourier transforms over flat,
// row-major complex grids, built on gonum's dsp/fourier package.
//
// Transforms follow gonum's convention: they are unnormalized, so a
// forward transform followed by an inverse multiplies the input by w*h.
// Callers divide by the grid area after a round trip.
package fft

import "gonum.org/v1/gonum/dsp/fourier"

// Plan holds the precomputed row and column transforms for one grid
// size. Creating a plan is comparatively expensive (twiddle factor
// setup), so callers working at a fixed resolution should reuse one.
//
// Plan is not safe for concurrent use; use one Plan per goroutine.
type Plan struct {
	w, h   int
	row    *fourier.CmplxFFT
	col    *fourier.CmplxFFT
	colBuf []complex128
}

// NewPlan creates a transform plan for a w by h grid.
func NewPlan(w, h int) *Plan {
	p := &Plan{
		w:      w,
		h:      h,
		row:    fourier.NewCmplxFFT(w),
		colBuf: make([]complex128, h),
	}
	if h == w {
		p.col = p.row
	} else {
		p.col = fourier.NewCmplxFFT(h)
	}
	return p
}

// Size returns the plan's grid dimensions.
func (p *Plan) Size() (w, h int) { return p.w, p.h }

// Forward computes the in-place forward 2D DFT of grid, which must hold
// exactly w*h row-major samples.
func (p *Plan) Forward(grid []complex128) {
	p.transform(grid, true)
}

// Inverse computes the in-place inverse 2D DFT of grid, unnormalized:
// the caller divides by w*h to recover the original scale.
func (p *Plan) Inverse(grid []complex128) {
	p.transform(grid, false)
}

func (p *Plan) transform(grid []complex128, forward bool) {
	// Rows first, then columns; the 2D DFT is separable.
	for y := 0; y < p.h; y++ {
		row := grid[y*p.w : (y+1)*p.w]
		if forward {
			p.row.Coefficients(row, row)
		} else {
			p.row.Sequence(row, row)
		}
	}
	for x := 0; x < p.w; x++ {
		for y := 0; y < p.h; y++ {
			p.colBuf[y] = grid[y*p.w+x]
		}
		if forward {
			p.col.Coefficients(p.colBuf, p.colBuf)
		} else {
			p.col.Sequence(p.colBuf, p.colBuf)
		}
		for y := 0; y < p.h; y++ {
			grid[y*p.w+x] = p.colBuf[y]
		}
	}
}

// Shift moves the zero-frequency sample of a row-major w by h grid to
// the grid center (the fftshift operation). dst and src must not alias.
func Shift(dst, src []float64, w, h int) {
	shift(dst, src, w, h, w/2, h/2)
}

// IShift moves a centered zero-frequency sample back to the grid origin
// (the ifftshift operation), undoing Shift for any grid size. dst and
// src must not alias.
func IShift(dst, src []float64, w, h int) {
	shift(dst, src, w, h, (w+1)/2, (h+1)/2)
}

func shift(dst, src []float64, w, h, sx, sy int) {
	for y := 0; y < h; y++ {
		yy := (y + sy) % h
		for x := 0; x < w; x++ {
			xx := (x + sx) % w
			dst[yy*w+xx] = src[y*w+x]
		}
	}
}
