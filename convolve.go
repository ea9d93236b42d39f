package diffract

import (
	"sync"

	"github.com/gogpu/diffract/internal/fft"
	"github.com/gogpu/diffract/internal/resample"
	"github.com/gogpu/diffract/render"
	"github.com/gogpu/gputypes"
)

// ConvolutionEngine convolves an arbitrary-size HDR image against the
// diffraction spectrum acting as a point-spread function, in the
// frequency domain: both the resampled source and the kernel are
// transformed, multiplied pointwise per channel and inverse-transformed.
// For kernels comparable in size to the image this is equivalent to, and
// vastly cheaper than, spatial convolution.
//
// The engine is planned for one square working resolution (twice the
// spectrum's side length) and caches FFT plans and scratch buffers for
// it; it is recreated on a quality tier change. Not safe for concurrent
// use.
type ConvolutionEngine struct {
	workSize int

	// One plan and transform workspace per color channel, so the three
	// channels can run on separate goroutines.
	plans   [3]*fft.Plan
	srcFreq [3][]complex128
	kerFreq [3][]complex128
	embed   [3][]float64
	kernel  [3][]float64

	work []float32 // source resampled to the working grid, RGBA
	out  []float32 // composited working-grid result, RGBA
}

// NewConvolutionEngine creates a convolution engine with the given square
// working resolution. The spectrum passed to Convolve must measure
// exactly half the working resolution per axis.
func NewConvolutionEngine(workSize int) *ConvolutionEngine {
	n := workSize * workSize
	e := &ConvolutionEngine{
		workSize: workSize,
		work:     make([]float32, n*4),
		out:      make([]float32, n*4),
	}
	for c := range 3 {
		e.plans[c] = fft.NewPlan(workSize, workSize)
		e.srcFreq[c] = make([]complex128, n)
		e.kerFreq[c] = make([]complex128, n)
		e.embed[c] = make([]float64, n)
		e.kernel[c] = make([]float64, n)
	}
	return e
}

// WorkSize returns the square working resolution the engine was planned
// for.
func (e *ConvolutionEngine) WorkSize() int { return e.workSize }

// Convolve convolves source against the centered spectrum kernel and
// writes the composited result into target. Source and target must have
// identical dimensions; both are RGBA32Float and may be any resolution.
//
// Sources that fit the working grid are zero-padded into its center and
// cropped back, so the kernel's geometry holds in source pixels. Larger
// sources are resampled down to the grid and the result back up.
//
// The kernel is normalized to unit gain at zero frequency per channel, so
// the source's mean intensity is preserved. A channel whose spectrum is
// all zero passes the source through unchanged; an all-zero spectrum
// therefore reproduces the source exactly.
//
// When scaleCorrection is true, only the diffraction contribution passes
// through the working grid and the source keeps its full sharpness; when
// false the entire composite inherits the working resolution.
func (e *ConvolutionEngine) Convolve(target, source, spectrum *render.Image, scaleCorrection bool) error {
	if target == nil || source == nil || spectrum == nil {
		return ErrNilImage
	}
	if target.Destroyed() || source.Destroyed() || spectrum.Destroyed() {
		return render.ErrDestroyed
	}
	if target.Format() != gputypes.TextureFormatRGBA32Float ||
		source.Format() != gputypes.TextureFormatRGBA32Float ||
		spectrum.Format() != gputypes.TextureFormatRGBA32Float {
		return ErrInvalidFormat
	}
	if target.Width() != source.Width() || target.Height() != source.Height() {
		return ErrSizeMismatch
	}
	k := spectrum.Width()
	if spectrum.Height() != k || 2*k != e.workSize {
		return ErrSizeMismatch
	}

	specPix := spectrum.Pix()

	// Per-channel kernel weight. Zero-frequency gain is the kernel's
	// spatial sum, so these normalize the multiply to unit DC gain.
	var weight [3]float64
	for i := 0; i < k*k; i++ {
		weight[0] += float64(specPix[i*4+0])
		weight[1] += float64(specPix[i*4+1])
		weight[2] += float64(specPix[i*4+2])
	}
	if weight[0] <= 0 && weight[1] <= 0 && weight[2] <= 0 {
		// Degenerate kernel: no diffraction contribution at all.
		return target.CopyFrom(source)
	}

	s := e.workSize
	w, h := source.Width(), source.Height()
	srcPix := source.Pix()
	dstPix := target.Pix()

	// Sources that fit the working grid are embedded centered with zero
	// padding; the kernel then acts at native pixel scale. Oversized
	// sources are squeezed onto the grid instead.
	pad := w <= s && h <= s
	offX, offY := 0, 0
	if pad {
		offX, offY = (s-w)/2, (s-h)/2
		clear(e.work)
		for y := 0; y < h; y++ {
			copy(e.work[((y+offY)*s+offX)*4:], srcPix[y*w*4:(y+1)*w*4])
		}
	} else {
		// TODO: preserve aspect ratio when resampling to the square working
		// grid; non-square oversized sources currently stretch the
		// diffraction pattern horizontally or vertically.
		resample.Bilinear(e.work, s, s, srcPix, w, h, 4)
	}

	var wg sync.WaitGroup
	for c := range 3 {
		if weight[c] <= 0 {
			continue
		}
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			e.convolveChannel(c, specPix, k, weight[c])
		}(c)
	}
	wg.Wait()

	if scaleCorrection {
		// Composite only the diffraction delta through the working grid;
		// the base image keeps its native sharpness.
		for c := range 3 {
			if weight[c] <= 0 {
				for i := 0; i < s*s; i++ {
					e.out[i*4+c] = 0
				}
				continue
			}
			freq := e.srcFreq[c]
			for i := 0; i < s*s; i++ {
				e.out[i*4+c] = float32(real(freq[i])) - e.work[i*4+c]
			}
		}
		for i := 0; i < s*s; i++ {
			e.out[i*4+3] = 0
		}
		if pad {
			for y := 0; y < h; y++ {
				row := e.out[((y+offY)*s+offX)*4:]
				for x := 0; x < w*4; x++ {
					i := y*w*4 + x
					dstPix[i] = srcPix[i] + row[x]
				}
			}
			return nil
		}
		delta := make([]float32, w*h*4)
		resample.Bilinear(delta, w, h, e.out, s, s, 4)
		for i := range dstPix {
			dstPix[i] = srcPix[i] + delta[i]
		}
		return nil
	}

	// Whole composite at working resolution.
	for c := range 3 {
		if weight[c] <= 0 {
			for i := 0; i < s*s; i++ {
				e.out[i*4+c] = e.work[i*4+c]
			}
			continue
		}
		freq := e.srcFreq[c]
		for i := 0; i < s*s; i++ {
			e.out[i*4+c] = float32(real(freq[i]))
		}
	}
	for i := 0; i < s*s; i++ {
		e.out[i*4+3] = e.work[i*4+3]
	}
	if pad {
		for y := 0; y < h; y++ {
			start := ((y+offY)*s + offX) * 4
			copy(dstPix[y*w*4:(y+1)*w*4], e.out[start:start+w*4])
		}
		return nil
	}
	resample.Bilinear(dstPix, w, h, e.out, s, s, 4)
	return nil
}

// convolveChannel runs the frequency-domain convolution for one color
// channel. On return, the real parts of e.srcFreq[c] hold the blurred
// working-grid channel.
func (e *ConvolutionEngine) convolveChannel(c int, specPix []float32, k int, weight float64) {
	s := e.workSize
	plan := e.plans[c]

	// Source channel transform.
	src := e.srcFreq[c]
	for i := 0; i < s*s; i++ {
		src[i] = complex(float64(e.work[i*4+c]), 0)
	}
	plan.Forward(src)

	// Kernel: embed the centered spectrum in the working grid, move its
	// center to the origin, normalize to unit sum and transform.
	embed := e.embed[c]
	clear(embed)
	off := (s - k) / 2
	inv := 1 / weight
	for y := 0; y < k; y++ {
		row := embed[(y+off)*s+off:]
		for x := 0; x < k; x++ {
			row[x] = float64(specPix[(y*k+x)*4+c]) * inv
		}
	}
	fft.IShift(e.kernel[c], embed, s, s)

	ker := e.kerFreq[c]
	for i, v := range e.kernel[c] {
		ker[i] = complex(v, 0)
	}
	plan.Forward(ker)

	// Pointwise multiply and inverse transform. gonum transforms are
	// unnormalized, so the round trip is rescaled by the grid area.
	for i := range src {
		src[i] *= ker[i]
	}
	plan.Inverse(src)
	area := complex(float64(s*s), 0)
	for i := range src {
		src[i] /= area
	}
}
