package diffract

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gogpu/diffract/internal/fft"
	"github.com/gogpu/diffract/internal/parallel"
	"github.com/gogpu/diffract/render"
	"github.com/gogpu/gputypes"
)

// referenceFNumber is the f-number at which the reference wavelength's
// diffraction pattern is taken at unit spatial scale.
const referenceFNumber = 2.0

// DiffractionEngine computes the far-field diffraction pattern of a pupil
// mask: the squared magnitude of its 2D Fourier transform, rescaled per
// sampled visible wavelength, weighted by the CIE color response and
// accumulated into a 3-channel point-spread function.
//
// The output is centered (zero spatial frequency at the image center) so
// it can be used directly as a convolution kernel, and its total energy
// matches the aperture's (Parseval invariant): the sum of squared channel
// magnitudes over the spectrum equals the sum of squared mask values.
//
// The engine holds the FFT plan and scratch buffers for one aperture
// resolution; it is not safe for concurrent use.
type DiffractionEngine struct {
	size int
	plan *fft.Plan

	grid    []complex128 // aperture transform workspace
	mag     []float64    // squared magnitude, DC at origin
	shifted []float64    // squared magnitude, DC centered
	accum   [3][]float64 // per-channel spectrum accumulation
}

// NewDiffractionEngine creates a diffraction engine for square aperture
// masks of the given side length.
func NewDiffractionEngine(apertureSize int) *DiffractionEngine {
	n := apertureSize * apertureSize
	e := &DiffractionEngine{
		size:    apertureSize,
		plan:    fft.NewPlan(apertureSize, apertureSize),
		grid:    make([]complex128, n),
		mag:     make([]float64, n),
		shifted: make([]float64, n),
	}
	for c := range e.accum {
		e.accum[c] = make([]float64, n)
	}
	return e
}

// Size returns the aperture side length the engine was planned for.
func (e *DiffractionEngine) Size() int { return e.size }

// Diffract computes the color diffraction spectrum of the aperture mask
// and writes it into dst. Both images must be square with the engine's
// planned side length; aperture must be R32Float and dst RGBA32Float.
//
// The f-number scales the effective physical aperture diameter: larger
// values mean a smaller opening and a proportionally broader pattern.
// Non-positive or non-finite values fail with [ErrInvalidOpticalParameter].
//
// A degenerate all-zero aperture yields an all-zero spectrum.
func (e *DiffractionEngine) Diffract(dst, aperture *render.Image, fNumber float64) error {
	if !(fNumber > 0) || math.IsInf(fNumber, 1) {
		return ErrInvalidOpticalParameter
	}
	if dst == nil || aperture == nil {
		return ErrNilImage
	}
	if dst.Destroyed() || aperture.Destroyed() {
		return render.ErrDestroyed
	}
	if aperture.Format() != gputypes.TextureFormatR32Float ||
		dst.Format() != gputypes.TextureFormatRGBA32Float {
		return ErrInvalidFormat
	}
	n := e.size
	if aperture.Width() != n || aperture.Height() != n ||
		dst.Width() != n || dst.Height() != n {
		return ErrSizeMismatch
	}

	apPix := aperture.Pix()
	dstPix := dst.Pix()

	// Reference energy for the Parseval normalization.
	var apertureEnergy float64
	for _, v := range apPix {
		apertureEnergy += float64(v) * float64(v)
	}
	if apertureEnergy == 0 {
		Logger().Debug("diffract: degenerate all-zero aperture")
		clear(dstPix)
		return nil
	}

	// Far-field pattern of the mask: squared magnitude of its 2D DFT,
	// shifted so zero frequency sits at the image center.
	for i, v := range apPix {
		e.grid[i] = complex(float64(v), 0)
	}
	e.plan.Forward(e.grid)
	for i, v := range e.grid {
		re, im := real(v), imag(v)
		e.mag[i] = re*re + im*im
	}
	fft.Shift(e.shifted, e.mag, n, n)

	// Per-wavelength accumulation. The pattern of wavelength lambda is the
	// reference pattern scaled about the center by s(lambda); the 1/s^2
	// compensation keeps each wavelength's integrated energy constant.
	for c := range e.accum {
		clear(e.accum[c])
	}
	weights := sampleWeights()
	center := float64(n / 2)

	for k := range wavelengthSteps {
		lambda := wavelengthMin + (wavelengthMax-wavelengthMin)*float64(k)/float64(wavelengthSteps-1)
		s := (fNumber / referenceFNumber) * (lambda / referenceWavelength)
		inv := 1 / s
		gain := inv * inv
		w := weights[k]

		parallel.For(n, 0, func(start, end int) {
			for y := start; y < end; y++ {
				sy := center + (float64(y)-center)*inv
				for x := 0; x < n; x++ {
					sx := center + (float64(x)-center)*inv
					v := bilinear(e.shifted, n, sx, sy) * gain
					if v == 0 {
						continue
					}
					i := y*n + x
					e.accum[0][i] += w[0] * v
					e.accum[1][i] += w[1] * v
					e.accum[2][i] += w[2] * v
				}
			}
		})
	}

	// Parseval normalization: total spectrum energy equals the aperture's.
	var specEnergy float64
	for c := range e.accum {
		specEnergy += floats.Dot(e.accum[c], e.accum[c])
	}
	if specEnergy == 0 {
		clear(dstPix)
		return nil
	}
	scale := math.Sqrt(apertureEnergy / specEnergy)
	for c := range e.accum {
		floats.Scale(scale, e.accum[c])
	}

	for i := 0; i < n*n; i++ {
		dstPix[i*4+0] = float32(e.accum[0][i])
		dstPix[i*4+1] = float32(e.accum[1][i])
		dstPix[i*4+2] = float32(e.accum[2][i])
		dstPix[i*4+3] = 0
	}
	return nil
}

// sampleWeights returns the per-wavelength linear RGB weights, normalized
// per channel so a flat spectrum stays neutral.
func sampleWeights() [wavelengthSteps][3]float64 {
	var w [wavelengthSteps][3]float64
	var sum [3]float64
	for k := range wavelengthSteps {
		lambda := wavelengthMin + (wavelengthMax-wavelengthMin)*float64(k)/float64(wavelengthSteps-1)
		r, g, b := wavelengthRGB(lambda)
		w[k] = [3]float64{r, g, b}
		sum[0] += r
		sum[1] += g
		sum[2] += b
	}
	for k := range w {
		for c := range w[k] {
			if sum[c] > 0 {
				w[k][c] /= sum[c]
			}
		}
	}
	return w
}

// bilinear samples a square grid at fractional coordinates; positions
// outside the grid read as zero.
func bilinear(grid []float64, n int, x, y float64) float64 {
	if x < 0 || y < 0 || x > float64(n-1) || y > float64(n-1) {
		return 0
	}
	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 > n-1 {
		x1 = n - 1
	}
	if y1 > n-1 {
		y1 = n - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	top := grid[y0*n+x0] + fx*(grid[y0*n+x1]-grid[y0*n+x0])
	bot := grid[y1*n+x0] + fx*(grid[y1*n+x1]-grid[y1*n+x0])
	return top + fy*(bot-top)
}
