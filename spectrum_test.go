package diffract

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/diffract/render"
	"github.com/gogpu/gputypes"
)

func newSpectrumImage(t *testing.T, n int) *render.Image {
	t.Helper()
	img, err := render.NewImage(n, n, gputypes.TextureFormatRGBA32Float)
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	return img
}

// diskAperture fills img with a hard-edged disk of the given radius.
func diskAperture(img *render.Image, radius float64) {
	n := img.Width()
	c := float64(n) / 2
	pix := img.Pix()
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dx := float64(x) + 0.5 - c
			dy := float64(y) + 0.5 - c
			if dx*dx+dy*dy <= radius*radius {
				pix[y*n+x] = 1
			}
		}
	}
}

// spectrumEnergy sums squared RGB magnitudes over the spectrum.
func spectrumEnergy(img *render.Image) float64 {
	var e float64
	pix := img.Pix()
	for i := 0; i < len(pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(pix[i+c])
			e += v * v
		}
	}
	return e
}

// TestDiffractZeroAperture verifies the degenerate all-zero aperture
// yields an all-zero spectrum for any positive f-number, with no NaNs.
func TestDiffractZeroAperture(t *testing.T) {
	const n = 64
	aperture := newApertureImage(t, n)
	spectrum := newSpectrumImage(t, n)
	e := NewDiffractionEngine(n)

	for _, fn := range []float64{0.5, 2, 22} {
		spectrum.Fill(7, 7, 7, 7) // stale contents must be cleared
		if err := e.Diffract(spectrum, aperture, fn); err != nil {
			t.Fatalf("Diffract(fNumber=%g) error = %v", fn, err)
		}
		for i, v := range spectrum.Pix() {
			if v != 0 {
				t.Fatalf("fNumber=%g: spectrum not zero at %d: %g", fn, i, v)
			}
		}
	}
}

// TestDiffractEnergyConservation verifies the Parseval invariant: total
// spectrum energy equals total aperture energy for a non-degenerate mask.
func TestDiffractEnergyConservation(t *testing.T) {
	const n = 64
	aperture := newApertureImage(t, n)
	spectrum := newSpectrumImage(t, n)
	diskAperture(aperture, 10)

	var apertureEnergy float64
	for _, v := range aperture.Pix() {
		apertureEnergy += float64(v) * float64(v)
	}

	e := NewDiffractionEngine(n)
	if err := e.Diffract(spectrum, aperture, 2.0); err != nil {
		t.Fatalf("Diffract() error = %v", err)
	}

	got := spectrumEnergy(spectrum)
	if math.Abs(got-apertureEnergy) > 1e-3*apertureEnergy {
		t.Errorf("spectrum energy = %g, want %g (aperture energy)", got, apertureEnergy)
	}
}

// TestDiffractInvalidFNumber verifies zero, negative and non-finite
// f-numbers are rejected with ErrInvalidOpticalParameter.
func TestDiffractInvalidFNumber(t *testing.T) {
	const n = 32
	aperture := newApertureImage(t, n)
	spectrum := newSpectrumImage(t, n)
	diskAperture(aperture, 6)
	e := NewDiffractionEngine(n)

	for _, fn := range []float64{0, -1, -22.5, math.NaN(), math.Inf(1)} {
		err := e.Diffract(spectrum, aperture, fn)
		if !errors.Is(err, ErrInvalidOpticalParameter) {
			t.Errorf("Diffract(fNumber=%g) error = %v, want ErrInvalidOpticalParameter", fn, err)
		}
	}
}

// TestDiffractCentered verifies the spectrum peaks at the image center:
// zero spatial frequency must sit in the middle so the output can act
// directly as a convolution kernel.
func TestDiffractCentered(t *testing.T) {
	const n = 64
	aperture := newApertureImage(t, n)
	spectrum := newSpectrumImage(t, n)
	diskAperture(aperture, 8)

	e := NewDiffractionEngine(n)
	if err := e.Diffract(spectrum, aperture, 2.0); err != nil {
		t.Fatalf("Diffract() error = %v", err)
	}

	pix := spectrum.Pix()
	luma := func(i int) float64 {
		return float64(pix[i*4]) + float64(pix[i*4+1]) + float64(pix[i*4+2])
	}
	center := (n/2)*n + n/2
	peak := luma(center)
	if peak <= 0 {
		t.Fatal("center of spectrum is empty")
	}
	for i := 0; i < n*n; i++ {
		if luma(i) > peak {
			t.Fatalf("spectrum peak at %d (%g), not at center (%g)", i, luma(i), peak)
		}
	}
}

// TestDiffractFNumberSpread verifies a larger f-number spreads the
// pattern: energy outside the central region grows with the f-number.
func TestDiffractFNumberSpread(t *testing.T) {
	const n = 64
	aperture := newApertureImage(t, n)
	diskAperture(aperture, 8)
	e := NewDiffractionEngine(n)

	outerEnergy := func(fNumber float64) float64 {
		spectrum := newSpectrumImage(t, n)
		if err := e.Diffract(spectrum, aperture, fNumber); err != nil {
			t.Fatalf("Diffract(fNumber=%g) error = %v", fNumber, err)
		}
		pix := spectrum.Pix()
		c := float64(n) / 2
		var outer float64
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx, dy := float64(x)-c, float64(y)-c
				if dx*dx+dy*dy < 16 { // skip the central peak
					continue
				}
				i := (y*n + x) * 4
				for ch := 0; ch < 3; ch++ {
					v := float64(pix[i+ch])
					outer += v * v
				}
			}
		}
		return outer
	}

	if narrow, wide := outerEnergy(1.0), outerEnergy(8.0); wide <= narrow {
		t.Errorf("larger f-number did not spread the pattern: outer energy %g vs %g", wide, narrow)
	}
}

// TestDiffractNoNaN verifies a composed (soft-edged, glared) aperture
// produces a finite spectrum.
func TestDiffractNoNaN(t *testing.T) {
	const n = 64
	aperture := newApertureImage(t, n)
	spectrum := newSpectrumImage(t, n)
	if err := NewApertureComposer().Compose(aperture, DefaultProfile(), 0.5); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	e := NewDiffractionEngine(n)
	if err := e.Diffract(spectrum, aperture, 4.0); err != nil {
		t.Fatalf("Diffract() error = %v", err)
	}
	for i, v := range spectrum.Pix() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite spectrum value at %d: %g", i, v)
		}
		if v < 0 {
			t.Fatalf("negative spectrum value at %d: %g", i, v)
		}
	}
}

// TestDiffractValidation verifies image checks.
func TestDiffractValidation(t *testing.T) {
	const n = 32
	e := NewDiffractionEngine(n)
	aperture := newApertureImage(t, n)
	spectrum := newSpectrumImage(t, n)

	if err := e.Diffract(nil, aperture, 2); !errors.Is(err, ErrNilImage) {
		t.Errorf("nil dst error = %v, want ErrNilImage", err)
	}
	if err := e.Diffract(spectrum, nil, 2); !errors.Is(err, ErrNilImage) {
		t.Errorf("nil aperture error = %v, want ErrNilImage", err)
	}

	small := newApertureImage(t, n/2)
	if err := e.Diffract(spectrum, small, 2); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("size mismatch error = %v, want ErrSizeMismatch", err)
	}

	if err := e.Diffract(spectrum, spectrum, 2); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("wrong aperture format error = %v, want ErrInvalidFormat", err)
	}

	dead := newSpectrumImage(t, n)
	dead.Destroy()
	if err := e.Diffract(dead, aperture, 2); !errors.Is(err, render.ErrDestroyed) {
		t.Errorf("destroyed dst error = %v, want render.ErrDestroyed", err)
	}
}
