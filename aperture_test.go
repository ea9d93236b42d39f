package diffract

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/diffract/render"
	"github.com/gogpu/gputypes"
)

func newApertureImage(t *testing.T, n int) *render.Image {
	t.Helper()
	img, err := render.NewImage(n, n, gputypes.TextureFormatR32Float)
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	return img
}

// TestComposeRange verifies the mask is a transmittance function: every
// value in [0,1], with a nonempty opening and a closed border.
func TestComposeRange(t *testing.T) {
	img := newApertureImage(t, 64)
	c := NewApertureComposer()

	if err := c.Compose(img, OpticalProfile{FNumber: 4, Size: 0.5, Glare: 0}, 0); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	var open int
	for i, v := range img.Pix() {
		if v < 0 || v > 1 || math.IsNaN(float64(v)) {
			t.Fatalf("mask value out of range at %d: %g", i, v)
		}
		if v > 0.5 {
			open++
		}
	}
	if open == 0 {
		t.Error("mask has no opening")
	}
	// Corners are far outside any physically sane pupil radius.
	if img.Pix()[0] != 0 {
		t.Errorf("corner not fully closed: %g", img.Pix()[0])
	}
}

// TestComposeDeterministic verifies equal accumulated time produces
// bit-identical masks: the micro-animation is a pure function of time.
func TestComposeDeterministic(t *testing.T) {
	a := newApertureImage(t, 64)
	b := newApertureImage(t, 64)
	c := NewApertureComposer()
	profile := DefaultProfile()

	if err := c.Compose(a, profile, 1.25); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if err := c.Compose(b, profile, 1.25); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	for i := range a.Pix() {
		if a.Pix()[i] != b.Pix()[i] {
			t.Fatalf("masks differ at %d: %g vs %g", i, a.Pix()[i], b.Pix()[i])
		}
	}
}

// TestComposeMicroAnimation verifies advancing time perturbs the mask
// without changing its gross shape (total transmission nearly constant).
func TestComposeMicroAnimation(t *testing.T) {
	a := newApertureImage(t, 64)
	b := newApertureImage(t, 64)
	c := NewApertureComposer()
	profile := DefaultProfile()

	if err := c.Compose(a, profile, 0); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if err := c.Compose(b, profile, 0.0371); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	changed := false
	var sumA, sumB float64
	for i := range a.Pix() {
		if a.Pix()[i] != b.Pix()[i] {
			changed = true
		}
		sumA += float64(a.Pix()[i])
		sumB += float64(b.Pix()[i])
	}
	if !changed {
		t.Error("mask did not move with time")
	}
	if math.Abs(sumA-sumB) > 0.02*sumA {
		t.Errorf("gross shape changed: transmission %g vs %g", sumA, sumB)
	}
}

// TestComposeSizeOpensPupil verifies a larger Size yields a larger opening.
func TestComposeSizeOpensPupil(t *testing.T) {
	small := newApertureImage(t, 64)
	large := newApertureImage(t, 64)
	c := NewApertureComposer()

	if err := c.Compose(small, OpticalProfile{FNumber: 4, Size: 0.1}, 0); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if err := c.Compose(large, OpticalProfile{FNumber: 4, Size: 0.9}, 0); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	var sumSmall, sumLarge float64
	for i := range small.Pix() {
		sumSmall += float64(small.Pix()[i])
		sumLarge += float64(large.Pix()[i])
	}
	if sumLarge <= sumSmall {
		t.Errorf("larger Size did not open the pupil: %g vs %g", sumLarge, sumSmall)
	}
}

// TestComposeGlareAddsHalo verifies Glare adds transmission outside the
// main opening.
func TestComposeGlareAddsHalo(t *testing.T) {
	plain := newApertureImage(t, 64)
	glared := newApertureImage(t, 64)
	c := NewApertureComposer()

	if err := c.Compose(plain, OpticalProfile{FNumber: 4, Size: 0.5, Glare: 0}, 0); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if err := c.Compose(glared, OpticalProfile{FNumber: 4, Size: 0.5, Glare: 1}, 0); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	var sumPlain, sumGlared float64
	for i := range plain.Pix() {
		sumPlain += float64(plain.Pix()[i])
		sumGlared += float64(glared.Pix()[i])
	}
	if sumGlared <= sumPlain {
		t.Errorf("glare did not add halo transmission: %g vs %g", sumGlared, sumPlain)
	}
}

// TestComposeClampsInsaneProfile verifies out-of-range and NaN profile
// values are tolerated without producing NaN output.
func TestComposeClampsInsaneProfile(t *testing.T) {
	img := newApertureImage(t, 32)
	c := NewApertureComposer()

	profiles := []OpticalProfile{
		{FNumber: 4, Glare: -7, Size: 42},
		{FNumber: 4, Glare: math.NaN(), Size: math.NaN()},
		{FNumber: 4, Glare: 1e30, Size: -1e30},
	}
	for _, p := range profiles {
		if err := c.Compose(img, p, 0.5); err != nil {
			t.Fatalf("Compose(%+v) error = %v", p, err)
		}
		for i, v := range img.Pix() {
			if math.IsNaN(float64(v)) || v < 0 || v > 1 {
				t.Fatalf("Compose(%+v): bad value %g at %d", p, v, i)
			}
		}
	}
}

// TestComposeValidation verifies destination checks.
func TestComposeValidation(t *testing.T) {
	c := NewApertureComposer()
	profile := DefaultProfile()

	if err := c.Compose(nil, profile, 0); !errors.Is(err, ErrNilImage) {
		t.Errorf("Compose(nil) error = %v, want ErrNilImage", err)
	}

	wrong, err := render.NewImage(32, 32, gputypes.TextureFormatRGBA32Float)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Compose(wrong, profile, 0); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Compose(RGBA32Float) error = %v, want ErrInvalidFormat", err)
	}

	dead := newApertureImage(t, 32)
	dead.Destroy()
	if err := c.Compose(dead, profile, 0); !errors.Is(err, render.ErrDestroyed) {
		t.Errorf("Compose(destroyed) error = %v, want render.ErrDestroyed", err)
	}
}
