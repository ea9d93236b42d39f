package diffract

import (
	"math"

	"github.com/gogpu/diffract/internal/parallel"
	"github.com/gogpu/diffract/render"
	"github.com/gogpu/gputypes"
)

// Pupil geometry, all relative to the smaller image dimension. The gross
// shape depends only on the optical profile; time drives micro-animation
// that never changes the opening's overall silhouette.
const (
	// pupilRadiusBase and pupilRadiusRange map Size in [0,1] to an opening
	// radius between 18% and 48% of the mask.
	pupilRadiusBase  = 0.18
	pupilRadiusRange = 0.30

	// Edge softness shrinks as the pupil opens: a dilated pupil has a
	// better-defined rim than a constricted one.
	edgeSoftnessBase  = 0.006
	edgeSoftnessRange = 0.020

	// Glare adds a broad, low-amplitude transmission halo around the
	// opening. The halo widens the aperture's low-frequency content, which
	// is what produces the glare/starburst component of the diffraction
	// spectrum downstream.
	haloGain   = 0.08
	haloRadius = 1.8 // multiple of the pupil radius

	// Ocular micro-tremor: two incommensurate sinusoids in the
	// physiological 70-90Hz band jitter the pupil center by a fraction of
	// a pixel-scale amount. Hippus is the much slower involuntary radius
	// oscillation.
	tremorAmplitude = 0.0015 // fraction of the mask size
	tremorFreqX     = 83.7   // Hz
	tremorFreqY     = 76.1   // Hz
	hippusAmplitude = 0.004  // fraction of the pupil radius
	hippusFreq      = 0.9    // Hz
)

// ApertureComposer synthesizes the time-varying grayscale pupil mask that
// the diffraction stage transforms. The mask models the eye pupil's
// effective transmittance: 1 inside the opening, 0 outside, with a soft
// rim and an optional glare halo.
//
// The f-number is deliberately not part of the mask shape. It relates
// focal length to aperture diameter, so it scales the effective physical
// aperture used by [DiffractionEngine] instead.
type ApertureComposer struct{}

// NewApertureComposer creates a new aperture composer.
func NewApertureComposer() *ApertureComposer {
	return &ApertureComposer{}
}

// Compose writes the pupil mask for the given profile and accumulated
// simulation time into dst, a caller-owned single-channel float image.
// Equal elapsed values produce bit-identical output.
//
// Profile values are clamped to sane ranges internally; Compose has no
// failure modes beyond an unusable destination image.
func (c *ApertureComposer) Compose(dst *render.Image, profile OpticalProfile, elapsed float64) error {
	if dst == nil {
		return ErrNilImage
	}
	if dst.Destroyed() {
		return render.ErrDestroyed
	}
	if dst.Format() != gputypes.TextureFormatR32Float {
		return ErrInvalidFormat
	}

	w, h := dst.Width(), dst.Height()
	size := clamp01(profile.Size)
	glare := clamp01(profile.Glare)

	dim := float64(min(w, h))
	radius := (pupilRadiusBase + pupilRadiusRange*size) * dim
	soft := (edgeSoftnessBase + edgeSoftnessRange*(1-size)) * dim

	// Micro-animation: center jitter and slow radius oscillation.
	cx := float64(w)/2 + tremorAmplitude*dim*math.Sin(2*math.Pi*tremorFreqX*elapsed)
	cy := float64(h)/2 + tremorAmplitude*dim*math.Cos(2*math.Pi*tremorFreqY*elapsed+1.3)
	radius *= 1 + hippusAmplitude*math.Sin(2*math.Pi*hippusFreq*elapsed+0.5)

	haloSigma := haloRadius * radius
	pix := dst.Pix()

	parallel.For(h, 0, func(start, end int) {
		for y := start; y < end; y++ {
			dy := float64(y) + 0.5 - cy
			for x := 0; x < w; x++ {
				dx := float64(x) + 0.5 - cx
				d := math.Sqrt(dx*dx + dy*dy)

				// Soft-edged opening.
				t := clamp01((radius + soft - d) / (2 * soft))
				m := t * t * (3 - 2*t)

				// Glare halo.
				if glare > 0 {
					r := d / haloSigma
					m += glare * haloGain * math.Exp(-r*r)
				}

				pix[y*w+x] = float32(clamp01(m))
			}
		}
	})

	return nil
}

// clamp01 clamps v to [0,1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if !(v > 0) { // catches NaN
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
