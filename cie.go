package diffract

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Visible wavelength sampling used by the diffraction spectrum. The band
// edges carry almost no photopic response, so sampling starts just above
// 380nm and stops just below 720nm.
const (
	wavelengthMin   = 385.0 // nm
	wavelengthMax   = 715.0 // nm
	wavelengthSteps = 16
)

// referenceWavelength is the sampling point whose diffraction pattern is
// taken at unit scale; shorter wavelengths contract toward the center and
// longer ones spread outward relative to it.
const referenceWavelength = 575.0 // nm

// gaussianLobe is a piecewise Gaussian with separate left and right
// widths, the building block of the analytic CIE 1931 color-matching
// approximation (Wyman, Sloan and Shirley, JCGT 2013).
func gaussianLobe(x, mu, sigmaL, sigmaR float64) float64 {
	sigma := sigmaL
	if x >= mu {
		sigma = sigmaR
	}
	t := (x - mu) / sigma
	return math.Exp(-0.5 * t * t)
}

// cieXYZ returns the CIE 1931 standard-observer color-matching response
// for a wavelength in nanometers.
func cieXYZ(lambda float64) (x, y, z float64) {
	x = 1.056*gaussianLobe(lambda, 599.8, 37.9, 31.0) +
		0.362*gaussianLobe(lambda, 442.0, 16.0, 26.7) -
		0.065*gaussianLobe(lambda, 501.1, 20.4, 26.2)
	y = 0.821*gaussianLobe(lambda, 568.8, 46.9, 40.5) +
		0.286*gaussianLobe(lambda, 530.9, 16.3, 31.1)
	z = 1.217*gaussianLobe(lambda, 437.0, 11.8, 36.0) +
		0.681*gaussianLobe(lambda, 459.0, 26.0, 13.8)
	return x, y, z
}

// wavelengthRGB maps a wavelength in nanometers to a linear sRGB response.
// Out-of-gamut components are clamped to zero; the spectrum accumulation
// renormalizes per channel, so only the relative weights matter.
//
// This is the single color-matching convention the engine supports.
func wavelengthRGB(lambda float64) (r, g, b float64) {
	x, y, z := cieXYZ(lambda)
	r, g, b = colorful.XyzToLinearRgb(x, y, z)
	if r < 0 {
		r = 0
	}
	if g < 0 {
		g = 0
	}
	if b < 0 {
		b = 0
	}
	return r, g, b
}
