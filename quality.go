package diffract

// RenderQuality selects the working resolution of the aperture, spectrum
// and convolution stages, trading accuracy for performance.
//
// RenderQuality is a closed enumeration: only the four named tiers are
// valid. Passing any other value to New or SetQuality fails with
// [ErrInvalidQuality].
type RenderQuality int

const (
	// QualityLow uses a 256px aperture and a 512px convolution grid.
	QualityLow RenderQuality = iota + 1

	// QualityMedium uses a 512px aperture and a 1024px convolution grid.
	QualityMedium

	// QualityHigh uses a 1024px aperture and a 2048px convolution grid.
	QualityHigh

	// QualityOptimal uses a 2048px aperture and a 4096px convolution grid.
	QualityOptimal
)

// Valid reports whether q is one of the four defined tiers.
func (q RenderQuality) Valid() bool {
	return q >= QualityLow && q <= QualityOptimal
}

// String returns a string representation of the quality tier.
func (q RenderQuality) String() string {
	switch q {
	case QualityLow:
		return "Low"
	case QualityMedium:
		return "Medium"
	case QualityHigh:
		return "High"
	case QualityOptimal:
		return "Optimal"
	default:
		return "Unknown"
	}
}

// ApertureSize returns the side length in pixels of the square aperture
// mask (and diffraction spectrum) for this tier: 256, 512, 1024 or 2048.
// It returns 0 for tiers outside the closed enumeration; constructors
// report those as [ErrInvalidQuality] before any size is consumed.
func (q RenderQuality) ApertureSize() int {
	if !q.Valid() {
		return 0
	}
	return 1 << (7 + int(q))
}

// ConvolutionSize returns the side length in pixels of the square
// frequency-domain working grid for this tier. It is always exactly
// double ApertureSize on both axes.
func (q RenderQuality) ConvolutionSize() int {
	return 2 * q.ApertureSize()
}
