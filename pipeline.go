package diffract

import (
	"fmt"
	"math"

	"github.com/gogpu/diffract/render"
	"github.com/gogpu/gputypes"
)

// Pipeline owns the aperture, diffraction and convolution stages and the
// image buffers flowing between them, and sequences the per-frame
// Compose -> Diffract -> Convolve chain.
//
// A Pipeline is created Ready: New validates the quality tier and
// allocates the tier's buffers. SetQuality swaps buffers when the tier
// actually changes and is a no-op otherwise. Destroy releases everything
// deterministically.
//
// The aperture and spectrum buffers are exclusively owned by the
// Pipeline. References obtained through Aperture or Spectrum are
// invalidated by the next quality change or Destroy.
//
// Pipeline is single-threaded and non-reentrant: Render and SetQuality
// must not be called concurrently. All stage work for one frame is issued
// in strict sequence, so the ordinary ordering guarantees of a single
// device queue are the only synchronization the pipeline relies on.
type Pipeline struct {
	device  render.DeviceHandle
	profile *OpticalProfile
	options *Options

	quality RenderQuality

	composer    *ApertureComposer
	diffraction *DiffractionEngine
	convolution *ConvolutionEngine

	aperture *render.Image
	spectrum *render.Image

	elapsed   float64
	destroyed bool
}

// New creates a diffraction pipeline for the given quality tier.
//
// The device handle comes from the host application; pass
// [render.NullDeviceHandle] for CPU-only operation. profile and options
// are caller-owned and read lazily on every Render call, so mutating
// their fields takes effect on the next frame; nil selects defaults.
//
// Fails with [ErrInvalidQuality] for tiers outside the closed
// enumeration.
func New(device render.DeviceHandle, quality RenderQuality, profile *OpticalProfile, options *Options) (*Pipeline, error) {
	if !quality.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(quality))
	}
	if device == nil {
		device = render.NullDeviceHandle{}
	}
	if profile == nil {
		p := DefaultProfile()
		profile = &p
	}
	if options == nil {
		o := DefaultOptions()
		options = &o
	}

	p := &Pipeline{
		device:   device,
		profile:  profile,
		options:  options,
		composer: NewApertureComposer(),
	}
	if err := p.acquire(quality); err != nil {
		return nil, err
	}
	Logger().Info("diffract: pipeline created",
		"quality", quality.String(),
		"aperture", quality.ApertureSize(),
		"convolution", quality.ConvolutionSize(),
		"gpu", device.Queue() != nil)
	return p, nil
}

// acquire allocates buffers and engines for a tier and installs them,
// releasing any previous set only after the new one exists.
func (p *Pipeline) acquire(quality RenderQuality) error {
	n := quality.ApertureSize()

	aperture, err := render.NewImage(n, n, gputypes.TextureFormatR32Float)
	if err != nil {
		return fmt.Errorf("diffract: aperture buffer: %w", err)
	}
	spectrum, err := render.NewImage(n, n, gputypes.TextureFormatRGBA32Float)
	if err != nil {
		aperture.Destroy()
		return fmt.Errorf("diffract: spectrum buffer: %w", err)
	}

	diffraction := NewDiffractionEngine(n)
	convolution := NewConvolutionEngine(quality.ConvolutionSize())

	// Acquire-new, release-old: the previous buffers are destroyed only
	// once their replacements exist. The single synchronous queue
	// guarantees prior frames no longer reference them.
	p.release()

	p.quality = quality
	p.aperture = aperture
	p.spectrum = spectrum
	p.diffraction = diffraction
	p.convolution = convolution
	return nil
}

// release destroys the pipeline-owned buffers, if any.
func (p *Pipeline) release() {
	if p.aperture != nil {
		p.aperture.Destroy()
		p.aperture = nil
	}
	if p.spectrum != nil {
		p.spectrum.Destroy()
		p.spectrum = nil
	}
	p.diffraction = nil
	p.convolution = nil
}

// SetQuality switches the pipeline to a new quality tier. If the tier
// equals the current one this is a no-op and the existing buffers are
// kept. Otherwise new buffers are allocated, the old ones released, and
// the change takes effect with the next Render call.
//
// Fails with [ErrInvalidQuality] for undefined tiers; the pipeline state
// is untouched in that case.
func (p *Pipeline) SetQuality(quality RenderQuality) error {
	if p.destroyed {
		return ErrPipelineDestroyed
	}
	if !quality.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, int(quality))
	}
	if quality == p.quality {
		return nil
	}
	old := p.quality
	if err := p.acquire(quality); err != nil {
		return err
	}
	Logger().Info("diffract: quality changed",
		"from", old.String(),
		"to", quality.String(),
		"aperture", quality.ApertureSize(),
		"convolution", quality.ConvolutionSize())
	return nil
}

// Render runs one frame: the pupil mask is composed for the accumulated
// simulation time, its diffraction spectrum computed, and the spectrum
// convolved against source into target. Source and target are
// caller-owned RGBA32Float images of identical dimensions; the pipeline
// reads source and writes target within this call only and retains no
// references afterwards.
//
// dt is the frame time in seconds and must be >= 0; it is accumulated
// after a successful frame. dt of zero leaves the simulation time, and
// therefore the composed mask, unchanged.
func (p *Pipeline) Render(target, source *render.Image, dt float64) error {
	if p.destroyed {
		return ErrPipelineDestroyed
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTimeDelta, dt)
	}
	if target == nil || source == nil {
		return ErrNilImage
	}

	// Snapshot the caller-owned configuration once per frame.
	profile := *p.profile
	options := *p.options
	if !(profile.FNumber > 0) || math.IsInf(profile.FNumber, 1) {
		return ErrInvalidOpticalParameter
	}

	if err := p.composer.Compose(p.aperture, profile, p.elapsed); err != nil {
		return fmt.Errorf("diffract: compose: %w", err)
	}
	if err := p.diffraction.Diffract(p.spectrum, p.aperture, profile.FNumber); err != nil {
		return fmt.Errorf("diffract: spectrum: %w", err)
	}
	if err := p.convolution.Convolve(target, source, p.spectrum, options.ScaleCorrection); err != nil {
		return fmt.Errorf("diffract: convolve: %w", err)
	}

	p.elapsed += dt
	return nil
}

// Quality returns the active quality tier.
func (p *Pipeline) Quality() RenderQuality { return p.quality }

// Elapsed returns the accumulated simulation time in seconds. It is
// monotonic and resets only when a new pipeline is constructed.
func (p *Pipeline) Elapsed() float64 { return p.elapsed }

// Profile returns the pipeline's optical profile. The pointer is the one
// passed to New (or the created default); mutate its fields to change the
// next frame.
func (p *Pipeline) Profile() *OpticalProfile { return p.profile }

// Options returns the pipeline's convolution options, mutable in the same
// way as Profile.
func (p *Pipeline) Options() *Options { return p.options }

// Aperture exposes the internal pupil mask buffer for diagnostics. The
// image is owned by the pipeline: do not destroy it, and treat the
// reference as invalidated by SetQuality and Destroy.
func (p *Pipeline) Aperture() *render.Image { return p.aperture }

// Spectrum exposes the internal diffraction spectrum buffer for
// diagnostics, under the same ownership rules as Aperture.
func (p *Pipeline) Spectrum() *render.Image { return p.spectrum }

// Destroy releases the pipeline's buffers. Destroy is idempotent; any
// other method called afterwards fails with [ErrPipelineDestroyed].
func (p *Pipeline) Destroy() {
	if p.destroyed {
		return
	}
	p.release()
	p.destroyed = true
	Logger().Debug("diffract: pipeline destroyed")
}
