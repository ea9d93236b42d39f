// Command diffractdemo applies the eye-diffraction pipeline to an HDR
// test scene (or a supplied image) and writes the tonemapped result.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/diffract"
	"github.com/gogpu/diffract/render"
)

func main() {
	var (
		width    = flag.Int("width", 1280, "render width")
		height   = flag.Int("height", 720, "render height")
		quality  = flag.String("quality", "medium", "quality tier: low, medium, high, optimal")
		fnumber  = flag.Float64("fnumber", 4.0, "simulated eye f-number")
		glare    = flag.Float64("glare", 0.3, "glare halo strength in [0,1]")
		size     = flag.Float64("size", 0.5, "pupil opening in [0,1]")
		scale    = flag.Bool("scale-correction", true, "keep base image sharp across working resolutions")
		input    = flag.String("input", "", "optional PNG/JPEG source image (procedural starfield if empty)")
		output   = flag.String("output", "diffract.png", "output file")
		frames   = flag.Int("frames", 1, "number of frames to simulate")
		dt       = flag.Float64("dt", 1.0/60.0, "frame time delta in seconds")
		exposure = flag.Float64("exposure", 1.0, "linear exposure multiplier for image input")
		debugDir = flag.String("debug-dir", "", "directory for aperture/spectrum debug dumps")
		seed     = flag.Int64("seed", 1, "starfield random seed")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		diffract.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	tier, err := parseQuality(*quality)
	if err != nil {
		log.Fatalf("Invalid quality: %v", err)
	}

	profile := diffract.OpticalProfile{FNumber: *fnumber, Glare: *glare, Size: *size}
	options := diffract.Options{ScaleCorrection: *scale}

	pipe, err := diffract.New(render.NullDeviceHandle{}, tier, &profile, &options)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}
	defer pipe.Destroy()

	source, err := buildSource(*input, *width, *height, *exposure, *seed)
	if err != nil {
		log.Fatalf("Failed to build source: %v", err)
	}
	target, err := render.NewImage(*width, *height, gputypes.TextureFormatRGBA32Float)
	if err != nil {
		log.Fatalf("Failed to allocate target: %v", err)
	}

	for i := 0; i < *frames; i++ {
		if err := pipe.Render(target, source, *dt); err != nil {
			log.Fatalf("Render failed at frame %d: %v", i, err)
		}
	}

	if err := savePNG(*output, tonemap(target)); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Saved %s (%dx%d, %s quality, %d frame(s))\n",
		*output, *width, *height, tier, *frames)

	if *debugDir != "" {
		if err := dumpDebug(*debugDir, pipe); err != nil {
			log.Fatalf("Failed to write debug dumps: %v", err)
		}
		log.Printf("Debug dumps written to %s\n", *debugDir)
	}
}

func parseQuality(s string) (diffract.RenderQuality, error) {
	switch strings.ToLower(s) {
	case "low":
		return diffract.QualityLow, nil
	case "medium":
		return diffract.QualityMedium, nil
	case "high":
		return diffract.QualityHigh, nil
	case "optimal":
		return diffract.QualityOptimal, nil
	default:
		return 0, diffract.ErrInvalidQuality
	}
}

// buildSource produces the HDR source image: either a decoded and resized
// input picture lifted to linear light, or a procedural starfield with
// bright point lights that show the diffraction pattern clearly.
func buildSource(path string, width, height int, exposure float64, seed int64) (*render.Image, error) {
	img, err := render.NewImage(width, height, gputypes.TextureFormatRGBA32Float)
	if err != nil {
		return nil, err
	}

	if path == "" {
		fillStarfield(img, seed)
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var decoded image.Image
	if strings.HasSuffix(strings.ToLower(path), ".jpg") || strings.HasSuffix(strings.ToLower(path), ".jpeg") {
		decoded, err = jpeg.Decode(f)
	} else {
		decoded, err = png.Decode(f)
	}
	if err != nil {
		return nil, err
	}

	scaled := resize.Resize(uint(width), uint(height), decoded, resize.Lanczos3)
	pix := img.Pix()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := scaled.At(x, y).RGBA()
			i := img.Index(x, y)
			pix[i+0] = float32(srgbToLinear(float64(r)/65535) * exposure)
			pix[i+1] = float32(srgbToLinear(float64(g)/65535) * exposure)
			pix[i+2] = float32(srgbToLinear(float64(b)/65535) * exposure)
			pix[i+3] = float32(float64(a) / 65535)
		}
	}
	return img, nil
}

// fillStarfield paints a dark background with a handful of very bright
// HDR point lights plus one dominant central light.
func fillStarfield(img *render.Image, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	w, h := img.Width(), img.Height()
	img.Fill(0.002, 0.002, 0.004, 1)

	put := func(x, y int, r, g, b float32) {
		if x < 0 || x >= w || y < 0 || y >= h {
			return
		}
		i := img.Index(x, y)
		pix := img.Pix()
		pix[i+0] += r
		pix[i+1] += g
		pix[i+2] += b
	}

	for s := 0; s < 40; s++ {
		x := rng.Intn(w)
		y := rng.Intn(h)
		intensity := float32(40 + rng.Float64()*360)
		warm := float32(0.7 + rng.Float64()*0.3)
		put(x, y, intensity, intensity*warm, intensity*warm*warm)
	}

	// Dominant light in the center, spread over a few pixels so it
	// survives the working-grid resampling.
	cx, cy := w/2, h/2
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			put(cx+dx, cy+dy, 500, 480, 450)
		}
	}
}

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// tonemap maps the unclamped HDR target to displayable 8-bit sRGB with a
// simple global Reinhard operator.
func tonemap(img *render.Image) *image.RGBA {
	w, h := img.Width(), img.Height()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	pix := img.Pix()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.Index(x, y)
			out.SetRGBA(x, y, color.RGBA{
				R: tone8(float64(pix[i+0])),
				G: tone8(float64(pix[i+1])),
				B: tone8(float64(pix[i+2])),
				A: 255,
			})
		}
	}
	return out
}

func tone8(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	v = v / (1 + v)
	v = linearToSRGB(v)
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}

// dumpDebug writes 256px previews of the pipeline's internal aperture and
// spectrum buffers.
func dumpDebug(dir string, pipe *diffract.Pipeline) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	aperture := pipe.Aperture()
	ap := image.NewRGBA(image.Rect(0, 0, aperture.Width(), aperture.Height()))
	pix := aperture.Pix()
	for i, v := range pix {
		g := uint8(clamp01f(float64(v))*255 + 0.5)
		ap.Pix[i*4+0] = g
		ap.Pix[i*4+1] = g
		ap.Pix[i*4+2] = g
		ap.Pix[i*4+3] = 255
	}
	if err := savePNG(filepath.Join(dir, "aperture.png"), preview(ap)); err != nil {
		return err
	}

	// The spectrum spans many orders of magnitude; log-compress it.
	spectrum := pipe.Spectrum()
	sp := image.NewRGBA(image.Rect(0, 0, spectrum.Width(), spectrum.Height()))
	spix := spectrum.Pix()
	var peak float64
	for i := 0; i < len(spix); i += 4 {
		for c := 0; c < 3; c++ {
			if v := float64(spix[i+c]); v > peak {
				peak = v
			}
		}
	}
	logPeak := math.Log1p(peak)
	for i := 0; i < len(spix); i += 4 {
		for c := 0; c < 3; c++ {
			v := 0.0
			if logPeak > 0 {
				v = math.Log1p(float64(spix[i+c])) / logPeak
			}
			sp.Pix[i+c] = uint8(clamp01f(v)*255 + 0.5)
		}
		sp.Pix[i+3] = 255
	}
	return savePNG(filepath.Join(dir, "spectrum.png"), preview(sp))
}

// preview downscales a debug image to 256px square.
func preview(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, 256, 256))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func clamp01f(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, img)
}
