// Package resample provides bilinear resampling of flat float32 pixel
// grids with interleaved channels.
//
// The standard image/draw scalers operate on 8- and 16-bit image.Image
// values; the diffract pipeline works on unclamped float HDR buffers, so
// resampling is done directly on the float storage instead.
package resample

// Bilinear resamples src (sw by sh pixels, channels interleaved values
// per pixel) into dst (dw by dh pixels, same channel count). Source
// coordinates are clamped at the edges. dst and src must not alias.
//
// Width and height scale independently: a non-square ratio stretches the
// content.
func Bilinear(dst []float32, dw, dh int, src []float32, sw, sh, channels int) {
	if dw == sw && dh == sh {
		copy(dst, src)
		return
	}

	// Pixel-center mapping keeps content aligned under down- and upsampling.
	xRatio := float64(sw) / float64(dw)
	yRatio := float64(sh) / float64(dh)

	for y := 0; y < dh; y++ {
		sy := (float64(y)+0.5)*yRatio - 0.5
		y0 := int(sy)
		if sy < 0 {
			sy, y0 = 0, 0
		}
		y1 := y0 + 1
		if y0 > sh-1 {
			y0 = sh - 1
		}
		if y1 > sh-1 {
			y1 = sh - 1
		}
		fy := sy - float64(y0)

		for x := 0; x < dw; x++ {
			sx := (float64(x)+0.5)*xRatio - 0.5
			x0 := int(sx)
			if sx < 0 {
				sx, x0 = 0, 0
			}
			x1 := x0 + 1
			if x0 > sw-1 {
				x0 = sw - 1
			}
			if x1 > sw-1 {
				x1 = sw - 1
			}
			fx := sx - float64(x0)

			i00 := (y0*sw + x0) * channels
			i01 := (y0*sw + x1) * channels
			i10 := (y1*sw + x0) * channels
			i11 := (y1*sw + x1) * channels
			di := (y*dw + x) * channels

			for c := 0; c < channels; c++ {
				top := float64(src[i00+c]) + fx*float64(src[i01+c]-src[i00+c])
				bot := float64(src[i10+c]) + fx*float64(src[i11+c]-src[i10+c])
				dst[di+c] = float32(top + fy*(bot-top))
			}
		}
	}
}
