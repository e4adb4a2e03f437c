// Package compositor is the built-in software image mixer: straight
// painter's-order alpha blending with nearest-neighbor fill scaling. It
// also serves as the frame factory handed to producers.
package compositor

import (
	"math"

	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
)

const bytesPerPixel = 4 // packed BGRA

// Software composites on the CPU. It is stateless and safe to share
// between channels.
type Software struct{}

// New creates a software compositor.
func New() *Software {
	return &Software{}
}

// CreateFrame allocates a black, silent frame sized for the format.
func (s *Software) CreateFrame(tag any, desc format.Descriptor, nbSamples int) *frame.Frame {
	return &frame.Frame{
		Image:  make([]byte, desc.Width*desc.Height*bytesPerPixel),
		Audio:  make([]int32, nbSamples*format.AudioChannels),
		Width:  desc.Width,
		Height: desc.Height,
		Tag:    tag,
	}
}

// MixImage flattens the draw frames, first element painted first, into one
// packed BGRA raster.
func (s *Software) MixImage(frames []frame.DrawFrame, desc format.Descriptor) []byte {
	out := make([]byte, desc.Width*desc.Height*bytesPerPixel)
	for _, df := range frames {
		df.Walk(func(f *frame.Frame, t frame.Transform) {
			blend(out, desc, f, t)
		})
	}
	return out
}

// blend paints one source frame into dst under its transform. The fill
// rect is the source geometry scaled and translated in raster-relative
// units; sampling is nearest neighbor.
func blend(dst []byte, desc format.Descriptor, src *frame.Frame, t frame.Transform) {
	if len(src.Image) < src.Width*src.Height*bytesPerPixel || src.Width == 0 || src.Height == 0 {
		return
	}

	opacity := t.Image.Opacity
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	dstX := int(math.Round(t.Image.FillTranslation[0] * float64(desc.Width)))
	dstY := int(math.Round(t.Image.FillTranslation[1] * float64(desc.Height)))
	dstW := int(math.Round(t.Image.FillScale[0] * float64(src.Width)))
	dstH := int(math.Round(t.Image.FillScale[1] * float64(src.Height)))
	if dstW <= 0 || dstH <= 0 {
		return
	}

	for y := 0; y < dstH; y++ {
		oy := dstY + y
		if oy < 0 || oy >= desc.Height {
			continue
		}
		sy := y * src.Height / dstH
		for x := 0; x < dstW; x++ {
			ox := dstX + x
			if ox < 0 || ox >= desc.Width {
				continue
			}
			sx := x * src.Width / dstW

			si := (sy*src.Width + sx) * bytesPerPixel
			di := (oy*desc.Width + ox) * bytesPerPixel

			alpha := float64(src.Image[si+3]) / 255.0 * opacity
			if alpha <= 0 {
				continue
			}
			for p := 0; p < 3; p++ {
				dst[di+p] = byte(float64(src.Image[si+p])*alpha + float64(dst[di+p])*(1-alpha))
			}
			a := float64(src.Image[si+3])*opacity + float64(dst[di+3])*(1-alpha)
			if a > 255 {
				a = 255
			}
			dst[di+3] = byte(a)
		}
	}
}
