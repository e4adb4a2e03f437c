package frame

// ImageTransform positions and fades a frame during compositing. Translation
// and scale are in raster-relative units: a FillTranslation of 0.5 moves the
// frame half the output width/height.
type ImageTransform struct {
	Opacity         float64
	FillTranslation [2]float64
	FillScale       [2]float64
}

// AudioTransform scales a frame's audio contribution.
type AudioTransform struct {
	Volume float64
}

// Transform is the combined per-layer transform applied by the mixer.
type Transform struct {
	Image ImageTransform
	Audio AudioTransform
}

// IdentityTransform returns the transform that leaves a frame untouched.
func IdentityTransform() Transform {
	return Transform{
		Image: ImageTransform{
			Opacity:   1.0,
			FillScale: [2]float64{1.0, 1.0},
		},
		Audio: AudioTransform{Volume: 1.0},
	}
}

// Combine composes an outer transform with an inner one, as applied when a
// wrapped DrawFrame is itself wrapped again.
func Combine(outer, inner Transform) Transform {
	return Transform{
		Image: ImageTransform{
			Opacity: outer.Image.Opacity * inner.Image.Opacity,
			FillTranslation: [2]float64{
				outer.Image.FillTranslation[0] + inner.Image.FillTranslation[0]*outer.Image.FillScale[0],
				outer.Image.FillTranslation[1] + inner.Image.FillTranslation[1]*outer.Image.FillScale[1],
			},
			FillScale: [2]float64{
				outer.Image.FillScale[0] * inner.Image.FillScale[0],
				outer.Image.FillScale[1] * inner.Image.FillScale[1],
			},
		},
		Audio: AudioTransform{Volume: outer.Audio.Volume * inner.Audio.Volume},
	}
}
