package stage

import (
	"fmt"
	"math"

	"github.com/castkit/playoutd/internal/core/frame"
)

// Tweener maps normalized elapsed time [0,1] to interpolation progress.
type Tweener func(t float64) float64

// Named tweeners, matching the easing names the control surface accepts.
var tweeners = map[string]Tweener{
	"linear":        func(t float64) float64 { return t },
	"easeinsine":    func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) },
	"easeoutsine":   func(t float64) float64 { return math.Sin(t * math.Pi / 2) },
	"easeinoutsine": func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 },
	"easeinquad":    func(t float64) float64 { return t * t },
	"easeoutquad":   func(t float64) float64 { return t * (2 - t) },
}

// TweenerByName resolves an easing name.
func TweenerByName(name string) (Tweener, error) {
	tw, ok := tweeners[name]
	if !ok {
		return nil, fmt.Errorf("unknown tween %q", name)
	}
	return tw, nil
}

// Linear returns the identity tweener.
func Linear() Tweener {
	return tweeners["linear"]
}

// tweenedTransform interpolates a layer transform from src to dst over
// duration frames, ticked once per stage tick.
type tweenedTransform struct {
	src      frame.Transform
	dst      frame.Transform
	duration int
	elapsed  int
	tween    Tweener
}

func newTweenedTransform(src, dst frame.Transform, duration int, tween Tweener) *tweenedTransform {
	if tween == nil {
		tween = Linear()
	}
	return &tweenedTransform{src: src, dst: dst, duration: duration, tween: tween}
}

func (t *tweenedTransform) tick(frames int) {
	t.elapsed += frames
}

func (t *tweenedTransform) fetch() frame.Transform {
	if t.duration <= 0 || t.elapsed >= t.duration {
		return t.dst
	}
	p := t.tween(float64(t.elapsed) / float64(t.duration))
	return lerpTransform(t.src, t.dst, p)
}

func (t *tweenedTransform) dest() frame.Transform {
	return t.dst
}

func lerp(a, b, p float64) float64 {
	return a + (b-a)*p
}

func lerpTransform(a, b frame.Transform, p float64) frame.Transform {
	return frame.Transform{
		Image: frame.ImageTransform{
			Opacity: lerp(a.Image.Opacity, b.Image.Opacity, p),
			FillTranslation: [2]float64{
				lerp(a.Image.FillTranslation[0], b.Image.FillTranslation[0], p),
				lerp(a.Image.FillTranslation[1], b.Image.FillTranslation[1], p),
			},
			FillScale: [2]float64{
				lerp(a.Image.FillScale[0], b.Image.FillScale[0], p),
				lerp(a.Image.FillScale[1], b.Image.FillScale[1], p),
			},
		},
		Audio: frame.AudioTransform{
			Volume: lerp(a.Audio.Volume, b.Audio.Volume, p),
		},
	}
}
