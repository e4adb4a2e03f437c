// Package color provides the solid-color producer: one reusable frame of a
// single color with silent audio, produced forever.
package color

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/core/stage"
	"github.com/castkit/playoutd/internal/monitor"
)

var namedColors = map[string]uint32{
	"black":   0xFF000000,
	"white":   0xFFFFFFFF,
	"red":     0xFFFF0000,
	"green":   0xFF00FF00,
	"blue":    0xFF0000FF,
	"yellow":  0xFFFFFF00,
	"cyan":    0xFF00FFFF,
	"magenta": 0xFFFF00FF,
	"gray":    0xFF808080,
	"empty":   0x00000000,
}

// ParseColor reads "#AARRGGBB", "#RRGGBB" (opaque) or a named color.
func ParseColor(s string) (uint32, error) {
	if v, ok := namedColors[strings.ToLower(s)]; ok {
		return v, nil
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return 0, fmt.Errorf("unknown color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	} else if len(hex) != 8 {
		return 0, fmt.Errorf("color %q: want #RRGGBB or #AARRGGBB", s)
	}
	return uint32(v), nil
}

// Producer emits the same solid frame every tick.
type Producer struct {
	name     string
	frames   map[int]*frame.Frame
	factory  frame.Factory
	desc     format.Descriptor
	argb     uint32
	produced int64
}

// New creates a color producer for the given format.
func New(colorSpec string, factory frame.Factory, desc format.Descriptor) (*Producer, error) {
	argb, err := ParseColor(colorSpec)
	if err != nil {
		return nil, err
	}
	return &Producer{
		name:    fmt.Sprintf("color[%s]", colorSpec),
		frames:  make(map[int]*frame.Frame),
		factory: factory,
		desc:    desc,
		argb:    argb,
	}, nil
}

// Receive returns the cached solid frame for the requested sample count.
func (p *Producer) Receive(nbSamples int) frame.DrawFrame {
	f, ok := p.frames[nbSamples]
	if !ok {
		f = p.factory.CreateFrame(p, p.desc, nbSamples)
		fill(f.Image, p.argb)
		p.frames[nbSamples] = f
	}
	p.produced++
	return frame.FromFrame(f)
}

// Name returns the producer's display name.
func (p *Producer) Name() string {
	return p.name
}

// State returns the producer's monitor snapshot.
func (p *Producer) State() monitor.State {
	return monitor.State{
		"producer": p.name,
		"frames":   p.produced,
	}
}

func fill(image []byte, argb uint32) {
	a := byte(argb >> 24)
	r := byte(argb >> 16)
	g := byte(argb >> 8)
	b := byte(argb)
	for i := 0; i+3 < len(image); i += 4 {
		image[i] = b
		image[i+1] = g
		image[i+2] = r
		image[i+3] = a
	}
}

var _ stage.Producer = (*Producer)(nil)
