package color

import (
	"testing"

	"github.com/castkit/playoutd/internal/compositor"
	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    uint32
		wantErr bool
	}{
		{"red", 0xFFFF0000, false},
		{"RED", 0xFFFF0000, false},
		{"#FF00FF00", 0xFF00FF00, false},
		{"#00FF00", 0xFF00FF00, false},
		{"#80FF0000", 0x80FF0000, false},
		{"nope", 0, true},
		{"#FFF", 0, true},
		{"#GGGGGG", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseColor(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %08X, want %08X", tt.input, got, tt.want)
			}
		})
	}
}

func TestProducerFillsFrame(t *testing.T) {
	desc := format.New("test", 4, 4, format.Progressive, 25, 1)
	p, err := New("#FF112233", compositor.New(), desc)
	if err != nil {
		t.Fatal(err)
	}

	df := p.Receive(96)
	leaf := df.Leaf()
	if leaf == nil {
		t.Fatal("color producer should return a leaf frame")
	}

	// BGRA layout.
	if leaf.Image[0] != 0x33 || leaf.Image[1] != 0x22 || leaf.Image[2] != 0x11 || leaf.Image[3] != 0xFF {
		t.Errorf("pixel = %v, want 33,22,11,FF", leaf.Image[:4])
	}
	if len(leaf.Audio) != 96*format.AudioChannels {
		t.Errorf("audio len = %d, want %d", len(leaf.Audio), 96*format.AudioChannels)
	}
	for i, s := range leaf.Audio {
		if s != 0 {
			t.Fatalf("sample %d = %d, want silence", i, s)
		}
	}
}

func TestProducerReusesFramePerSampleCount(t *testing.T) {
	desc := format.New("test", 4, 4, format.Progressive, 25, 1)
	p, err := New("white", compositor.New(), desc)
	if err != nil {
		t.Fatal(err)
	}

	a := p.Receive(1601).Leaf()
	b := p.Receive(1601).Leaf()
	c := p.Receive(1602).Leaf()

	if a != b {
		t.Error("same sample count should reuse the cached frame")
	}
	if a == c {
		t.Error("different sample counts need different frames")
	}
}

func TestProducerState(t *testing.T) {
	desc := format.New("test", 4, 4, format.Progressive, 25, 1)
	p, err := New("blue", compositor.New(), desc)
	if err != nil {
		t.Fatal(err)
	}

	p.Receive(96)
	p.Receive(96)

	state := p.State()
	if state["frames"] != int64(2) {
		t.Errorf("frames = %v, want 2", state["frames"])
	}
	if p.Name() != "color[blue]" {
		t.Errorf("Name = %q", p.Name())
	}
}

var _ frame.Factory = compositor.New()
