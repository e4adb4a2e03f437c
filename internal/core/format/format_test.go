package format

import (
	"testing"
)

func TestCadenceIntegerRates(t *testing.T) {
	tests := []struct {
		name      string
		timeScale int
		duration  int
		want      []int
	}{
		{"PAL 25fps", 25, 1, []int{1920}},
		{"50fps", 50, 1, []int{960}},
		{"30fps", 30, 1, []int{1600}},
		{"60fps", 60, 1, []int{800}},
		{"24fps", 24, 1, []int{2000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cadence(SampleRate, tt.timeScale, tt.duration)
			if len(got) != len(tt.want) {
				t.Fatalf("Cadence() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Cadence() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCadenceFractionalRates(t *testing.T) {
	// 29.97: 48000 * 1001 / 30000 = 1601.6 samples per frame.
	got := Cadence(SampleRate, 30000, 1001)
	want := []int{1601, 1602, 1601, 1602, 1602}

	if len(got) != len(want) {
		t.Fatalf("Cadence() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("Cadence() = %v, want %v", got, want)
		}
	}

	// The period sum must equal the exact rational total.
	sum := 0
	for _, n := range got {
		sum += n
	}
	if sum != 8008 {
		t.Errorf("cadence sum = %d, want 8008", sum)
	}
}

func TestCadenceMeanIsExact(t *testing.T) {
	for _, d := range All() {
		sum := 0
		for _, n := range d.AudioCadence {
			sum += n
		}
		// sum/period == sampleRate*duration/timeScale exactly.
		if sum*d.TimeScale != SampleRate*d.Duration*len(d.AudioCadence) {
			t.Errorf("%s: cadence %v does not average to the exact sample rate", d.Name, d.AudioCadence)
		}
	}
}

func TestLookup(t *testing.T) {
	d, err := Lookup("1080i5000")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if d.Width != 1920 || d.Height != 1080 || d.FieldMode != Upper {
		t.Errorf("unexpected descriptor: %+v", d)
	}
	if d.FPS() != 25 {
		t.Errorf("FPS = %v, want 25", d.FPS())
	}

	if _, err := Lookup("pal"); err != nil {
		t.Errorf("Lookup should be case-insensitive: %v", err)
	}

	if _, err := Lookup("8k9000"); err == nil {
		t.Error("Lookup of unknown format should fail")
	}
}

func TestDescriptorValidity(t *testing.T) {
	var zero Descriptor
	if zero.IsValid() {
		t.Error("zero descriptor should be invalid")
	}
	if zero.FPS() != 0 {
		t.Error("zero descriptor FPS should be 0")
	}

	d := New("test", 1280, 720, Progressive, 50, 1)
	if !d.IsValid() {
		t.Error("constructed descriptor should be valid")
	}
}

func TestNTSCFps(t *testing.T) {
	d, err := Lookup("NTSC")
	if err != nil {
		t.Fatal(err)
	}
	fps := d.FPS()
	if fps < 29.96 || fps > 29.98 {
		t.Errorf("NTSC FPS = %v, want ~29.97", fps)
	}
}
