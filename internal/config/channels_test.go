package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeChannels(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadChannels(t *testing.T) {
	path := writeChannels(t, `
[[channels]]
index = 1
format = "1080i5000"

[[channels.consumers]]
type = "rtp"
port = 0
address = "239.0.0.1:5004"

[[channels]]
index = 2
format = "720p5000"
`)

	cfg, err := LoadChannels(path)
	if err != nil {
		t.Fatalf("LoadChannels failed: %v", err)
	}

	if len(cfg.Channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(cfg.Channels))
	}
	if cfg.Channels[0].Index != 1 || cfg.Channels[0].Format != "1080i5000" {
		t.Errorf("channel 1 = %+v", cfg.Channels[0])
	}
	if len(cfg.Channels[0].Consumers) != 1 {
		t.Fatalf("channel 1 consumers = %v", cfg.Channels[0].Consumers)
	}
	if cfg.Channels[0].Consumers[0].Address != "239.0.0.1:5004" {
		t.Errorf("consumer = %+v", cfg.Channels[0].Consumers[0])
	}
}

func TestLoadChannelsMissingFileIsEmpty(t *testing.T) {
	cfg, err := LoadChannels(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(cfg.Channels) != 0 {
		t.Errorf("got %d channels, want 0", len(cfg.Channels))
	}
}

func TestLoadChannelsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad index", "[[channels]]\nindex = 0\nformat = \"PAL\"\n"},
		{"duplicate index", "[[channels]]\nindex = 1\nformat = \"PAL\"\n[[channels]]\nindex = 1\nformat = \"PAL\"\n"},
		{"missing format", "[[channels]]\nindex = 1\n"},
		{"not toml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeChannels(t, tt.content)
			if _, err := LoadChannels(path); err == nil {
				t.Error("LoadChannels should fail")
			}
		})
	}
}
