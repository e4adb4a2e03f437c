package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ConsumerDef describes a consumer attached to a channel at startup.
type ConsumerDef struct {
	Type    string `toml:"type"`
	Port    int    `toml:"port"`
	Address string `toml:"address"`
}

// ChannelDef describes one channel in the channels file.
type ChannelDef struct {
	Index     int           `toml:"index"`
	Format    string        `toml:"format"`
	Consumers []ConsumerDef `toml:"consumers"`
}

// ChannelsFile is the parsed channels configuration.
type ChannelsFile struct {
	Channels []ChannelDef `toml:"channels"`
}

// LoadChannels reads a channels TOML file. A missing file yields an empty
// configuration, not an error, so a fresh install starts clean.
func LoadChannels(path string) (ChannelsFile, error) {
	var cfg ChannelsFile

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read channels config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse channels config: %w", err)
	}

	seen := make(map[int]bool)
	for _, ch := range cfg.Channels {
		if ch.Index < 1 {
			return cfg, fmt.Errorf("channel index %d: must be >= 1", ch.Index)
		}
		if seen[ch.Index] {
			return cfg, fmt.Errorf("channel index %d: duplicate", ch.Index)
		}
		seen[ch.Index] = true
		if ch.Format == "" {
			return cfg, fmt.Errorf("channel %d: format is required", ch.Index)
		}
	}

	return cfg, nil
}
