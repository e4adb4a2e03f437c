package nats

import (
	"encoding/json"
	"fmt"
)

// Subject prefixes for NATS topics.
const (
	SubjectChannelsPrefix = "playoutd.channels"
)

// SubjectChannelState returns the full NATS subject for a channel's
// per-tick state.
func SubjectChannelState(channel int) string {
	return fmt.Sprintf("%s.%d.state", SubjectChannelsPrefix, channel)
}

// SubjectChannelErrors returns the full NATS subject for a channel's tick
// errors.
func SubjectChannelErrors(channel int) string {
	return fmt.Sprintf("%s.%d.errors", SubjectChannelsPrefix, channel)
}

// SubjectChannelFormat returns the full NATS subject for format changes.
func SubjectChannelFormat(channel int) string {
	return fmt.Sprintf("%s.%d.format", SubjectChannelsPrefix, channel)
}

// StateMessage carries one tick's telemetry over NATS.
type StateMessage struct {
	Channel     int     `json:"channel"`
	Timecode    string  `json:"timecode"`
	ProduceTime float64 `json:"produce_time"`
	MixTime     float64 `json:"mix_time"`
	ConsumeTime float64 `json:"consume_time"`
}

// Marshal serializes the message to JSON.
func (m StateMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// ErrorMessage carries a failed tick's error over NATS.
type ErrorMessage struct {
	Channel int    `json:"channel"`
	Error   string `json:"error"`
}

// Marshal serializes the message to JSON.
func (m ErrorMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// FormatMessage announces a channel's format change over NATS.
type FormatMessage struct {
	Channel int    `json:"channel"`
	Format  string `json:"format"`
}

// Marshal serializes the message to JSON.
func (m FormatMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
