package nats

import (
	"encoding/json"
	"testing"
)

func TestSubjects(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{SubjectChannelState(1), "playoutd.channels.1.state"},
		{SubjectChannelErrors(2), "playoutd.channels.2.errors"},
		{SubjectChannelFormat(3), "playoutd.channels.3.format"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("subject = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestStateMessageMarshal(t *testing.T) {
	msg := StateMessage{
		Channel:     1,
		Timecode:    "10:30:00:12",
		ProduceTime: 0.25,
		MixTime:     0.1,
		ConsumeTime: 0.05,
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["timecode"] != "10:30:00:12" {
		t.Errorf("timecode = %v", decoded["timecode"])
	}
	if decoded["channel"] != float64(1) {
		t.Errorf("channel = %v", decoded["channel"])
	}
}

func TestErrorMessageMarshal(t *testing.T) {
	data, err := ErrorMessage{Channel: 2, Error: "tick failed"}.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var decoded ErrorMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Channel != 2 || decoded.Error != "tick failed" {
		t.Errorf("decoded = %+v", decoded)
	}
}
