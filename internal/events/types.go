package events

// Event type constants for kelindar/event.
const (
	TypeChannelTick uint32 = iota + 1
	TypeChannelError
	TypeFormatChanged
	TypeLayerLoaded
	TypeLayerCleared
	TypeConsumerAdded
	TypeConsumerRemoved
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ChannelTickEvent is published once per channel tick with the finalized
// timecode and timing ratios.
type ChannelTickEvent struct {
	Channel     int     `json:"channel" example:"1" doc:"Channel index"`
	Timecode    string  `json:"timecode" example:"10:30:00:12" doc:"Finalized SMPTE timecode"`
	ProduceTime float64 `json:"produce_time" doc:"Produce occupancy, 0.5 = one frame period"`
	MixTime     float64 `json:"mix_time" doc:"Mix occupancy"`
	ConsumeTime float64 `json:"consume_time" doc:"Consume occupancy"`
}

// Type returns the event type identifier for ChannelTickEvent.
func (e ChannelTickEvent) Type() uint32 { return TypeChannelTick }

// ChannelErrorEvent is published when a tick fails and is skipped.
type ChannelErrorEvent struct {
	Channel int    `json:"channel" example:"1" doc:"Channel index"`
	Error   string `json:"error" doc:"Error description"`
}

// Type returns the event type identifier for ChannelErrorEvent.
func (e ChannelErrorEvent) Type() uint32 { return TypeChannelError }

// FormatChangedEvent is published when a channel switches video format.
type FormatChangedEvent struct {
	Channel int    `json:"channel" example:"1" doc:"Channel index"`
	Format  string `json:"format" example:"1080i5000" doc:"New format name"`
}

// Type returns the event type identifier for FormatChangedEvent.
func (e FormatChangedEvent) Type() uint32 { return TypeFormatChanged }

// LayerLoadedEvent is published when a producer is loaded onto a layer.
type LayerLoadedEvent struct {
	Channel  int    `json:"channel" example:"1" doc:"Channel index"`
	Layer    int    `json:"layer" example:"10" doc:"Layer index"`
	Producer string `json:"producer" example:"color" doc:"Producer name"`
}

// Type returns the event type identifier for LayerLoadedEvent.
func (e LayerLoadedEvent) Type() uint32 { return TypeLayerLoaded }

// LayerClearedEvent is published when a layer is removed.
type LayerClearedEvent struct {
	Channel int `json:"channel" example:"1" doc:"Channel index"`
	Layer   int `json:"layer" example:"10" doc:"Layer index"`
}

// Type returns the event type identifier for LayerClearedEvent.
func (e LayerClearedEvent) Type() uint32 { return TypeLayerCleared }

// ConsumerAddedEvent is published when a consumer is attached to a channel.
type ConsumerAddedEvent struct {
	Channel  int    `json:"channel" example:"1" doc:"Channel index"`
	Port     int    `json:"port" example:"0" doc:"Output port index"`
	Consumer string `json:"consumer" example:"rtp" doc:"Consumer name"`
}

// Type returns the event type identifier for ConsumerAddedEvent.
func (e ConsumerAddedEvent) Type() uint32 { return TypeConsumerAdded }

// ConsumerRemovedEvent is published when a consumer is detached.
type ConsumerRemovedEvent struct {
	Channel int `json:"channel" example:"1" doc:"Channel index"`
	Port    int `json:"port" example:"0" doc:"Output port index"`
}

// Type returns the event type identifier for ConsumerRemovedEvent.
func (e ConsumerRemovedEvent) Type() uint32 { return TypeConsumerRemoved }
