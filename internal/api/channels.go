package api

import (
	"context"
	"math"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/castkit/playoutd/internal/api/models"
	"github.com/castkit/playoutd/internal/consumers/rtpout"
	"github.com/castkit/playoutd/internal/core/channel"
	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/core/frame"
	"github.com/castkit/playoutd/internal/core/stage"
	"github.com/castkit/playoutd/internal/core/timecode"
	"github.com/castkit/playoutd/internal/events"
	"github.com/castkit/playoutd/internal/producers/color"
)

// registerChannelRoutes registers all channel-related endpoints
func (s *Server) registerChannelRoutes() {
	// List channels
	huma.Register(s.api, huma.Operation{
		OperationID: "list-channels",
		Method:      http.MethodGet,
		Path:        "/api/channels",
		Summary:     "List Channels",
		Description: "Get every running channel with its format and timecode",
		Tags:        []string{"channels"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.ChannelListResponse, error) {
		indexes := make([]int, 0, len(s.channels))
		for index := range s.channels {
			indexes = append(indexes, index)
		}
		sort.Ints(indexes)

		channels := make([]models.ChannelData, 0, len(indexes))
		for _, index := range indexes {
			channels = append(channels, s.channelData(s.channels[index]))
		}

		return &models.ChannelListResponse{
			Body: models.ChannelListData{Channels: channels, Count: len(channels)},
		}, nil
	})

	// Get one channel
	huma.Register(s.api, huma.Operation{
		OperationID: "get-channel",
		Method:      http.MethodGet,
		Path:        "/api/channels/{channel}",
		Summary:     "Get Channel",
		Tags:        []string{"channels"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *struct {
		Channel int `path:"channel"`
	}) (*models.ChannelResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}
		return &models.ChannelResponse{Body: s.channelData(ch)}, nil
	})

	// Channel telemetry state
	huma.Register(s.api, huma.Operation{
		OperationID: "get-channel-state",
		Method:      http.MethodGet,
		Path:        "/api/channels/{channel}/state",
		Summary:     "Get Channel State",
		Description: "Telemetry snapshot of the channel's last completed tick",
		Tags:        []string{"channels"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *struct {
		Channel int `path:"channel"`
	}) (*models.ChannelStateResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}
		return &models.ChannelStateResponse{Body: ch.State().Flatten()}, nil
	})

	// Set channel format
	huma.Register(s.api, huma.Operation{
		OperationID: "set-channel-format",
		Method:      http.MethodPut,
		Path:        "/api/channels/{channel}/format",
		Summary:     "Set Channel Format",
		Description: "Switch the channel to a registered video format; the stage is cleared",
		Tags:        []string{"channels"},
		Errors:      []int{400, 401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.FormatRequest) (*models.StatusResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}
		desc, err := format.Lookup(input.Body.Format)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		ch.SetVideoFormatDesc(desc)
		return ok(), nil
	})

	// Load a producer on a layer
	huma.Register(s.api, huma.Operation{
		OperationID: "load-layer",
		Method:      http.MethodPost,
		Path:        "/api/channels/{channel}/layers/{layer}/load",
		Summary:     "Load Producer",
		Tags:        []string{"layers"},
		Errors:      []int{400, 401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.LoadRequest) (*models.StatusResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}

		var producer stage.Producer
		switch input.Body.Producer {
		case "color":
			spec := input.Body.Color
			if spec == "" {
				spec = "black"
			}
			producer, err = color.New(spec, ch.FrameFactory(), ch.VideoFormatDesc())
			if err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
		default:
			return nil, huma.Error400BadRequest("unknown producer type")
		}

		ch.Stage().Load(input.Layer, producer, input.Body.Preview, input.Body.AutoPlay)
		if s.eventBus != nil {
			s.eventBus.Publish(events.LayerLoadedEvent{
				Channel:  input.Channel,
				Layer:    input.Layer,
				Producer: producer.Name(),
			})
		}
		return ok(), nil
	})

	registerLayerAction(s, "play-layer", "play", "Play Layer", func(ch *channel.Channel, layer int) {
		ch.Stage().Play(layer)
	})
	registerLayerAction(s, "pause-layer", "pause", "Pause Layer", func(ch *channel.Channel, layer int) {
		ch.Stage().Pause(layer)
	})
	registerLayerAction(s, "resume-layer", "resume", "Resume Layer", func(ch *channel.Channel, layer int) {
		ch.Stage().Resume(layer)
	})
	registerLayerAction(s, "stop-layer", "stop", "Stop Layer", func(ch *channel.Channel, layer int) {
		ch.Stage().Stop(layer)
	})

	// Clear a layer
	huma.Register(s.api, huma.Operation{
		OperationID: "clear-layer",
		Method:      http.MethodDelete,
		Path:        "/api/channels/{channel}/layers/{layer}",
		Summary:     "Clear Layer",
		Tags:        []string{"layers"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.LayerRequest) (*models.StatusResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}
		ch.Stage().ClearLayer(input.Layer)
		if s.eventBus != nil {
			s.eventBus.Publish(events.LayerClearedEvent{Channel: input.Channel, Layer: input.Layer})
		}
		return ok(), nil
	})

	// Retarget a layer transform
	huma.Register(s.api, huma.Operation{
		OperationID: "transform-layer",
		Method:      http.MethodPut,
		Path:        "/api/channels/{channel}/layers/{layer}/transform",
		Summary:     "Transform Layer",
		Description: "Tween the layer's opacity and volume to new targets",
		Tags:        []string{"layers"},
		Errors:      []int{400, 401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.TransformRequest) (*models.StatusResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}

		tween := stage.Linear()
		if input.Body.Tween != "" {
			tween, err = stage.TweenerByName(input.Body.Tween)
			if err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
		}

		opacity := input.Body.Opacity
		volume := input.Body.Volume
		ch.Stage().ApplyTransform(input.Layer, func(t frame.Transform) frame.Transform {
			if opacity != nil {
				t.Image.Opacity = *opacity
			}
			if volume != nil {
				t.Audio.Volume = *volume
			}
			return t
		}, input.Body.Duration, tween)
		return ok(), nil
	})

	// Retime the channel
	huma.Register(s.api, huma.Operation{
		OperationID: "set-channel-timecode",
		Method:      http.MethodPut,
		Path:        "/api/channels/{channel}/timecode",
		Summary:     "Set Channel Timecode",
		Description: "Jump a free-running channel to a SMPTE stamp, or anchor it to the system clock",
		Tags:        []string{"channels"},
		Errors:      []int{400, 401, 404, 409},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.TimecodeRequest) (*models.StatusResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}

		if input.Body.Source == "clock" {
			ch.Timecode().SetSystemTime()
			return ok(), nil
		}

		if !ch.Timecode().IsFree() {
			return nil, huma.Error409Conflict("channel timecode is driven by a source")
		}
		fps := uint8(math.Round(ch.VideoFormatDesc().FPS()))
		tc, err := timecode.Parse(input.Body.Timecode, fps)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		ch.Timecode().SetTimecode(tc)
		return ok(), nil
	})

	// Attach a consumer
	huma.Register(s.api, huma.Operation{
		OperationID: "add-consumer",
		Method:      http.MethodPut,
		Path:        "/api/channels/{channel}/consumers/{port}",
		Summary:     "Add Consumer",
		Tags:        []string{"consumers"},
		Errors:      []int{400, 401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.ConsumerRequest) (*models.StatusResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}

		switch input.Body.Consumer {
		case "rtp":
			if input.Body.Address == "" {
				return nil, huma.Error400BadRequest("rtp consumer needs an address")
			}
			consumer, err := rtpout.New(input.Body.Address, s.logger)
			if err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			ch.Output().Add(input.Port, consumer)
			if s.eventBus != nil {
				s.eventBus.Publish(events.ConsumerAddedEvent{
					Channel:  input.Channel,
					Port:     input.Port,
					Consumer: consumer.Name(),
				})
			}
		default:
			return nil, huma.Error400BadRequest("unknown consumer type")
		}
		return ok(), nil
	})

	// Detach a consumer
	huma.Register(s.api, huma.Operation{
		OperationID: "remove-consumer",
		Method:      http.MethodDelete,
		Path:        "/api/channels/{channel}/consumers/{port}",
		Summary:     "Remove Consumer",
		Tags:        []string{"consumers"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.PortRequest) (*models.StatusResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}
		ch.Output().Remove(input.Port)
		if s.eventBus != nil {
			s.eventBus.Publish(events.ConsumerRemovedEvent{Channel: input.Channel, Port: input.Port})
		}
		return ok(), nil
	})
}

// registerLayerAction registers one of the verb-only layer endpoints.
func registerLayerAction(s *Server, id, verb, summary string, action func(ch *channel.Channel, layer int)) {
	huma.Register(s.api, huma.Operation{
		OperationID: id,
		Method:      http.MethodPost,
		Path:        "/api/channels/{channel}/layers/{layer}/" + verb,
		Summary:     summary,
		Tags:        []string{"layers"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.LayerRequest) (*models.StatusResponse, error) {
		ch, err := s.channel(input.Channel)
		if err != nil {
			return nil, err
		}
		action(ch, input.Layer)
		return ok(), nil
	})
}

func (s *Server) channelData(ch *channel.Channel) models.ChannelData {
	desc := ch.VideoFormatDesc()
	return models.ChannelData{
		Index:    ch.Index(),
		Format:   desc.Name,
		Timecode: ch.Timecode().Timecode().String(),
		Source:   ch.Timecode().SourceName(),
		Layers:   ch.Stage().LayerIndexes(),
		Ports:    ch.Output().Ports(),
	}
}

func ok() *models.StatusResponse {
	resp := &models.StatusResponse{}
	resp.Body.Status = "ok"
	return resp
}
