package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castkit/playoutd/cmd"
	"github.com/castkit/playoutd/internal/api"
	"github.com/castkit/playoutd/internal/compositor"
	"github.com/castkit/playoutd/internal/config"
	"github.com/castkit/playoutd/internal/consumers/rtpout"
	"github.com/castkit/playoutd/internal/core/channel"
	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/events"
	"github.com/castkit/playoutd/internal/logging"
	"github.com/castkit/playoutd/internal/nats"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Channels settings
	ChannelsConfigFile string `help:"Channel definitions file" default:"channels.toml" toml:"channels.config_file" env:"CHANNELS_CONFIG_FILE"`

	// NATS settings
	NATSEnabled bool   `help:"Publish telemetry to NATS" default:"false" toml:"nats.enabled" env:"NATS_ENABLED"`
	NATSURL     string `help:"NATS server URL" default:"nats://127.0.0.1:4222" toml:"nats.url" env:"NATS_URL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingChannel string `help:"Channel engine logging level" default:"info" toml:"logging.channel" env:"LOGGING_CHANNEL"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingNATS    string `help:"NATS publisher logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"channel": opts.LoggingChannel,
				"api":     opts.LoggingAPI,
				"nats":    opts.LoggingNATS,
			},
		})

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// The software compositor doubles as the frame factory for every
		// channel.
		imageMixer := compositor.New()

		channelLogger := logging.GetLogger("channel")

		channelsCfg, err := config.LoadChannels(opts.ChannelsConfigFile)
		if err != nil {
			logger.Error("Failed to load channels config", "error", err, "path", opts.ChannelsConfigFile)
			os.Exit(1)
		}

		channels := make(map[int]*channel.Channel)
		buildChannel := func(def config.ChannelDef) {
			desc, lookupErr := format.Lookup(def.Format)
			if lookupErr != nil {
				logger.Error("Skipping channel with unknown format", "channel", def.Index, "error", lookupErr)
				return
			}
			ch := channel.New(def.Index, desc, imageMixer, nil, eventBus, channelLogger)
			for _, cons := range def.Consumers {
				switch cons.Type {
				case "rtp":
					consumer, consErr := rtpout.New(cons.Address, channelLogger)
					if consErr != nil {
						logger.Error("Failed to create consumer", "channel", def.Index, "error", consErr)
						continue
					}
					ch.Output().Add(cons.Port, consumer)
				default:
					logger.Warn("Unknown consumer type", "channel", def.Index, "type", cons.Type)
				}
			}
			channels[def.Index] = ch
		}
		for _, def := range channelsCfg.Channels {
			buildChannel(def)
		}
		if len(channels) == 0 {
			logger.Warn("No channels configured; starting with channel 1 on 1080i5000")
			desc, _ := format.Lookup("1080i5000")
			channels[1] = channel.New(1, desc, imageMixer, nil, eventBus, channelLogger)
		}

		// Watch the channels file so format edits apply without a restart.
		watcher := config.NewConfigWatcher(
			opts.ChannelsConfigFile,
			config.LoadChannels,
			logger,
		)
		watcher.OnReload(func(cfg config.ChannelsFile) {
			for _, def := range cfg.Channels {
				ch, ok := channels[def.Index]
				if !ok {
					continue
				}
				desc, lookupErr := format.Lookup(def.Format)
				if lookupErr != nil {
					logger.Warn("Ignoring format change", "channel", def.Index, "error", lookupErr)
					continue
				}
				if ch.VideoFormatDesc().Name != desc.Name {
					ch.SetVideoFormatDesc(desc)
				}
			}
		})

		var publisher *nats.Publisher
		if opts.NATSEnabled {
			publisher = nats.NewPublisher(opts.NATSURL, eventBus, logging.GetLogger("nats"))
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Channels:          channels,
			EventBus:          eventBus,
			PrometheusHandler: promhttp.Handler(),
			Logger:            logging.GetLogger("api"),
		})

		hooks.OnStart(func() {
			if publisher != nil {
				if startErr := publisher.Start(); startErr != nil {
					logger.Warn("Failed to start NATS publisher", "error", startErr)
					publisher = nil
				}
			}

			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Failed to watch channels config", "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := server.Shutdown(ctx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			watcher.Stop()

			// Close channels in a stable order so the logs read sensibly.
			indexes := make([]int, 0, len(channels))
			for index := range channels {
				indexes = append(indexes, index)
			}
			sort.Ints(indexes)
			for _, index := range indexes {
				channels[index].Close()
			}

			if publisher != nil {
				publisher.Stop()
			}
		})
	})

	// Add formats command
	cli.Root().AddCommand(cmd.CreateFormatsCmd())

	// Run the CLI
	cli.Run()
}
