// Command sonos-events subscribes to the devices of a configured roster
// and prints their state changes as they arrive.
//
// Usage:
//
//	sonos-events -config roster.yaml [flags]
//
// Flags:
//
//	-config string     Configuration file path (required)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-event-log string  Write the binary event trace to this file
//
// The configuration file lists the devices and tunes the subscription
// parameters:
//
//	devices:
//	  - id: RINCON_000E58XXXXXX01400
//	    name: Living Room
//	    endpoint: {host: 192.168.1.50, port: 1400}
//	services: [AVTransport, RenderingControl, ZoneGroupTopology]
//	lease_duration: 30m
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tatimblin/sonos-local-controller/pkg/eventing"
	"github.com/tatimblin/sonos-local-controller/pkg/log"
	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

var (
	configPath string
	logLevel   string
	eventLog   string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Configuration file path (required)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&eventLog, "event-log", "", "Write the binary event trace to this file")
}

func main() {
	flag.Parse()
	if configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel(logLevel)}))
	slog.SetDefault(logger)

	cfg, roster, err := loadConfig(configPath)
	if err != nil {
		logger.Error("load configuration", "err", err)
		os.Exit(1)
	}

	traces := []log.Logger{log.NewSlogAdapter(logger)}
	if eventLog != "" {
		fl, err := log.NewFileLogger(eventLog)
		if err != nil {
			logger.Error("open event log", "path", eventLog, "err", err)
			os.Exit(1)
		}
		defer fl.Close()
		traces = append(traces, fl)
	}
	cfg.Logger = log.NewMultiLogger(traces...)
	cfg.OnLifecycle = func(e eventing.LifecycleEvent) {
		logger.Info("lifecycle", "kind", e.Kind.String(), "device", e.Device.String(),
			"service", e.Service.String(), "msg", e.Message)
	}

	mgr, err := eventing.NewManager(cfg)
	if err != nil {
		logger.Error("create manager", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx, roster); err != nil {
		logger.Error("start manager", "err", err)
		os.Exit(1)
	}
	logger.Info("subscribed", "devices", len(roster.Devices))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for change := range mgr.Events().Changes() {
			printChange(logger, change)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	if err := mgr.Stop(); err != nil {
		logger.Error("stop manager", "err", err)
	}
	<-done
}

func printChange(logger *slog.Logger, change model.StateChange) {
	switch change.Kind {
	case model.ChangePlayback:
		args := []any{"device", change.DeviceID.String()}
		if change.Playback.State != nil {
			args = append(args, "state", change.Playback.State.String())
		}
		if change.Playback.Track != nil {
			args = append(args, "title", change.Playback.Track.Title,
				"artist", change.Playback.Track.Artist)
		}
		logger.Info("playback", args...)
	case model.ChangeVolume:
		args := []any{"device", change.DeviceID.String()}
		if change.Volume.Level != nil {
			args = append(args, "level", *change.Volume.Level)
		}
		if change.Volume.Muted != nil {
			args = append(args, "muted", *change.Volume.Muted)
		}
		logger.Info("volume", args...)
	case model.ChangeTopology:
		logger.Info("topology", "groups", len(change.Topology.Groups),
			"vanished", len(change.Topology.Vanished))
	case model.ChangeSubscription:
		logger.Warn("subscription", "device", change.DeviceID.String(),
			"service", change.Subscription.Service.String(),
			"fatal", change.Subscription.Fatal,
			"reason", change.Subscription.Reason)
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
