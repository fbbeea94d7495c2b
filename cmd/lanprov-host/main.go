// Command lanprov-host runs the provisioning host: it brings up an access
// point, serves the control endpoint on it and reports every provisioning
// payload peers submit.
//
// The platform layer is simulated over the loopback interface, which makes
// the full flow runnable on a development machine.
//
// Usage:
//
//	lanprov-host [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-ssid string       Preferred access point name (default "LanDiscoveryAP")
//	-passphrase string Preferred access point passphrase
//	-port int          Control endpoint port (default 8989)
//	-advertise         Announce the endpoint via mDNS
//	-event-log string  Append structured events to this file (CBOR)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-interactive       Enable the interactive console
//
// Examples:
//
//	# Start with defaults and the interactive console
//	lanprov-host -interactive
//
//	# Start from a config file with mDNS announcement
//	lanprov-host -config host.yaml -advertise
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lanprov-protocol/lanprov-go/cmd/lanprov-host/interactive"
	"github.com/lanprov-protocol/lanprov-go/pkg/controlplane"
	"github.com/lanprov-protocol/lanprov-go/pkg/discovery"
	"github.com/lanprov-protocol/lanprov-go/pkg/log"
	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
	"github.com/lanprov-protocol/lanprov-go/pkg/softap"
	"github.com/lanprov-protocol/lanprov-go/pkg/wire"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg.LogLevel)

	// Event plumbing: console always, file when requested.
	sink := log.NewSink()
	sink.Subscribe(log.NewSlogAdapter(logger))
	if cfg.EventLog != "" {
		fileLogger, err := log.NewFileLogger(cfg.EventLog)
		if err != nil {
			logger.Error("failed to open event log", "path", cfg.EventLog, "error", err)
			os.Exit(1)
		}
		defer fileLogger.Close()
		sink.Subscribe(fileLogger)
		logger.Info("event capture enabled", "path", fileLogger.Path())
	}

	hotspot := &platform.LoopbackHotspot{}

	apConfig := softap.DefaultConfig(hotspot, platform.AllGranted{})
	apConfig.SSID = cfg.SSID
	apConfig.Passphrase = cfg.Passphrase
	apConfig.Logger = logger
	apConfig.Events = sink

	controller, err := softap.NewController(apConfig)
	if err != nil {
		logger.Error("failed to create access point controller", "error", err)
		os.Exit(1)
	}
	defer controller.Close()

	listener := controlplane.NewListener(controlplane.Config{
		Address:   fmt.Sprintf(":%d", cfg.Port),
		Logger:    logger,
		Events:    sink,
		OnPayload: func(p wire.Payload) { handlePayload(logger, p) },
	})
	defer listener.Stop()

	var advertiser *discovery.MDNSAdvertiser
	if cfg.Advertise {
		advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
		defer advertiser.Stop()
	}

	// The endpoint only exists while the access point is up.
	controller.OnRunning(func(creds platform.Credentials) {
		handle, err := listener.Start()
		if err != nil {
			logger.Error("failed to start control listener", "error", err)
			return
		}
		logger.Info("control endpoint live",
			"ssid", creds.SSID, "gateway", creds.Gateway, "port", handle.Port)

		if advertiser != nil {
			err := advertiser.Advertise(&discovery.EndpointInfo{
				SSID:    creds.SSID,
				Gateway: creds.Gateway,
				Port:    handle.Port,
			})
			if err != nil {
				logger.Warn("failed to advertise endpoint", "error", err)
			}
		}
	})
	controller.OnStopped(func(s softap.State) {
		logger.Info("access point left running state", "state", s.String())
		listener.Stop()
		if advertiser != nil {
			advertiser.Stop()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Start(ctx); err != nil {
		logger.Error("failed to start access point", "error", err)
		os.Exit(1)
	}

	if cfg.Interactive {
		console, err := interactive.New(controller, listener)
		if err != nil {
			logger.Error("failed to create console", "error", err)
			os.Exit(1)
		}
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	listener.Stop()
	controller.Stop()
}

func handlePayload(logger *slog.Logger, p wire.Payload) {
	// Well-formed but empty submissions pass the transport; they are
	// rejected here where the credentials would be consumed.
	if strings.TrimSpace(p.TargetNetworkName) == "" {
		logger.Warn("discarding payload without a target network name")
		return
	}
	logger.Info("received target network credentials",
		"ssid", p.TargetNetworkName,
		"submitted", p.SubmittedTime().Format("15:04:05.000"))
}

func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func loadConfig() (*Config, error) {
	var (
		flags      = DefaultConfig()
		configFile string
	)

	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.SSID, "ssid", flags.SSID, "Preferred access point name")
	flag.StringVar(&flags.Passphrase, "passphrase", flags.Passphrase, "Preferred access point passphrase")
	flag.IntVar(&flags.Port, "port", flags.Port, "Control endpoint port")
	flag.BoolVar(&flags.Advertise, "advertise", flags.Advertise, "Announce the endpoint via mDNS")
	flag.StringVar(&flags.EventLog, "event-log", flags.EventLog, "Append structured events to this file")
	flag.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.Interactive, "interactive", flags.Interactive, "Enable the interactive console")
	flag.Parse()

	cfg := DefaultConfig()
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return nil, err
		}
	}

	// Flags given explicitly win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ssid":
			cfg.SSID = flags.SSID
		case "passphrase":
			cfg.Passphrase = flags.Passphrase
		case "port":
			cfg.Port = flags.Port
		case "advertise":
			cfg.Advertise = flags.Advertise
		case "event-log":
			cfg.EventLog = flags.EventLog
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "interactive":
			cfg.Interactive = flags.Interactive
		}
	})
	if configFile == "" {
		cfg = flags
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
