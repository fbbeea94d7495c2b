// Command lanprov-peer runs the provisioning peer: it attaches to a host's
// access point, pins its traffic to that network and submits the target
// network credentials to the host's control endpoint.
//
// The platform layer is simulated over the loopback interface, which makes
// the full flow runnable on a development machine against lanprov-host.
//
// Usage:
//
//	lanprov-peer [flags]
//
// Flags:
//
//	-config string       Configuration file path (YAML)
//	-ssid string         Access point name to join (default "LanDiscoveryAP")
//	-passphrase string   Access point passphrase
//	-gateway string      Control endpoint address (default "192.168.49.1")
//	-port int            Control endpoint port (default 8989)
//	-target-ssid string  Network name to deliver
//	-target-pass string  Network passphrase to deliver
//	-discover            Resolve the endpoint via mDNS
//	-event-log string    Append structured events to this file (CBOR)
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-interactive         Enable the interactive console
//
// Examples:
//
//	# Deliver credentials and exit
//	lanprov-peer -target-ssid HomeWifi -target-pass secret123
//
//	# Resolve the endpoint via mDNS first
//	lanprov-peer -discover -target-ssid HomeWifi -target-pass secret123
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
	"time"

	"github.com/lanprov-protocol/lanprov-go/cmd/lanprov-peer/interactive"
	"github.com/lanprov-protocol/lanprov-go/pkg/attachment"
	"github.com/lanprov-protocol/lanprov-go/pkg/discovery"
	"github.com/lanprov-protocol/lanprov-go/pkg/log"
	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
	"github.com/lanprov-protocol/lanprov-go/pkg/provision"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg.LogLevel)

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

	manager, err := attachment.NewManager(attachment.Config{
		Requester: &platform.LoopbackRequester{},
		Binder:    &platform.LoopbackBinder{},
		Logger:    logger,
		Events:    sink,
	})
	if err != nil {
		logger.Error("failed to create attachment manager", "error", err)
		os.Exit(1)
	}
	defer manager.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Discover {
		if err := resolveEndpoint(ctx, logger, cfg); err != nil {
			logger.Error("endpoint discovery failed", "error", err)
			os.Exit(1)
		}
	}

	sender, err := provision.NewSender(provision.Config{
		Attachment: manager,
		Gateway:    cfg.Gateway,
		Port:       cfg.Port,
		Logger:     logger,
		Events:     sink,
	})
	if err != nil {
		logger.Error("failed to create sender", "error", err)
		os.Exit(1)
	}

	if cfg.Interactive {
		console, err := interactive.New(manager, sender, cfg.SSID, cfg.Passphrase)
		if err != nil {
			logger.Error("failed to create console", "error", err)
			os.Exit(1)
		}
		go console.Run(ctx, cancel)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("received signal", "signal", sig.String())
		case <-ctx.Done():
		}
		manager.Disconnect()
		return
	}

	// One-shot mode: attach, deliver, detach.
	if err := runOnce(ctx, logger, cfg, manager, sender); err != nil {
		logger.Error("provisioning failed", "error", err)
		manager.Disconnect()
		os.Exit(1)
	}
	logger.Info("credentials delivered", "target", cfg.TargetSSID)
	manager.Disconnect()
}

func runOnce(ctx context.Context, logger *slog.Logger, cfg *Config, manager *attachment.Manager, sender *provision.Sender) error {
	spec := platform.NetworkSpec{SSID: cfg.SSID, Passphrase: cfg.Passphrase}
	if err := manager.Connect(ctx, spec); err != nil {
		return fmt.Errorf("attachment request failed: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := manager.WaitForState(waitCtx, attachment.StateBound); err != nil {
		return fmt.Errorf("attachment never bound (state %s): %w", manager.State(), err)
	}
	logger.Info("attached to access point network", "ssid", cfg.SSID)

	return sender.Send(ctx, cfg.TargetSSID, cfg.TargetPassphrase)
}

// resolveEndpoint overwrites the endpoint conventions with a discovered
// announcement.
func resolveEndpoint(ctx context.Context, logger *slog.Logger, cfg *Config) error {
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{})

	findCtx, cancel := context.WithTimeout(ctx, discovery.BrowseTimeout)
	defer cancel()

	svc, err := browser.FindEndpoint(findCtx)
	if err != nil {
		return err
	}

	logger.Info("discovered endpoint",
		"instance", svc.InstanceName, "ssid", svc.SSID,
		"gateway", svc.Gateway, "port", svc.Port)

	cfg.SSID = svc.SSID
	cfg.Gateway = svc.Gateway
	cfg.Port = svc.Port
	return nil
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
	flag.StringVar(&flags.SSID, "ssid", flags.SSID, "Access point name to join")
	flag.StringVar(&flags.Passphrase, "passphrase", flags.Passphrase, "Access point passphrase")
	flag.StringVar(&flags.Gateway, "gateway", flags.Gateway, "Control endpoint address")
	flag.IntVar(&flags.Port, "port", flags.Port, "Control endpoint port")
	flag.StringVar(&flags.TargetSSID, "target-ssid", flags.TargetSSID, "Network name to deliver")
	flag.StringVar(&flags.TargetPassphrase, "target-pass", flags.TargetPassphrase, "Network passphrase to deliver")
	flag.BoolVar(&flags.Discover, "discover", flags.Discover, "Resolve the endpoint via mDNS")
	flag.StringVar(&flags.EventLog, "event-log", flags.EventLog, "Append structured events to this file")
	flag.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.Interactive, "interactive", flags.Interactive, "Enable the interactive console")
	flag.Parse()

	cfg := DefaultConfig()
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return nil, err
		}
		// Flags given explicitly win over the file.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "ssid":
				cfg.SSID = flags.SSID
			case "passphrase":
				cfg.Passphrase = flags.Passphrase
			case "gateway":
				cfg.Gateway = flags.Gateway
			case "port":
				cfg.Port = flags.Port
			case "target-ssid":
				cfg.TargetSSID = flags.TargetSSID
			case "target-pass":
				cfg.TargetPassphrase = flags.TargetPassphrase
			case "discover":
				cfg.Discover = flags.Discover
			case "event-log":
				cfg.EventLog = flags.EventLog
			case "log-level":
				cfg.LogLevel = flags.LogLevel
			case "interactive":
				cfg.Interactive = flags.Interactive
			}
		})
	} else {
		cfg = flags
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
