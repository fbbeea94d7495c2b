// Package interactive provides the interactive command-line interface
// for the provisioning host.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lanprov-protocol/lanprov-go/pkg/controlplane"
	"github.com/lanprov-protocol/lanprov-go/pkg/softap"
)

// Host handles interactive mode for lanprov-host.
type Host struct {
	controller *softap.Controller
	listener   *controlplane.Listener
	rl         *readline.Instance
}

// New creates a new interactive host handler.
func New(controller *softap.Controller, listener *controlplane.Listener) (*Host, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "host> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Host{
		controller: controller,
		listener:   listener,
		rl:         rl,
	}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (h *Host) Stdout() io.Writer {
	return h.rl.Stdout()
}

// Run starts the interactive command loop.
func (h *Host) Run(ctx context.Context, cancel context.CancelFunc) {
	defer h.rl.Close()

	h.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := h.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			// EOF
			cancel()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "help", "?":
			h.printHelp()

		case "status":
			h.cmdStatus()

		case "creds":
			h.cmdCreds()

		case "restart":
			h.cmdRestart(ctx)

		case "stop":
			h.controller.Stop()
			fmt.Fprintln(h.rl.Stdout(), "Access point stopped.")

		case "start":
			if err := h.controller.Start(ctx); err != nil {
				fmt.Fprintf(h.rl.Stdout(), "Start failed: %v\n", err)
			}

		case "quit", "exit", "q":
			cancel()
			return

		default:
			fmt.Fprintf(h.rl.Stdout(), "Unknown command: %s (try 'help')\n", line)
		}
	}
}

func (h *Host) cmdStatus() {
	out := h.rl.Stdout()
	fmt.Fprintf(out, "Access point: %s\n", h.controller.State())
	if reason := h.controller.FailReason(); reason != "" && h.controller.State() == softap.StateFailed {
		fmt.Fprintf(out, "Failure:      %s\n", reason)
	}
	if handle := h.listener.Handle(); handle != nil {
		fmt.Fprintf(out, "Endpoint:     %s\n", handle.Addr)
	} else {
		fmt.Fprintln(out, "Endpoint:     down")
	}
}

func (h *Host) cmdCreds() {
	out := h.rl.Stdout()
	if h.controller.State() != softap.StateRunning {
		fmt.Fprintln(out, "Access point is not running.")
		return
	}
	creds := h.controller.Credentials()
	fmt.Fprintf(out, "SSID:       %s\n", creds.SSID)
	fmt.Fprintf(out, "Passphrase: %s\n", creds.Passphrase)
	fmt.Fprintf(out, "Gateway:    %s\n", creds.Gateway)
}

func (h *Host) cmdRestart(ctx context.Context) {
	fmt.Fprintln(h.rl.Stdout(), "Restarting access point...")
	if err := h.controller.Restart(ctx); err != nil {
		fmt.Fprintf(h.rl.Stdout(), "Restart failed: %v\n", err)
	}
}

func (h *Host) printHelp() {
	fmt.Fprint(h.rl.Stdout(), `
Commands:
  status    Show access point and endpoint state
  creds     Show the live access point credentials
  start     Start the access point
  stop      Stop the access point
  restart   Restart the access point
  quit      Shut down and exit
`)
}
