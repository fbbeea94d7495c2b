// Package interactive provides the interactive command-line interface
// for the provisioning peer.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/lanprov-protocol/lanprov-go/pkg/attachment"
	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
	"github.com/lanprov-protocol/lanprov-go/pkg/provision"
)

// Peer handles interactive mode for lanprov-peer.
type Peer struct {
	manager *attachment.Manager
	sender  *provision.Sender
	rl      *readline.Instance

	ssid       string
	passphrase string
}

// New creates a new interactive peer handler.
func New(manager *attachment.Manager, sender *provision.Sender, ssid, passphrase string) (*Peer, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "peer> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Peer{
		manager:    manager,
		sender:     sender,
		rl:         rl,
		ssid:       ssid,
		passphrase: passphrase,
	}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (p *Peer) Stdout() io.Writer {
	return p.rl.Stdout()
}

// Run starts the interactive command loop.
func (p *Peer) Run(ctx context.Context, cancel context.CancelFunc) {
	defer p.rl.Close()

	p.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := p.rl.Readline()
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

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			p.printHelp()

		case "status":
			p.cmdStatus()

		case "connect":
			p.cmdConnect(ctx)

		case "disconnect":
			p.manager.Disconnect()
			fmt.Fprintln(p.rl.Stdout(), "Detached.")

		case "send":
			p.cmdSend(ctx, args)

		case "quit", "exit", "q":
			cancel()
			return

		default:
			fmt.Fprintf(p.rl.Stdout(), "Unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func (p *Peer) cmdStatus() {
	out := p.rl.Stdout()
	fmt.Fprintf(out, "Attachment: %s\n", p.manager.State())
	if n := p.manager.BoundNetwork(); n != nil {
		fmt.Fprintf(out, "Network:    %s\n", n.ID())
	}
}

func (p *Peer) cmdConnect(ctx context.Context) {
	out := p.rl.Stdout()
	spec := platform.NetworkSpec{SSID: p.ssid, Passphrase: p.passphrase}
	if err := p.manager.Connect(ctx, spec); err != nil {
		fmt.Fprintf(out, "Connect failed: %v\n", err)
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := p.manager.WaitForState(waitCtx, attachment.StateBound); err != nil {
		fmt.Fprintf(out, "Attachment did not bind (state %s)\n", p.manager.State())
		return
	}
	fmt.Fprintf(out, "Attached to %s.\n", p.ssid)
}

func (p *Peer) cmdSend(ctx context.Context, args []string) {
	out := p.rl.Stdout()
	if len(args) < 1 {
		fmt.Fprintln(out, "Usage: send <target-ssid> [target-passphrase]")
		return
	}
	targetSSID := args[0]
	targetPass := ""
	if len(args) > 1 {
		targetPass = args[1]
	}

	err := p.sender.Send(ctx, targetSSID, targetPass)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Delivered credentials for %q.\n", targetSSID)
	case err == provision.ErrNotBound:
		fmt.Fprintln(out, "Not attached. Run 'connect' first.")
	default:
		fmt.Fprintf(out, "Send failed: %v\n", err)
	}
}

func (p *Peer) printHelp() {
	fmt.Fprint(p.rl.Stdout(), `
Commands:
  status               Show attachment state
  connect              Attach to the access point network
  disconnect           Detach and unpin traffic
  send <ssid> [pass]   Deliver target network credentials
  quit                 Detach and exit
`)
}
