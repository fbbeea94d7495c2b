package provision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
	"github.com/lanprov-protocol/lanprov-go/pkg/wire"
)

var (
	// ErrNotBound indicates a send was attempted without a bound
	// attachment. No connection attempt is made in that case.
	ErrNotBound = errors.New("no network attachment bound")

	// ErrSendFailed indicates the submission did not succeed. All
	// transport and server failures collapse into this error; the
	// underlying cause goes to the log, not to the caller.
	ErrSendFailed = errors.New("provisioning send failed")
)

const (
	// DefaultConnectTimeout bounds connection establishment.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultReadTimeout bounds the whole request including the response.
	DefaultReadTimeout = 5 * time.Second
)

// NetworkSource supplies the currently bound network, or nil when none is.
type NetworkSource interface {
	BoundNetwork() platform.Network
}

// Config configures a Sender.
type Config struct {
	// Attachment supplies the bound network to send over (required).
	Attachment NetworkSource

	// Gateway is the host control endpoint address. Defaults to the
	// conventional access point gateway.
	Gateway string

	// Port is the control endpoint port. Defaults to the conventional
	// control port.
	Port int

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the whole exchange.
	ReadTimeout time.Duration

	// Logger for debug output (optional).
	Logger *slog.Logger

	// Events receives send outcome events (optional).
	Events log.Logger
}

// Sender submits provisioning payloads to the host.
type Sender struct {
	config Config
}

// NewSender creates a Sender.
func NewSender(config Config) (*Sender, error) {
	if config.Attachment == nil {
		return nil, fmt.Errorf("attachment source is required")
	}
	if config.Gateway == "" {
		config.Gateway = wire.DefaultGateway
	}
	if config.Port == 0 {
		config.Port = wire.DefaultControlPort
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = DefaultReadTimeout
	}
	return &Sender{config: config}, nil
}

// Send submits the target network credentials to the host. The attachment
// must be bound; otherwise ErrNotBound is returned before any I/O. Every
// failure past that point, connect, timeout, or a non-OK status, is reported
// as ErrSendFailed.
func (s *Sender) Send(ctx context.Context, targetSSID, targetPassphrase string) error {
	network := s.config.Attachment.BoundNetwork()
	if network == nil {
		s.logError("send refused: no attachment bound")
		return ErrNotBound
	}

	payload := wire.NewPayload(targetSSID, targetPassphrase)
	body, err := wire.EncodePayload(payload)
	if err != nil {
		s.logError(fmt.Sprintf("failed to encode payload: %v", err))
		return ErrSendFailed
	}

	client := &http.Client{
		Timeout: s.config.ReadTimeout,
		Transport: &http.Transport{
			// All connections go through the bound network handle so
			// traffic cannot escape onto another interface.
			DialContext:       network.DialContext,
			DisableKeepAlives: true,
		},
	}

	url := fmt.Sprintf("http://%s:%d%s", s.config.Gateway, s.config.Port, wire.ProvisionPath)
	ctx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout+s.config.ReadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.logError(fmt.Sprintf("failed to build request: %v", err))
		return ErrSendFailed
	}
	req.Header.Set("Content-Type", "application/json")

	if s.config.Logger != nil {
		s.config.Logger.Debug("sending provisioning payload", "url", url, "ssid", targetSSID)
	}

	resp, err := client.Do(req)
	if err != nil {
		s.logError(fmt.Sprintf("send failed: %v", err))
		return ErrSendFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logError(fmt.Sprintf("host rejected payload: status %d", resp.StatusCode))
		return ErrSendFailed
	}

	s.emit(log.Event{
		Timestamp: time.Now(),
		Component: log.ComponentSender,
		Category:  log.CategoryPayload,
		SSID:      targetSSID,
		Message:   "provisioning payload delivered",
	})
	return nil
}

func (s *Sender) logError(msg string) {
	if s.config.Logger != nil {
		s.config.Logger.Warn(msg)
	}
	s.emit(log.Event{
		Timestamp: time.Now(),
		Component: log.ComponentSender,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Message: msg},
	})
}

func (s *Sender) emit(ev log.Event) {
	if s.config.Events != nil {
		s.config.Events.Log(ev)
	}
}
