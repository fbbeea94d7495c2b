// Package commands implements the lanprov-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Component *log.Component
	Category  *log.Category
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	opID := shortenOpID(event.OperationID)

	var typeLabel string
	switch {
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = event.Category.String()
	}

	fmt.Fprintf(w, "%s [op:%s] %s %s\n", ts, opID, event.Component, typeLabel)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	if event.Message != "" {
		fmt.Fprintf(w, "  Message: %s\n", event.Message)
	}
	if event.SSID != "" {
		fmt.Fprintf(w, "  SSID: %s\n", event.SSID)
	}
	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", event.RemoteAddr)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenOpID returns the first 8 characters of the operation ID.
func shortenOpID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Error: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseComponentFlag parses a component string from a command-line flag
// (case-insensitive).
func ParseComponentFlag(s string) (log.Component, error) {
	switch strings.ToLower(s) {
	case "ap", "accesspoint", "access-point":
		return log.ComponentAccessPoint, nil
	case "listener":
		return log.ComponentListener, nil
	case "attachment":
		return log.ComponentAttachment, nil
	case "sender":
		return log.ComponentSender, nil
	case "discovery":
		return log.ComponentDiscovery, nil
	default:
		return 0, fmt.Errorf("invalid component: %s (must be ap, listener, attachment, sender, or discovery)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "status":
		return log.CategoryStatus, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "payload":
		return log.CategoryPayload, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be status, state, error, or payload)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		Component: filter.Component,
		Category:  filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
