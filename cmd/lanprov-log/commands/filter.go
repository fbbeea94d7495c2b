package commands

import (
	"fmt"
	"io"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	OperationID string
	SSID        string
	Component   *log.Component
}

// RunFilter filters the log file and writes matching events to a new file.
func RunFilter(path, output string, opts FilterOptions) error {
	filter := log.Filter{
		OperationID: opts.OperationID,
		SSID:        opts.SSID,
		Component:   opts.Component,
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Printf("Filtered %d events to %s\n", count, output)
	return nil
}
