package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByComponent map[log.Component]int
	EventsByCategory  map[log.Category]int
	Operations        map[string]*OperationStats
	Payloads          int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// OperationStats holds statistics for a single lifecycle operation.
type OperationStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	SSID      string
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByComponent: make(map[log.Component]int),
		EventsByCategory:  make(map[log.Category]int),
		Operations:        make(map[string]*OperationStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByComponent[event.Component]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.OperationID != "" {
			op, ok := stats.Operations[event.OperationID]
			if !ok {
				op = &OperationStats{
					FirstSeen: event.Timestamp,
					LastSeen:  event.Timestamp,
				}
				stats.Operations[event.OperationID] = op
			}
			op.Events++
			if event.Timestamp.After(op.LastSeen) {
				op.LastSeen = event.Timestamp
			}
			if event.SSID != "" && op.SSID == "" {
				op.SSID = event.SSID
			}
		}

		if event.Category == log.CategoryPayload {
			stats.Payloads++
		}
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Provisioning Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Component:")
	for _, c := range []log.Component{
		log.ComponentAccessPoint,
		log.ComponentListener,
		log.ComponentAttachment,
		log.ComponentSender,
		log.ComponentDiscovery,
	} {
		if count := stats.EventsByComponent[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryStatus, log.CategoryState, log.CategoryError, log.CategoryPayload} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Operations: %d\n", len(stats.Operations))
	if len(stats.Operations) > 0 {
		type opInfo struct {
			id    string
			stats *OperationStats
		}
		ops := make([]opInfo, 0, len(stats.Operations))
		for id, os := range stats.Operations {
			ops = append(ops, opInfo{id, os})
		}
		sort.Slice(ops, func(i, j int) bool {
			return ops[i].stats.FirstSeen.Before(ops[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, o := range ops {
			duration := o.stats.LastSeen.Sub(o.stats.FirstSeen).Round(time.Millisecond)
			shortID := o.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, o.stats.Events, duration)
			if o.stats.SSID != "" {
				fmt.Fprintf(w, "           SSID: %s\n", o.stats.SSID)
			}
		}
	}

	if stats.Payloads > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Payloads: %d\n", stats.Payloads)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
