// Command lanprov-log is a tool for viewing and analyzing provisioning event
// log files.
//
// Log files are created by lanprov-host and lanprov-peer when run with the
// -event-log flag.
//
// Usage:
//
//	lanprov-log <command> [flags] <file.plog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	lanprov-log view host.plog
//
//	# View only access point events
//	lanprov-log view --component ap host.plog
//
//	# Export to JSONL
//	lanprov-log export --format jsonl host.plog
//
//	# Filter by operation and save to new file
//	lanprov-log filter --op-id abc12345 -o filtered.plog host.plog
//
//	# Show statistics
//	lanprov-log stats host.plog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lanprov-protocol/lanprov-go/cmd/lanprov-log/commands"
)

const usage = `lanprov-log - Provisioning Event Log Analyzer

Usage:
  lanprov-log <command> [flags] <file.plog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "lanprov-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `lanprov-log view - View log file in human-readable format

Usage:
  lanprov-log view [flags] <file.plog>

Flags:
`)
		fs.PrintDefaults()
	}

	component := fs.String("component", "", "Filter by component (ap, listener, attachment, sender, discovery)")
	category := fs.String("category", "", "Filter by category (status, state, error, payload)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	var filter commands.ViewFilter
	if *component != "" {
		c, err := commands.ParseComponentFlag(*component)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Component = &c
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "jsonl", "Output format: jsonl, csv")
	output := fs.String("o", "", "Output file (default stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	opID := fs.String("op-id", "", "Filter by operation ID")
	ssid := fs.String("ssid", "", "Filter by network name")
	component := fs.String("component", "", "Filter by component (ap, listener, attachment, sender, discovery)")
	output := fs.String("o", "", "Output file (required)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "Error: log file path and -o output file required")
		os.Exit(1)
	}

	opts := commands.FilterOptions{OperationID: *opID, SSID: *ssid}
	if *component != "" {
		c, err := commands.ParseComponentFlag(*component)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.Component = &c
	}

	if err := commands.RunFilter(fs.Arg(0), *output, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
