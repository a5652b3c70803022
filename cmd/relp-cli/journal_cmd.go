package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"relpchain/storage/eventlog"
)

func runJournalCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: relp-cli journal <verify|export> --db FILE [flags]")
		return 1
	}
	sub := args[0]
	if sub != "verify" && sub != "export" {
		fmt.Fprintf(stderr, "Unknown journal subcommand: %s\n", sub)
		return 1
	}
	fs := flag.NewFlagSet("journal "+sub, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "event journal sqlite file")
	out := fs.String("out", "", "parquet file to write (export)")
	eventType := fs.String("type", "", "event type filter (export)")
	from := fs.Uint64("from", 0, "first block (export)")
	to := fs.Uint64("to", 0, "last block (export)")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}
	if strings.TrimSpace(*dbPath) == "" {
		fmt.Fprintln(stderr, "Error: --db is required")
		return 1
	}
	if sub == "export" && strings.TrimSpace(*out) == "" {
		fmt.Fprintln(stderr, "Error: --out is required")
		return 1
	}

	journal, err := eventlog.Open(eventlog.FileDSN(*dbPath))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer journal.Close()

	ctx := context.Background()
	if sub == "verify" {
		checked, err := journal.Verify(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v (after %d records)\n", err, checked)
			return 1
		}
		fmt.Fprintf(stdout, "ok: %d records\n", checked)
		return 0
	}
	written, err := journal.ExportParquet(ctx, *out, eventlog.Filter{Type: *eventType, FromBlock: *from, ToBlock: *to})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %d records to %s\n", written, *out)
	return 0
}
