package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

var txRoutes = map[string]string{
	"mint":         "/v1/tx/mint",
	"burn":         "/v1/tx/burn",
	"transfer":     "/v1/tx/transfer",
	"transferFrom": "/v1/tx/transferFrom",
	"approve":      "/v1/tx/approve",
	"lock":         "/v1/tx/lock",
	"touch":        "/v1/tx/touch",
	"announce":     "/v1/admin/awards",
	"dailyAward":   "/v1/admin/dailyAward",
	"blockAwards":  "/v1/admin/blockAwards",
}

var txCall = callNode

func txOps() []string {
	ops := make([]string, 0, len(txRoutes))
	for op := range txRoutes {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func runTxCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(stderr, "Usage: relp-cli tx <%s> [flags]\n", strings.Join(txOps(), "|"))
		return 1
	}
	op := args[0]
	path, ok := txRoutes[op]
	if !ok {
		fmt.Fprintf(stderr, "Unknown tx operation: %s\n", op)
		return 1
	}

	fs := flag.NewFlagSet("tx "+op, flag.ContinueOnError)
	fs.SetOutput(stderr)
	block := fs.Int64("block", -1, "block height (defaults to the node's height)")
	fields := map[string]*string{}
	for _, name := range []string{"account", "from", "to", "owner", "spender", "amount", "pool"} {
		fields[name] = fs.String(name, "", name)
	}
	until := fs.Uint64("until", 0, "lock expiry block (0 locks indefinitely)")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}

	body := map[string]interface{}{}
	if *block >= 0 {
		body["block"] = uint64(*block)
	}
	for name, value := range fields {
		if trimmed := strings.TrimSpace(*value); trimmed != "" {
			body[name] = trimmed
		}
	}
	if *until > 0 {
		body["untilBlock"] = *until
	}

	result, err := txCall(http.MethodPost, path, body)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	writeResult(stdout, result)
	return 0
}
