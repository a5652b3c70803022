package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var nodeEndpoint = defaultNodeEndpoint()
var authToken = os.Getenv("RELP_TOKEN")

func main() {
	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "keygen":
		return runKeygenCommand(args[1:], stdout, stderr)
	case "address":
		return runAddressCommand(args[1:], stdout, stderr)
	case "query":
		return runQueryCommand(args[1:], stdout, stderr)
	case "tx":
		return runTxCommand(args[1:], stdout, stderr)
	case "replay":
		return runReplayCommand(args[1:], stdout, stderr)
	case "journal":
		return runJournalCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return strings.Join([]string{
		"Usage: relp-cli [--node URL] <command> [flags]",
		"",
		"Commands:",
		"  keygen   --out FILE [--light]         create an encrypted keystore",
		"  address  --keystore FILE              print the address of a keystore",
		"  query    <supply|farm|account|allowance|pool|award|events> [flags]",
		"  tx       <op> [flags]                 submit a ledger call to the node",
		"  replay   FILE                         run a YAML scenario against an in-memory ledger",
		"  journal  <verify|export> --db FILE    check or export a node's event journal",
		"",
		"Environment: RELP_NODE_URL, RELP_TOKEN, RELP_KEYSTORE_PASSPHRASE",
	}, "\n")
}

func defaultNodeEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RELP_NODE_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--node" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --node")
			}
			nodeEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--node=") {
			nodeEndpoint = strings.TrimPrefix(arg, "--node=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}
