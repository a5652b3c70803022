package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var queryCall = callNode

func runQueryCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: relp-cli query <supply|farm|account|allowance|pool|award|events> [flags]")
		return 1
	}
	path, err := queryPath(args[0], args[1:], stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	result, err := queryCall(http.MethodGet, path, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	writeResult(stdout, result)
	return 0
}

func queryPath(kind string, args []string, stderr io.Writer) (string, error) {
	fs := flag.NewFlagSet("query "+kind, flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "", "account address")
	owner := fs.String("owner", "", "allowance owner")
	spender := fs.String("spender", "", "allowance spender")
	pool := fs.String("pool", "stable", "reward pool (stable|native)")
	index := fs.Uint64("index", 0, "award index")
	eventType := fs.String("type", "", "event type filter")
	from := fs.Uint64("from", 0, "first block")
	to := fs.Uint64("to", 0, "last block")
	limit := fs.Int("limit", 0, "maximum records")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() > 0 {
		return "", fmt.Errorf("unexpected positional arguments")
	}

	required := func(name, value string) (string, error) {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "", fmt.Errorf("--%s is required", name)
		}
		return url.PathEscape(trimmed), nil
	}

	switch kind {
	case "supply":
		return "/v1/supply", nil
	case "farm":
		return "/v1/farm", nil
	case "account":
		a, err := required("addr", *addr)
		if err != nil {
			return "", err
		}
		return "/v1/accounts/" + a, nil
	case "allowance":
		o, err := required("owner", *owner)
		if err != nil {
			return "", err
		}
		s, err := required("spender", *spender)
		if err != nil {
			return "", err
		}
		return "/v1/accounts/" + o + "/allowances/" + s, nil
	case "pool":
		p, err := required("pool", *pool)
		if err != nil {
			return "", err
		}
		return "/v1/pools/" + p, nil
	case "award":
		p, err := required("pool", *pool)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("/v1/pools/%s/awards/%d", p, *index), nil
	case "events":
		q := url.Values{}
		if *eventType != "" {
			q.Set("type", *eventType)
		}
		if *from > 0 {
			q.Set("from", fmt.Sprint(*from))
		}
		if *to > 0 {
			q.Set("to", fmt.Sprint(*to))
		}
		if *limit > 0 {
			q.Set("limit", fmt.Sprint(*limit))
		}
		if len(q) == 0 {
			return "/v1/events", nil
		}
		return "/v1/events?" + q.Encode(), nil
	default:
		return "", fmt.Errorf("unknown query %q", kind)
	}
}
