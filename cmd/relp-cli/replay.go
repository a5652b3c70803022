package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"relpchain/core/events"
	"relpchain/crypto"
	"relpchain/native/relp"
)

// scenario is a scripted sequence of ledger calls replayed against an
// in-memory engine, followed by expectations on the resulting state.
type scenario struct {
	Params scenarioParams `yaml:"params"`
	Steps  []scenarioStep `yaml:"steps"`
	Expect scenarioExpect `yaml:"expect"`
}

type scenarioParams struct {
	BlockTimeMs        *uint64 `yaml:"blockTimeMs"`
	AwardScale         *uint64 `yaml:"awardScale"`
	DailyAward         string  `yaml:"dailyAward"`
	DailyDecayBps      *uint64 `yaml:"dailyDecayBps"`
	BlockAwardDaily    string  `yaml:"blockAwardDaily"`
	BlockAwardDecayBps *uint64 `yaml:"blockAwardDecayBps"`
	GenesisBlock       *uint64 `yaml:"genesisBlock"`
}

type scenarioStep struct {
	Block       uint64 `yaml:"block"`
	Op          string `yaml:"op"`
	Account     string `yaml:"account"`
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	Owner       string `yaml:"owner"`
	Spender     string `yaml:"spender"`
	Amount      string `yaml:"amount"`
	Pool        string `yaml:"pool"`
	UntilBlock  uint64 `yaml:"untilBlock"`
	ExpectError string `yaml:"expectError"`
}

// scenarioExpect values are decimal strings. Account keys are labels or
// bech32 addresses; reward expectations compare settled plus pending credit.
type scenarioExpect struct {
	TotalSupply string                       `yaml:"totalSupply"`
	TotalReward string                       `yaml:"totalReward"`
	Balances    map[string]string            `yaml:"balances"`
	Rewards     map[string]string            `yaml:"rewards"`
	PoolRewards map[string]map[string]string `yaml:"poolRewards"`
}

var errExpectation = errors.New("expectation failed")

func runReplayCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Usage: relp-cli replay FILE")
		return 1
	}
	sc, err := loadScenario(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := replayScenario(sc, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadScenario(path string) (*scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var sc scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	return &sc, nil
}

func (p scenarioParams) build() (relp.Params, error) {
	params := relp.DefaultParams()
	if p.BlockTimeMs != nil {
		params.BlockTimeMs = *p.BlockTimeMs
	}
	if p.AwardScale != nil {
		params.AwardScale = *p.AwardScale
	}
	if p.DailyDecayBps != nil {
		params.DailyDecayBps = *p.DailyDecayBps
	}
	if p.BlockAwardDecayBps != nil {
		params.BlockAwardDecayBps = *p.BlockAwardDecayBps
	}
	if p.GenesisBlock != nil {
		params.GenesisBlock = *p.GenesisBlock
	}
	if p.DailyAward != "" {
		amount, err := parseDecimal(p.DailyAward)
		if err != nil {
			return params, fmt.Errorf("dailyAward: %w", err)
		}
		params.DailyAward = *amount
	}
	if p.BlockAwardDaily != "" {
		amount, err := parseDecimal(p.BlockAwardDaily)
		if err != nil {
			return params, fmt.Errorf("blockAwardDaily: %w", err)
		}
		params.BlockAwardDaily = *amount
	}
	return params, params.Validate()
}

func parseDecimal(raw string) (*uint256.Int, error) {
	return uint256.FromDecimal(strings.ReplaceAll(strings.TrimSpace(raw), "_", ""))
}

// resolveAccount accepts a bech32 address or derives a stable address from a
// label.
func resolveAccount(label string) (crypto.Address, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return crypto.Address{}, fmt.Errorf("account required")
	}
	if addr, err := crypto.ParseAddress(trimmed); err == nil {
		return addr, nil
	}
	return crypto.BytesToAddress(ethcrypto.Keccak256([]byte(trimmed))[12:])
}

func replayScenario(sc *scenario, w io.Writer) error {
	params, err := sc.Params.build()
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	engine, err := relp.NewEngine(params)
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	engine.SetState(relp.NewMemoryState())
	buffer := &events.Buffer{}
	engine.SetEmitter(buffer)

	for i, step := range sc.Steps {
		engine.SetBlockHeight(step.Block)
		callErr := applyStep(engine, step, w)
		emitted := len(buffer.Drain())
		switch {
		case step.ExpectError != "":
			if callErr == nil {
				return fmt.Errorf("step %d (%s): %w: expected error %q", i, step.Op, errExpectation, step.ExpectError)
			}
			if !strings.Contains(strings.ToLower(callErr.Error()), strings.ToLower(step.ExpectError)) {
				return fmt.Errorf("step %d (%s): %w: error %q does not mention %q", i, step.Op, errExpectation, callErr, step.ExpectError)
			}
			fmt.Fprintf(w, "block=%d op=%s rejected: %v\n", step.Block, step.Op, callErr)
		case callErr != nil:
			return fmt.Errorf("step %d (%s): %w", i, step.Op, callErr)
		default:
			fmt.Fprintf(w, "block=%d op=%s events=%d\n", step.Block, step.Op, emitted)
		}
	}
	checked, err := checkExpectations(engine, sc.Expect)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "ok: %d steps, %d expectations\n", len(sc.Steps), checked)
	return nil
}

func applyStep(e *relp.Engine, step scenarioStep, w io.Writer) error {
	amount := func() (*uint256.Int, error) {
		if strings.TrimSpace(step.Amount) == "" {
			return nil, fmt.Errorf("amount required")
		}
		return parseDecimal(step.Amount)
	}
	accounts := func(labels ...string) ([]crypto.Address, error) {
		out := make([]crypto.Address, len(labels))
		for i, label := range labels {
			addr, err := resolveAccount(label)
			if err != nil {
				return nil, err
			}
			out[i] = addr
		}
		return out, nil
	}

	switch step.Op {
	case "mint", "burn", "transfer", "transferFrom", "approve", "lock", "announce", "dailyAward":
	case "touch":
		addrs, err := accounts(step.Account)
		if err != nil {
			return err
		}
		return e.Touch(addrs[0])
	case "blockAwards":
		released, err := e.UpdateBlockAwards()
		if err == nil {
			fmt.Fprintf(w, "block=%d released=%s\n", step.Block, released.Dec())
		}
		return err
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	value, err := amount()
	if err != nil {
		return err
	}
	switch step.Op {
	case "mint":
		addrs, err := accounts(step.To)
		if err != nil {
			return err
		}
		return e.Mint(addrs[0], value)
	case "burn":
		addrs, err := accounts(step.From)
		if err != nil {
			return err
		}
		return e.Burn(addrs[0], value)
	case "transfer":
		addrs, err := accounts(step.From, step.To)
		if err != nil {
			return err
		}
		return e.Transfer(addrs[0], addrs[1], value)
	case "transferFrom":
		addrs, err := accounts(step.Spender, step.From, step.To)
		if err != nil {
			return err
		}
		return e.TransferFrom(addrs[0], addrs[1], addrs[2], value)
	case "approve":
		addrs, err := accounts(step.Owner, step.Spender)
		if err != nil {
			return err
		}
		return e.Approve(addrs[0], addrs[1], value)
	case "lock":
		addrs, err := accounts(step.Account)
		if err != nil {
			return err
		}
		return e.SetLock(addrs[0], value, step.UntilBlock)
	case "announce":
		pool, err := relp.ParsePoolID(step.Pool)
		if err != nil {
			return err
		}
		index, err := e.AnnounceLumpSumAward(pool, value)
		if err == nil {
			fmt.Fprintf(w, "block=%d pool=%s award=%d\n", step.Block, pool, index)
		}
		return err
	default:
		return e.SetDailyAward(value)
	}
}

func checkExpectations(e *relp.Engine, exp scenarioExpect) (int, error) {
	checked := 0
	compare := func(what string, want string, got *uint256.Int, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		expected, perr := parseDecimal(want)
		if perr != nil {
			return fmt.Errorf("%s: expected value: %w", what, perr)
		}
		checked++
		if !expected.Eq(got) {
			return fmt.Errorf("%w: %s = %s, want %s", errExpectation, what, got.Dec(), expected.Dec())
		}
		return nil
	}

	if exp.TotalSupply != "" {
		got, err := e.TotalSupply()
		if err := compare("totalSupply", exp.TotalSupply, got, err); err != nil {
			return checked, err
		}
	}
	if exp.TotalReward != "" {
		got, err := e.TotalReward()
		if err := compare("totalReward", exp.TotalReward, got, err); err != nil {
			return checked, err
		}
	}
	for _, label := range sortedKeys(exp.Balances) {
		addr, err := resolveAccount(label)
		if err != nil {
			return checked, err
		}
		got, err := e.BalanceOf(addr)
		if err := compare("balance["+label+"]", exp.Balances[label], got, err); err != nil {
			return checked, err
		}
	}
	for _, label := range sortedKeys(exp.Rewards) {
		addr, err := resolveAccount(label)
		if err != nil {
			return checked, err
		}
		got, err := e.PendingReward(addr)
		if err := compare("reward["+label+"]", exp.Rewards[label], got, err); err != nil {
			return checked, err
		}
	}
	pools := make([]string, 0, len(exp.PoolRewards))
	for name := range exp.PoolRewards {
		pools = append(pools, name)
	}
	sort.Strings(pools)
	for _, name := range pools {
		pool, err := relp.ParsePoolID(name)
		if err != nil {
			return checked, err
		}
		for _, label := range sortedKeys(exp.PoolRewards[name]) {
			addr, err := resolveAccount(label)
			if err != nil {
				return checked, err
			}
			got, err := e.PendingPoolReward(pool, addr)
			what := fmt.Sprintf("poolReward[%s][%s]", name, label)
			if err := compare(what, exp.PoolRewards[name][label], got, err); err != nil {
				return checked, err
			}
		}
	}
	return checked, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
