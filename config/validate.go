package config

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"relpchain/native/relp"
)

// Validate rejects settings the node cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("ListenAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must be set")
	}
	if _, err := c.Engine.Params(); err != nil {
		return err
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.HMACSecret) == "" {
		return fmt.Errorf("auth: HMACSecret required when auth is enabled")
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("ratelimit: values must not be negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio %v outside [0, 1]", c.Telemetry.SampleRatio)
	}
	return nil
}

// Params converts the engine section into validated engine parameters.
func (e Engine) Params() (relp.Params, error) {
	params := relp.Params{
		BlockTimeMs:        e.BlockTimeMs,
		AwardScale:         e.AwardScale,
		DailyDecayBps:      e.DailyDecayBps,
		BlockAwardDecayBps: e.BlockAwardDecayBps,
		GenesisBlock:       e.GenesisBlock,
	}
	if err := parseAmount(&params.DailyAward, e.DailyAward); err != nil {
		return params, fmt.Errorf("engine: invalid DailyAward: %w", err)
	}
	if err := parseAmount(&params.BlockAwardDaily, e.BlockAwardDaily); err != nil {
		return params, fmt.Errorf("engine: invalid BlockAwardDaily: %w", err)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("engine: %w", err)
	}
	return params, nil
}

func parseAmount(dst *uint256.Int, raw string) error {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if trimmed == "" {
		dst.Clear()
		return nil
	}
	parsed, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return err
	}
	dst.Set(parsed)
	return nil
}
