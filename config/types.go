package config

import "relpchain/native/relp"

// Engine mirrors relp.Params. Amounts are decimal strings so values above
// 64 bits survive TOML.
type Engine struct {
	BlockTimeMs        uint64 `toml:"BlockTimeMs"`
	AwardScale         uint64 `toml:"AwardScale"`
	DailyAward         string `toml:"DailyAward"`
	DailyDecayBps      uint64 `toml:"DailyDecayBps"`
	BlockAwardDaily    string `toml:"BlockAwardDaily"`
	BlockAwardDecayBps uint64 `toml:"BlockAwardDecayBps"`
	GenesisBlock       uint64 `toml:"GenesisBlock"`
}

func defaultEngine() Engine {
	params := relp.DefaultParams()
	return Engine{
		BlockTimeMs:        params.BlockTimeMs,
		AwardScale:         params.AwardScale,
		DailyAward:         params.DailyAward.Dec(),
		DailyDecayBps:      params.DailyDecayBps,
		BlockAwardDaily:    params.BlockAwardDaily.Dec(),
		BlockAwardDecayBps: params.BlockAwardDecayBps,
		GenesisBlock:       params.GenesisBlock,
	}
}

// Auth configures bearer-token checks on mutating routes.
type Auth struct {
	Enabled    bool   `toml:"Enabled"`
	HMACSecret string `toml:"HMACSecret"`
	Issuer     string `toml:"Issuer"`
	Audience   string `toml:"Audience"`
}

// RateLimit bounds requests per client address.
type RateLimit struct {
	RequestsPerMinute int `toml:"RequestsPerMinute"`
	Burst             int `toml:"Burst"`
}

// Telemetry configures the OTLP exporters. SampleRatio is the share of
// ledger calls traced; 0 traces all of them.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
}
