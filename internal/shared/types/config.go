package types

// CheckerConf holds the probing behaviour configuration.
type CheckerConf struct {
	TargetURL      string  `ini:"target_url"`
	ProxyKinds     string  `ini:"proxy_kinds"` // comma list: http, socks4, socks5
	Concurrency    int     `ini:"concurrency"`
	TimeoutSeconds float64 `ini:"timeout_seconds"`
	TextPresent    string  `ini:"text_present"`
	TextAbsent     string  `ini:"text_absent"`
	EmitAll        bool    `ini:"emit_all"`
}

// ScrapeConf enables pulling additional candidates from remote list sources.
type ScrapeConf struct {
	Enabled bool   `ini:"enabled"`
	Sources string `ini:"sources"` // comma list of source names
}

// LogConf contains logging specific configuration.
type LogConf struct {
	Level string `ini:"level"`
}

// Config is the unified behaviour configuration for a run.
type Config struct {
	CheckerConf `ini:"checker"`
	ScrapeConf  `ini:"scrape"`
	LogConf     `ini:"log"`
}

// DefaultConfig returns the built-in defaults, matching the classic CLI:
// check an IP echo page through 10 workers with a 5 second timeout.
func DefaultConfig() *Config {
	return &Config{
		CheckerConf: CheckerConf{
			TargetURL:      "http://checkip.dyndns.com/",
			ProxyKinds:     string(KindHTTP),
			Concurrency:    10,
			TimeoutSeconds: 5,
		},
		LogConf: LogConf{Level: "warn"},
	}
}
