package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"proxyvet/internal/app"
	"proxyvet/internal/shared/config"
	"proxyvet/internal/shared/logger"
	"proxyvet/internal/shared/types"
)

func main() {
	cfg := types.DefaultConfig()

	configPath := flag.String("config", "", "Optional path to an ini behaviour config")
	input := flag.String("input", "", "List of ip:port separated by newlines; '-' or empty reads stdin")
	output := flag.String("output", "", "Output file for results; '-' or empty writes stdout")
	exclusions := flag.String("exclusion-list", "", "File of IP ranges (CIDR or dash form) to never check")
	target := flag.String("target-address", cfg.TargetURL, "Website to test against")
	kinds := flag.String("proxy-type", cfg.ProxyKinds, "Comma list of proxy kinds to check: http, socks4, socks5")
	timeout := flag.Float64("timeout", cfg.TimeoutSeconds, "Seconds to give up on a proxy")
	workers := flag.Int("num-workers", cfg.Concurrency, "Number of worker goroutines")
	textPresent := flag.String("text-present", "", "Text that should be present on the target page")
	textAbsent := flag.String("text-absent", "", "Text that should be absent from the target page")
	emitAll := flag.Bool("all", cfg.EmitAll, "Write every outcome with a status column instead of successes only")
	logLevel := flag.String("log-level", cfg.LogConf.Level, "Logging verbosity level")
	flag.Parse()

	if *configPath != "" {
		if err := config.LoadIni(cfg, *configPath); err != nil {
			// Use standard fmt before logger is initialized.
			fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", *configPath, err)
			os.Exit(1)
		}
	}

	// Flags given on the command line win over the ini file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "target-address":
			cfg.TargetURL = *target
		case "proxy-type":
			cfg.ProxyKinds = *kinds
		case "timeout":
			cfg.TimeoutSeconds = *timeout
		case "num-workers":
			cfg.Concurrency = *workers
		case "text-present":
			cfg.TextPresent = *textPresent
		case "text-absent":
			cfg.TextAbsent = *textAbsent
		case "all":
			cfg.EmitAll = *emitAll
		case "log-level":
			cfg.LogConf.Level = *logLevel
		}
	})

	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, *input, *output, *exclusions).Run(ctx); err != nil {
		stop()
		logger.Fatal().Err(err).Msg("Run aborted.")
	}
}
