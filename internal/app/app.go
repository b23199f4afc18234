// Package app wires the run together: load inputs, build the range set,
// drive the worker pool and flush the result stream.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"proxyvet/internal/dispatcher"
	"proxyvet/internal/probe"
	"proxyvet/internal/ranges"
	"proxyvet/internal/shared/logger"
	"proxyvet/internal/shared/types"
	"proxyvet/internal/sink"
	"proxyvet/internal/source"
)

const progressInterval = 10 * time.Second

// App runs one complete check cycle over a candidate list.
type App struct {
	cfg   *types.Config
	runID string

	inputPath      string
	outputPath     string
	exclusionsPath string
}

func New(cfg *types.Config, inputPath, outputPath, exclusionsPath string) *App {
	return &App{
		cfg:            cfg,
		runID:          uuid.NewString(),
		inputPath:      inputPath,
		outputPath:     outputPath,
		exclusionsPath: exclusionsPath,
	}
}

// Run executes the pipeline. Only setup failures return an error; individual
// proxy failures are data in the output stream, never errors.
func (a *App) Run(ctx context.Context) error {
	l := logger.WithComponent("App")
	start := time.Now()

	kinds, err := types.ParseProxyKinds(a.cfg.ProxyKinds)
	if err != nil {
		return err
	}
	timeout := time.Duration(a.cfg.TimeoutSeconds * float64(time.Second))
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %gs", a.cfg.TimeoutSeconds)
	}

	l.Info().
		Str("run_id", a.runID).
		Str("target", a.cfg.TargetURL).
		Str("kinds", a.cfg.ProxyKinds).
		Int("workers", a.cfg.Concurrency).
		Msg("Starting run.")

	set, err := a.buildRangeSet()
	if err != nil {
		return err
	}

	candidates, err := a.gatherCandidates(kinds)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		l.Warn().Msg("No candidates to check.")
	}

	executor := probe.NewExecutor(probe.Options{
		TargetURL:   a.cfg.TargetURL,
		Timeout:     timeout,
		TextPresent: a.cfg.TextPresent,
		TextAbsent:  a.cfg.TextAbsent,
	})
	pool, err := dispatcher.New(executor, set, a.cfg.Concurrency)
	if err != nil {
		return err
	}
	collector := sink.NewCollector()

	progressDone := make(chan struct{})
	go a.reportProgress(pool, progressDone)

	pool.Run(ctx, candidates, collector.Record)
	close(progressDone)

	written, err := a.flush(collector)
	if err != nil {
		return err
	}

	counts := collector.Counts()
	l.Info().
		Str("run_id", a.runID).
		Int("candidates", len(candidates)).
		Int("success", counts[types.StatusSuccess]).
		Int("timeout", counts[types.StatusTimeout]).
		Int("connect_failed", counts[types.StatusConnectFailed]).
		Int("text_mismatch", counts[types.StatusTextMismatch]).
		Int("excluded", counts[types.StatusExcluded]).
		Int("written", written).
		Str("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Msg("Run finished.")
	return nil
}

func (a *App) buildRangeSet() (*ranges.RangeSet, error) {
	l := logger.WithComponent("App")

	lines, err := source.LoadExclusionLines(a.exclusionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read exclusion list: %w", err)
	}
	set, parseErrs := ranges.Build(lines)
	for _, pe := range parseErrs {
		l.Warn().Int("line", pe.Line).Str("text", pe.Text).Str("reason", pe.Reason).Msg("Skipping malformed exclusion range.")
	}
	if set.Len() > 0 {
		l.Info().Int("ranges", set.Len()).Msg("Exclusion list loaded.")
	}
	return set, nil
}

func (a *App) gatherCandidates(kinds []types.ProxyKind) ([]types.Candidate, error) {
	l := logger.WithComponent("App")

	candidates, err := source.NewFileSource(a.inputPath, kinds).Fetch()
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate list: %w", err)
	}

	if a.cfg.ScrapeConf.Enabled {
		for _, s := range a.scrapeSources() {
			extra, err := s.Fetch()
			if err != nil {
				// A dead list site never aborts the run.
				l.Warn().Err(err).Str("source", s.Name()).Msg("Scraper failed.")
				continue
			}
			candidates = append(candidates, extra...)
		}
	}
	return candidates, nil
}

// scrapeSources resolves the configured source names. An empty list enables
// every known source.
func (a *App) scrapeSources() []source.Source {
	l := logger.WithComponent("App")

	known := map[string]func() source.Source{
		"proxy-list.download": func() source.Source { return source.NewProxyListSource() },
		"free-proxy-list.net": func() source.Source { return source.NewFreeProxyListSource() },
	}

	names := strings.Split(a.cfg.ScrapeConf.Sources, ",")
	var sources []source.Source
	configured := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		configured++
		build, ok := known[name]
		if !ok {
			l.Warn().Str("source", name).Msg("Unknown scrape source, skipping.")
			continue
		}
		sources = append(sources, build())
	}
	// Every known source by default, but a configured list that resolved to
	// nothing stays empty: a typo must not scrape the whole world.
	if configured == 0 {
		for _, build := range known {
			sources = append(sources, build())
		}
	}
	return sources
}

func (a *App) reportProgress(pool *dispatcher.Pool, done <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			processed, total := pool.Progress()
			l := logger.WithComponent("App")
			l.Info().
				Int64("processed", processed).
				Int64("total", total).
				Msg("Progress.")
		}
	}
}

func (a *App) flush(collector *sink.Collector) (int, error) {
	if a.outputPath == "" || a.outputPath == "-" {
		written, err := sink.NewWriter(os.Stdout, a.cfg.EmitAll).WriteAll(collector.Outcomes())
		if err != nil {
			return written, fmt.Errorf("failed to write outcomes: %w", err)
		}
		return written, nil
	}

	file, err := os.Create(a.outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open output file: %w", err)
	}
	written, err := sink.NewWriter(file, a.cfg.EmitAll).WriteAll(collector.Outcomes())
	if err != nil {
		file.Close()
		return written, fmt.Errorf("failed to write outcomes: %w", err)
	}
	// Close errors matter here: they can be the only report of lost writes.
	if err := file.Close(); err != nil {
		return written, fmt.Errorf("failed to close output file: %w", err)
	}
	return written, nil
}
