package source

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"proxyvet/internal/shared/logger"
	"proxyvet/internal/shared/types"
)

// FreeProxyListSource scrapes free-proxy-list.net with a colly collector.
type FreeProxyListSource struct {
	collector *colly.Collector
	url       string
}

func NewFreeProxyListSource() *FreeProxyListSource {
	c := colly.NewCollector(
		colly.UserAgent(scraperUserAgent),
	)
	c.SetRequestTimeout(20 * time.Second)

	return &FreeProxyListSource{
		collector: c,
		url:       "https://free-proxy-list.net/",
	}
}

func (s *FreeProxyListSource) Name() string {
	return "free-proxy-list.net"
}

func (s *FreeProxyListSource) Fetch() ([]types.Candidate, error) {
	l := logger.WithComponent("Source/Scraper")
	l.Info().Str("source", s.Name()).Msg("Starting scrape...")

	var cands []types.Candidate
	var mu sync.Mutex

	s.collector.OnHTML("table tbody tr", func(e *colly.HTMLElement) {
		ip := strings.TrimSpace(e.ChildText("td:nth-child(1)"))
		portStr := strings.TrimSpace(e.ChildText("td:nth-child(2)"))
		if ip == "" || portStr == "" {
			return
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			l.Warn().Str("ip", ip).Str("port", portStr).Str("source", s.Name()).Msg("Failed to parse port, skipping row.")
			return
		}

		mu.Lock()
		cands = append(cands, types.Candidate{Host: ip, Port: port, Kind: types.KindHTTP})
		mu.Unlock()
	})

	if err := s.collector.Visit(s.url); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", s.Name(), err)
	}
	s.collector.Wait()

	l.Info().Int("count", len(cands)).Str("source", s.Name()).Msg("Scrape finished.")
	return cands, nil
}
