package source

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"proxyvet/internal/shared/logger"
	"proxyvet/internal/shared/types"
)

const scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// ProxyListSource scrapes the proxy-list.download HTTP table.
type ProxyListSource struct {
	client *http.Client
	url    string
}

func NewProxyListSource() *ProxyListSource {
	return &ProxyListSource{
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		url: "https://www.proxy-list.download/HTTP",
	}
}

func (s *ProxyListSource) Name() string {
	return "proxy-list.download"
}

func (s *ProxyListSource) Fetch() ([]types.Candidate, error) {
	l := logger.WithComponent("Source/Scraper")
	l.Info().Str("source", s.Name()).Msg("Starting scrape...")

	req, err := http.NewRequest("GET", s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", s.Name(), err)
	}
	req.Header.Set("User-Agent", scraperUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page for %s: %w", s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%s returned status %d", s.Name(), resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML for %s: %w", s.Name(), err)
	}

	var cands []types.Candidate
	doc.Find("tbody tr").Each(func(i int, sel *goquery.Selection) {
		ip := strings.TrimSpace(sel.Find("td").Eq(0).Text())
		portStr := strings.TrimSpace(sel.Find("td").Eq(1).Text())
		if ip == "" || portStr == "" {
			return
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			l.Warn().Str("ip", ip).Str("port", portStr).Str("source", s.Name()).Msg("Failed to parse port, skipping row.")
			return
		}
		cands = append(cands, types.Candidate{Host: ip, Port: port, Kind: types.KindHTTP})
	})

	l.Info().Int("count", len(cands)).Str("source", s.Name()).Msg("Scrape finished.")
	return cands, nil
}
