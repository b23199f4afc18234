// Package probe performs a single proxy check: fetch the target URL through
// the candidate, under one end-to-end timeout, and classify what happened.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"h12.io/socks"

	"proxyvet/internal/shared/logger"
	"proxyvet/internal/shared/types"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultMaxBodyBytes = 1 << 20
	maxBodySampleBytes  = 256
)

// Prober runs one check against one candidate. Implementations must contain
// every failure inside the returned outcome: no error ever crosses this
// boundary, so a bad proxy can never abort a sibling worker.
type Prober interface {
	Probe(ctx context.Context, c types.Candidate) types.Outcome
}

// Options configures an Executor. The zero value of Timeout and MaxBodyBytes
// fall back to defaults.
type Options struct {
	TargetURL string
	Timeout   time.Duration
	// TextPresent, when non-empty, must appear in the response body.
	TextPresent string
	// TextAbsent, when non-empty, must not appear in the response body.
	TextAbsent string
	// MaxBodyBytes caps how much of the body is read for the text checks.
	MaxBodyBytes int64
}

// Executor is the concrete Prober. Built once per run; safe for concurrent
// use because each probe constructs its own transport and client.
type Executor struct {
	opts Options
}

func NewExecutor(opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Executor{opts: opts}
}

// Probe fetches the target URL through the candidate proxy.
func (e *Executor) Probe(ctx context.Context, c types.Candidate) types.Outcome {
	l := logger.WithComponent("Probe")
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	transport, err := e.transportFor(c)
	if err != nil {
		l.Debug().Err(err).Str("proxy", c.Addr()).Msg("Failed to build proxy transport.")
		return types.Outcome{Candidate: c, Status: types.StatusConnectFailed, Latency: time.Since(start)}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   e.opts.Timeout,
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.opts.TargetURL, nil)
	if err != nil {
		// A target URL that cannot form a request fails every candidate the
		// same way; still reported as data, not as an error.
		l.Warn().Err(err).Str("target", e.opts.TargetURL).Msg("Invalid target URL.")
		return types.Outcome{Candidate: c, Status: types.StatusConnectFailed, Latency: time.Since(start)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return e.classifyDialError(c, start, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.opts.MaxBodyBytes))
	if err != nil {
		return e.classifyDialError(c, start, err)
	}
	latency := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		l.Debug().Int("status_code", resp.StatusCode).Str("proxy", c.Addr()).Msg("Proxy returned non-successful status.")
		return types.Outcome{Candidate: c, Status: types.StatusConnectFailed, Latency: latency}
	}

	// The proxy did function at this point, so a text mismatch still carries
	// the measured latency and the observed body sample.
	text := string(body)
	sample := text
	if len(sample) > maxBodySampleBytes {
		sample = sample[:maxBodySampleBytes]
	}
	if e.opts.TextPresent != "" && !strings.Contains(text, e.opts.TextPresent) {
		l.Debug().Str("proxy", c.Addr()).Msg("Expected text missing from response.")
		return types.Outcome{Candidate: c, Status: types.StatusTextMismatch, Latency: latency, BodySample: sample}
	}
	if e.opts.TextAbsent != "" && strings.Contains(text, e.opts.TextAbsent) {
		l.Debug().Str("proxy", c.Addr()).Msg("Forbidden text present in response.")
		return types.Outcome{Candidate: c, Status: types.StatusTextMismatch, Latency: latency, BodySample: sample}
	}

	return types.Outcome{Candidate: c, Status: types.StatusSuccess, Latency: latency, BodySample: sample}
}

// classifyDialError separates timeouts from every other transport failure.
func (e *Executor) classifyDialError(c types.Candidate, start time.Time, err error) types.Outcome {
	elapsed := time.Since(start)

	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())

	status := types.StatusConnectFailed
	if timedOut {
		status = types.StatusTimeout
	}
	l := logger.WithComponent("Probe")
	l.Debug().
		Err(err).
		Str("proxy", c.Addr()).
		Str("status", string(status)).
		Msg("Probe failed.")
	return types.Outcome{Candidate: c, Status: status, Latency: elapsed}
}

// transportFor builds the per-kind transport for one probe.
func (e *Executor) transportFor(c types.Candidate) (*http.Transport, error) {
	tlsConf := &tls.Config{InsecureSkipVerify: true}
	dialer := &net.Dialer{
		Timeout:   e.opts.Timeout,
		KeepAlive: 30 * time.Second,
	}

	switch c.Kind {
	case types.KindHTTP:
		proxyURL, err := url.Parse("http://" + c.Addr())
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP proxy address: %w", err)
		}
		return &http.Transport{
			Proxy:               http.ProxyURL(proxyURL),
			DialContext:         dialer.DialContext,
			TLSClientConfig:     tlsConf,
			TLSHandshakeTimeout: e.opts.Timeout,
		}, nil

	case types.KindSOCKS5:
		d, err := proxy.SOCKS5("tcp", c.Addr(), nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		return &http.Transport{
			DialContext:         d.(proxy.ContextDialer).DialContext,
			TLSClientConfig:     tlsConf,
			TLSHandshakeTimeout: e.opts.Timeout,
		}, nil

	case types.KindSOCKS4:
		uri := fmt.Sprintf("socks4://%s?timeout=%s", c.Addr(), e.opts.Timeout)
		return &http.Transport{
			Dial:                socks.Dial(uri),
			TLSClientConfig:     tlsConf,
			TLSHandshakeTimeout: e.opts.Timeout,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported proxy kind %q", c.Kind)
	}
}
