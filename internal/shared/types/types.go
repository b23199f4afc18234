package types

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ProxyKind is the closed set of proxy protocols a candidate can be probed as.
type ProxyKind string

const (
	KindHTTP   ProxyKind = "http"
	KindSOCKS4 ProxyKind = "socks4"
	KindSOCKS5 ProxyKind = "socks5"
)

// ParseProxyKind maps a configuration string onto a ProxyKind.
// Unknown values are a configuration error, not a per-candidate one.
func ParseProxyKind(s string) (ProxyKind, error) {
	switch ProxyKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindHTTP:
		return KindHTTP, nil
	case KindSOCKS4:
		return KindSOCKS4, nil
	case KindSOCKS5:
		return KindSOCKS5, nil
	default:
		return "", fmt.Errorf("unknown proxy kind %q (want http, socks4 or socks5)", s)
	}
}

// ParseProxyKinds parses a comma separated list of kinds, e.g. "http,socks5".
func ParseProxyKinds(s string) ([]ProxyKind, error) {
	parts := strings.Split(s, ",")
	kinds := make([]ProxyKind, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		k, err := ParseProxyKind(p)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no proxy kinds configured")
	}
	return kinds, nil
}

// Candidate is one proxy endpoint to be checked. Immutable once read.
type Candidate struct {
	Host string
	Port int
	Kind ProxyKind
}

// Addr returns the candidate in host:port form.
func (c Candidate) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Status classifies the result of a single check attempt.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusTimeout       Status = "timeout"
	StatusConnectFailed Status = "connect_failed"
	StatusTextMismatch  Status = "text_mismatch"
	StatusExcluded      Status = "excluded"
)

// Outcome is the terminal record for one candidate. It is created exactly once
// by whichever worker handled the candidate and never mutated afterwards.
type Outcome struct {
	Candidate Candidate
	Status    Status
	// Latency is the wall clock time from probe start to full body receipt.
	// For timeouts it is the elapsed time up to cancellation; for excluded
	// candidates it is zero (no network call was made).
	Latency time.Duration
	// BodySample holds the leading bytes of the response body on probes that
	// received one (success or text mismatch). Empty for candidates that never
	// produced a body: excluded, timed out or failed to connect.
	BodySample string
}
