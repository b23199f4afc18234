package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProxyKind(t *testing.T) {
	for in, want := range map[string]ProxyKind{
		"http":    KindHTTP,
		" SOCKS4": KindSOCKS4,
		"Socks5 ": KindSOCKS5,
	} {
		got, err := ParseProxyKind(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseProxyKind("https")
	require.Error(t, err)
}

func TestParseProxyKinds(t *testing.T) {
	kinds, err := ParseProxyKinds("http, socks5")
	require.NoError(t, err)
	require.Equal(t, []ProxyKind{KindHTTP, KindSOCKS5}, kinds)

	_, err = ParseProxyKinds("")
	require.Error(t, err)

	_, err = ParseProxyKinds("http,ftp")
	require.Error(t, err)
}

func TestCandidateAddr(t *testing.T) {
	c := Candidate{Host: "10.0.0.5", Port: 1080, Kind: KindSOCKS5}
	require.Equal(t, "10.0.0.5:1080", c.Addr())
}
