package ranges

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildOne(t *testing.T, spec string) *RangeSet {
	t.Helper()
	set, errs := Build([]string{spec})
	require.Empty(t, errs, "unexpected parse errors for %q", spec)
	return set
}

func TestBuildCIDRBounds(t *testing.T) {
	set := buildOne(t, "10.0.0.0/8")

	require.True(t, set.Contains(net.ParseIP("10.0.0.0")))
	require.True(t, set.Contains(net.ParseIP("10.128.77.3")))
	require.True(t, set.Contains(net.ParseIP("10.255.255.255")))
	require.False(t, set.Contains(net.ParseIP("9.255.255.255")))
	require.False(t, set.Contains(net.ParseIP("11.0.0.0")))
}

func TestBuildCIDRHostBitsMasked(t *testing.T) {
	// Host bits in the base address do not shift the block.
	set := buildOne(t, "192.168.1.77/24")

	require.True(t, set.Contains(net.ParseIP("192.168.1.0")))
	require.True(t, set.Contains(net.ParseIP("192.168.1.255")))
	require.False(t, set.Contains(net.ParseIP("192.168.0.255")))
	require.False(t, set.Contains(net.ParseIP("192.168.2.0")))
}

func TestBuildCIDRSlashZeroAndSlash32(t *testing.T) {
	all := buildOne(t, "0.0.0.0/0")
	require.True(t, all.Contains(net.ParseIP("0.0.0.0")))
	require.True(t, all.Contains(net.ParseIP("255.255.255.255")))
	require.True(t, all.Contains(net.ParseIP("8.8.8.8")))

	single := buildOne(t, "1.2.3.4/32")
	require.True(t, single.Contains(net.ParseIP("1.2.3.4")))
	require.False(t, single.Contains(net.ParseIP("1.2.3.3")))
	require.False(t, single.Contains(net.ParseIP("1.2.3.5")))
}

func TestBuildDashRange(t *testing.T) {
	set := buildOne(t, "10.0.0.5-10.0.0.9")

	require.True(t, set.Contains(net.ParseIP("10.0.0.5")))
	require.True(t, set.Contains(net.ParseIP("10.0.0.7")))
	require.True(t, set.Contains(net.ParseIP("10.0.0.9")))
	require.False(t, set.Contains(net.ParseIP("10.0.0.4")))
	require.False(t, set.Contains(net.ParseIP("10.0.0.10")))
}

func TestBuildDashRangeInverted(t *testing.T) {
	set, errs := Build([]string{"10.0.0.9-10.0.0.5"})
	require.Len(t, errs, 1)
	require.Equal(t, 0, set.Len())
	require.False(t, set.Contains(net.ParseIP("10.0.0.7")))
}

func TestBuildSkipsCommentsAndBlanks(t *testing.T) {
	set, errs := Build([]string{
		"",
		"   ",
		"# reserved blocks",
		"10.0.0.0/8 rfc1918",
		"172.16.0.0/12\tmore private space",
	})
	require.Empty(t, errs)
	require.Equal(t, 2, set.Len())
	require.True(t, set.Contains(net.ParseIP("172.20.0.1")))
}

func TestBuildCollectsMalformedLines(t *testing.T) {
	set, errs := Build([]string{
		"10.0.0.0/8",
		"not-an-address",
		"10.0.0.0/33",
		"300.1.2.3-300.1.2.4",
	})
	require.Len(t, errs, 3)
	require.Equal(t, 2, errs[0].Line)
	require.Equal(t, 1, set.Len())
}

func TestBuildBareAddress(t *testing.T) {
	set := buildOne(t, "203.0.113.9")
	require.True(t, set.Contains(net.ParseIP("203.0.113.9")))
	require.False(t, set.Contains(net.ParseIP("203.0.113.8")))
	require.False(t, set.Contains(net.ParseIP("203.0.113.10")))
}

func TestContainsWithOverlappingRanges(t *testing.T) {
	// A wide range followed by narrow ones starting later; correctness must
	// not depend on order or merging.
	set, errs := Build([]string{
		"10.0.0.0-10.0.255.255",
		"10.0.1.0/30",
		"10.0.0.128-10.0.0.129",
		"192.168.0.0/24",
	})
	require.Empty(t, errs)

	require.True(t, set.Contains(net.ParseIP("10.0.200.1"))) // only the wide range covers it
	require.True(t, set.Contains(net.ParseIP("10.0.1.2")))
	require.True(t, set.Contains(net.ParseIP("192.168.0.50")))
	require.False(t, set.Contains(net.ParseIP("10.1.0.0")))
	require.False(t, set.Contains(net.ParseIP("192.168.1.0")))
}

func TestContainsNonIPv4(t *testing.T) {
	set := buildOne(t, "0.0.0.0/0")
	require.False(t, set.Contains(net.ParseIP("2001:db8::1")))
	require.False(t, set.ContainsAddr("proxy.example.com"))
	require.True(t, set.ContainsAddr("10.1.2.3"))
}

func TestContainsEmptySet(t *testing.T) {
	set, errs := Build(nil)
	require.Empty(t, errs)
	require.False(t, set.Contains(net.ParseIP("1.2.3.4")))
}

func TestContainsConcurrentReads(t *testing.T) {
	set, errs := Build([]string{"10.0.0.0/8", "192.168.0.0/16"})
	require.Empty(t, errs)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if !set.ContainsAddr("10.9.9.9") || set.ContainsAddr("8.8.8.8") {
					t.Error("wrong membership answer under concurrent reads")
					return
				}
			}
		}()
	}
	wg.Wait()
}
