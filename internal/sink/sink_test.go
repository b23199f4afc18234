package sink

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"proxyvet/internal/shared/types"
)

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector()

	const goroutines = 20
	const perGoroutine = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				c.Record(types.Outcome{
					Candidate: types.Candidate{
						Host: fmt.Sprintf("10.%d.0.%d", g, i%250),
						Port: 1000 + i,
						Kind: types.KindSOCKS5,
					},
					Status: types.StatusSuccess,
				})
			}
		}(g)
	}
	wg.Wait()

	require.Equal(t, goroutines*perGoroutine, c.Len())
	require.Equal(t, goroutines*perGoroutine, c.Counts()[types.StatusSuccess])
}

func TestCollectorSnapshotIsCopy(t *testing.T) {
	c := NewCollector()
	c.Record(types.Outcome{Status: types.StatusSuccess})

	snap := c.Outcomes()
	snap[0].Status = types.StatusTimeout

	require.Equal(t, types.StatusSuccess, c.Outcomes()[0].Status)
}

func TestFormatLine(t *testing.T) {
	o := types.Outcome{
		Candidate: types.Candidate{Host: "1.2.3.4", Port: 8080, Kind: types.KindHTTP},
		Status:    types.StatusSuccess,
		Latency:   1530 * time.Millisecond,
	}
	require.Equal(t, "http,1.53,1.2.3.4:8080", FormatLine(o, false))
	require.Equal(t, "http,1.53,1.2.3.4:8080,success", FormatLine(o, true))
}

func TestWriterDefaultPolicyOmitsFailures(t *testing.T) {
	outcomes := []types.Outcome{
		{Candidate: types.Candidate{Host: "1.1.1.1", Port: 80, Kind: types.KindHTTP}, Status: types.StatusSuccess, Latency: 500 * time.Millisecond},
		{Candidate: types.Candidate{Host: "2.2.2.2", Port: 80, Kind: types.KindHTTP}, Status: types.StatusTimeout, Latency: 5 * time.Second},
		{Candidate: types.Candidate{Host: "3.3.3.3", Port: 80, Kind: types.KindHTTP}, Status: types.StatusExcluded},
	}

	var buf bytes.Buffer
	written, err := NewWriter(&buf, false).WriteAll(outcomes)
	require.NoError(t, err)
	require.Equal(t, 1, written)
	require.Equal(t, "http,0.50,1.1.1.1:80\n", buf.String())
}

func TestWriterEmitAllIncludesStatusColumn(t *testing.T) {
	outcomes := []types.Outcome{
		{Candidate: types.Candidate{Host: "1.1.1.1", Port: 80, Kind: types.KindSOCKS4}, Status: types.StatusSuccess, Latency: 500 * time.Millisecond},
		{Candidate: types.Candidate{Host: "2.2.2.2", Port: 80, Kind: types.KindHTTP}, Status: types.StatusConnectFailed, Latency: 120 * time.Millisecond},
	}

	var buf bytes.Buffer
	written, err := NewWriter(&buf, true).WriteAll(outcomes)
	require.NoError(t, err)
	require.Equal(t, 2, written)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "socks4,0.50,1.1.1.1:80,success", lines[0])
	require.Equal(t, "http,0.12,2.2.2.2:80,connect_failed", lines[1])
}
