package mirror

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// latencies builds a MockProber that answers with fixed latencies keyed
// by candidate name. Names absent from the map are unreachable.
func latencies(byName map[string]time.Duration) *MockProber {
	return &MockProber{
		ProbeFunc: func(_ context.Context, c Candidate) ProbeResult {
			d, ok := byName[c.Name]
			return ProbeResult{Name: c.Name, URL: c.URL, Latency: d, Unreachable: !ok}
		},
	}
}

func TestSelector_PicksFastestReachable(t *testing.T) {
	prober := latencies(map[string]time.Duration{
		"PyPI Official":       300 * time.Millisecond,
		"Tsinghua University": 40 * time.Millisecond,
		"USTC":                90 * time.Millisecond,
	})
	sel := NewSelector(prober)

	chosen := sel.Select(context.Background(), nil, nil)

	assert.Equal(t, "Tsinghua University", chosen.Name)
	assert.Len(t, prober.Calls, len(Candidates()), "every candidate must be probed")
}

func TestSelector_AllUnreachableFallsBack(t *testing.T) {
	sel := NewSelector(latencies(nil))

	chosen := sel.Select(context.Background(), nil, nil)

	assert.Equal(t, Fallback, chosen)
}

func TestSelector_CachesFirstDecision(t *testing.T) {
	fast := "Aliyun"
	prober := &MockProber{
		ProbeFunc: func(_ context.Context, c Candidate) ProbeResult {
			return ProbeResult{Name: c.Name, URL: c.URL, Latency: 10 * time.Millisecond, Unreachable: c.Name != fast}
		},
	}
	sel := NewSelector(prober)

	first := sel.Select(context.Background(), nil, nil)
	require.Equal(t, "Aliyun", first.Name)

	// Conditions change underneath: Aliyun goes dark. The cached
	// decision must survive untouched and no new probes may run.
	probedBefore := len(prober.Calls)
	fast = "USTC"
	second := sel.Select(context.Background(), nil, nil)

	assert.Equal(t, first, second)
	assert.Equal(t, probedBefore, len(prober.Calls))
}

func TestSelector_ForceSelectReprobes(t *testing.T) {
	fast := "Aliyun"
	prober := &MockProber{
		ProbeFunc: func(_ context.Context, c Candidate) ProbeResult {
			return ProbeResult{Name: c.Name, URL: c.URL, Latency: 5 * time.Millisecond, Unreachable: c.Name != fast}
		},
	}
	sel := NewSelector(prober)

	first := sel.Select(context.Background(), nil, nil)
	require.Equal(t, "Aliyun", first.Name)

	fast = "USTC"
	forced := sel.ForceSelect(context.Background(), nil, nil)
	assert.Equal(t, "USTC", forced.Name)

	// The forced result replaces the cache.
	cached, ok := sel.Selected()
	require.True(t, ok)
	assert.Equal(t, "USTC", cached.Name)
}

func TestSelector_ProgressSeesEveryProbe(t *testing.T) {
	sel := NewSelector(latencies(map[string]time.Duration{"USTC": time.Millisecond}))

	seen := map[string]bool{}
	var summarized []ProbeResult
	sel.Select(context.Background(),
		func(r ProbeResult) { seen[r.Name] = true },
		func(ranked []ProbeResult) { summarized = ranked },
	)

	// Completion order is nondeterministic; assert set membership only.
	assert.Len(t, seen, len(Candidates()))
	require.Len(t, summarized, len(Candidates()))
	assert.Equal(t, "USTC", summarized[0].Name)
}

func TestRank_UnreachableSortsLast_TiesKeepOrder(t *testing.T) {
	results := []ProbeResult{
		{Name: "a", Unreachable: true},
		{Name: "b", Latency: 20 * time.Millisecond},
		{Name: "c", Latency: 20 * time.Millisecond},
		{Name: "d", Latency: 5 * time.Millisecond},
		{Name: "e", Unreachable: true},
	}

	ranked := Rank(results)

	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"d", "b", "c", "a", "e"}, names)
}

// mockDoer implements HTTPDoer with a function field.
type mockDoer struct {
	DoFunc func(*http.Request) (*http.Response, error)
	calls  int32
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.DoFunc(req)
}

func TestDefaultProber_SuccessMeasuresLatency(t *testing.T) {
	doer := &mockDoer{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodHead, req.Method)
			assert.Equal(t, probeUserAgent, req.Header.Get("User-Agent"))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		},
	}
	prober := NewDefaultProberWithClient(doer)

	r := prober.Probe(context.Background(), Candidate{Name: "x", URL: "https://example.org/simple"})

	assert.False(t, r.Unreachable)
	assert.NotEmpty(t, r.ID)
}

func TestDefaultProber_ErrorAndBadStatusAreUnreachable(t *testing.T) {
	cases := []struct {
		name string
		do   func(*http.Request) (*http.Response, error)
	}{
		{"transport error", func(*http.Request) (*http.Response, error) {
			return nil, context.DeadlineExceeded
		}},
		{"server error", func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusServiceUnavailable, Body: io.NopCloser(strings.NewReader(""))}, nil
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prober := NewDefaultProberWithClient(&mockDoer{DoFunc: tc.do})
			r := prober.Probe(context.Background(), Candidate{Name: "x", URL: "https://example.org/simple"})
			assert.True(t, r.Unreachable)
		})
	}
}

func TestTrustedHost(t *testing.T) {
	assert.Equal(t, "pypi.tuna.tsinghua.edu.cn", TrustedHost("https://pypi.tuna.tsinghua.edu.cn/simple"))
	assert.Equal(t, "mirrors.pku.edu.cn", TrustedHost("https://mirrors.pku.edu.cn/pypi/web/simple"))
}
