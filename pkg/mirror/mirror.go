// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package mirror discovers the fastest pip package mirror.
//
// A fixed set of well-known simple-index mirrors is probed concurrently
// with a bounded timeout, ranked by latency, and the winner is cached
// for the lifetime of the process. Content correctness of the mirrors
// is out of scope; only reachability and latency matter here.
package mirror

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CANDIDATES
// =============================================================================

// Candidate is one known mirror endpoint. The set is fixed and never
// mutated at runtime.
type Candidate struct {
	Name string
	URL  string
}

// candidates is the declaration-ordered probe set. Ties in latency are
// broken by this order.
var candidates = []Candidate{
	{Name: "PyPI Official", URL: "https://pypi.org/simple"},
	{Name: "Tsinghua University", URL: "https://pypi.tuna.tsinghua.edu.cn/simple"},
	{Name: "Aliyun", URL: "https://mirrors.aliyun.com/pypi/simple"},
	{Name: "Tencent Cloud", URL: "https://mirrors.cloud.tencent.com/pypi/simple"},
	{Name: "Peking University", URL: "https://mirrors.pku.edu.cn/pypi/web/simple"},
	{Name: "USTC", URL: "https://pypi.mirrors.ustc.edu.cn/simple"},
}

// Fallback is the mirror used when every candidate is unreachable.
var Fallback = Candidate{Name: "Tsinghua University", URL: "https://pypi.tuna.tsinghua.edu.cn/simple"}

// Candidates returns a copy of the fixed probe set.
func Candidates() []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	return out
}

// TrustedHost extracts the host portion of a mirror URL for use with
// pip's --trusted-host flag. Returns the input unchanged if it does not
// parse as a URL.
func TrustedHost(mirrorURL string) string {
	u, err := url.Parse(mirrorURL)
	if err != nil || u.Host == "" {
		return mirrorURL
	}
	return u.Host
}

// =============================================================================
// PROBING
// =============================================================================

const (
	// probeTimeout bounds a single reachability check.
	probeTimeout = 5 * time.Second

	// probeUserAgent mimics pip so mirrors that filter generic clients
	// still answer.
	probeUserAgent = "pip/24.0"
)

// ProbeResult is the outcome of one reachability check. Unreachable
// results carry no meaningful Latency and always rank after reachable
// ones.
type ProbeResult struct {
	ID          string
	Name        string
	URL         string
	Latency     time.Duration
	Unreachable bool
}

// HTTPDoer abstracts the HTTP client so probes can be mocked in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Prober checks a single candidate's reachability.
//
// Implementations must not return an error: every failure mode
// (connection refused, timeout, protocol error, bad status) collapses
// into an Unreachable result so ranking can treat the whole probe set
// uniformly.
type Prober interface {
	Probe(ctx context.Context, c Candidate) ProbeResult
}

// DefaultProber issues a HEAD request against the mirror index.
type DefaultProber struct {
	client HTTPDoer
}

// NewDefaultProber creates a prober with a timeout-bounded HTTP client.
// Keep-alives are disabled so each probe measures a fresh connection.
func NewDefaultProber() *DefaultProber {
	return &DefaultProber{
		client: &http.Client{
			Timeout: probeTimeout,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

// NewDefaultProberWithClient creates a prober with an injected HTTP
// client. Used by tests to mock network behavior.
func NewDefaultProberWithClient(client HTTPDoer) *DefaultProber {
	return &DefaultProber{client: client}
}

// Probe measures wall-clock latency of a HEAD request to the candidate.
// Any transport error or non-success status marks the candidate
// unreachable.
func (p *DefaultProber) Probe(ctx context.Context, c Candidate) ProbeResult {
	result := ProbeResult{
		ID:   uuid.New().String(),
		Name: c.Name,
		URL:  c.URL,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URL, nil)
	if err != nil {
		result.Unreachable = true
		return result
	}
	req.Header.Set("User-Agent", probeUserAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		result.Unreachable = true
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		result.Unreachable = true
		return result
	}

	result.Latency = time.Since(start)
	return result
}

// MockProber is a configurable Prober for testing.
type MockProber struct {
	ProbeFunc func(ctx context.Context, c Candidate) ProbeResult

	mu    sync.Mutex
	Calls []Candidate
}

func (m *MockProber) Probe(ctx context.Context, c Candidate) ProbeResult {
	m.mu.Lock()
	m.Calls = append(m.Calls, c)
	m.mu.Unlock()
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, c)
	}
	return ProbeResult{ID: uuid.New().String(), Name: c.Name, URL: c.URL, Unreachable: true}
}

// =============================================================================
// SELECTOR
// =============================================================================

// ProgressFunc receives probe results as they complete. Completion
// order is nondeterministic; callers must not assume candidate order.
type ProgressFunc func(ProbeResult)

// SummaryFunc receives the final ranked results, fastest first.
type SummaryFunc func([]ProbeResult)

// Selector probes all candidates concurrently and remembers the winner
// for the remainder of the process.
//
// The selection is a one-time-per-process decision, not a refreshable
// cache: once Select has stored a result (probed or fallback), later
// calls return it without touching the network. ForceSelect is the only
// way to probe again.
//
// Selector is safe for concurrent use.
type Selector struct {
	prober Prober

	mu       sync.Mutex
	selected *Candidate
}

// NewSelector creates a selector using the given prober.
func NewSelector(prober Prober) *Selector {
	return &Selector{prober: prober}
}

// Select returns the cached mirror if one exists, otherwise runs a
// probing round and caches the outcome.
//
// Progress callbacks may be nil. When all candidates are unreachable
// the fixed Fallback is selected and cached like any other result.
func (s *Selector) Select(ctx context.Context, onProbe ProgressFunc, onSummary SummaryFunc) Candidate {
	s.mu.Lock()
	if s.selected != nil {
		c := *s.selected
		s.mu.Unlock()
		return c
	}
	s.mu.Unlock()

	chosen := s.probeAndRank(ctx, onProbe, onSummary)

	// Another caller may have raced us here; first store wins so the
	// process-wide decision is made exactly once.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		s.selected = &chosen
	}
	return *s.selected
}

// ForceSelect discards any cached selection and probes again. The new
// result replaces the cache.
func (s *Selector) ForceSelect(ctx context.Context, onProbe ProgressFunc, onSummary SummaryFunc) Candidate {
	chosen := s.probeAndRank(ctx, onProbe, onSummary)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &chosen
	return chosen
}

// Selected returns the cached selection, if any.
func (s *Selector) Selected() (Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return Candidate{}, false
	}
	return *s.selected, true
}

// probeAndRank dispatches one probe per candidate, waits for every
// probe to finish (join-all; ranking needs the full set, so there is no
// cancellation on first success), then picks the fastest reachable
// candidate or the fallback.
func (s *Selector) probeAndRank(ctx context.Context, onProbe ProgressFunc, onSummary SummaryFunc) Candidate {
	cands := Candidates()
	results := make([]ProbeResult, len(cands))

	var wg sync.WaitGroup
	var progressMu sync.Mutex

	for i, c := range cands {
		wg.Add(1)
		go func(idx int, cand Candidate) {
			defer wg.Done()
			r := s.prober.Probe(ctx, cand)
			results[idx] = r
			if onProbe != nil {
				progressMu.Lock()
				onProbe(r)
				progressMu.Unlock()
			}
		}(i, c)
	}
	wg.Wait()

	ranked := Rank(results)
	if onSummary != nil {
		onSummary(ranked)
	}

	for _, r := range ranked {
		if !r.Unreachable {
			return Candidate{Name: r.Name, URL: r.URL}
		}
	}
	return Fallback
}

// Rank stable-sorts probe results ascending by latency. Unreachable
// results sort after every reachable one; ties keep declaration order.
func Rank(results []ProbeResult) []ProbeResult {
	ranked := make([]ProbeResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Unreachable != ranked[j].Unreachable {
			return !ranked[i].Unreachable
		}
		if ranked[i].Unreachable {
			return false
		}
		return ranked[i].Latency < ranked[j].Latency
	})
	return ranked
}

// Compile-time interface checks.
var (
	_ Prober = (*DefaultProber)(nil)
	_ Prober = (*MockProber)(nil)
)
