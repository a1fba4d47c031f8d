package services_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"phishguard-api/internal/config"
	"phishguard-api/internal/domain/models"
	"phishguard-api/internal/domain/services"
	"phishguard-api/internal/infrastructure/cache"
	"phishguard-api/internal/reputation"
	"phishguard-api/pkg/logger"
)

// fakeReputationClient scripts per-URL submission results and per-analysis
// status sequences. The last status in a sequence repeats forever.
type fakeReputationClient struct {
	mu         sync.Mutex
	submitErr  map[string]error
	statuses   map[string][]models.AnalysisStatus
	fetchErr   map[string]error
	submitted  []string
	fetchCalls map[string]int
}

func newFakeClient() *fakeReputationClient {
	return &fakeReputationClient{
		submitErr:  make(map[string]error),
		statuses:   make(map[string][]models.AnalysisStatus),
		fetchErr:   make(map[string]error),
		fetchCalls: make(map[string]int),
	}
}

func analysisIDFor(url string) string {
	return "analysis-" + url
}

func (f *fakeReputationClient) Submit(ctx context.Context, target string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, target)
	if err := f.submitErr[target]; err != nil {
		return "", err
	}
	return analysisIDFor(target), nil
}

func (f *fakeReputationClient) FetchStatus(ctx context.Context, analysisID string) (*models.AnalysisStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls[analysisID]++
	if err := f.fetchErr[analysisID]; err != nil {
		return nil, err
	}
	seq := f.statuses[analysisID]
	if len(seq) == 0 {
		return &models.AnalysisStatus{Status: models.AnalysisStatusQueued}, nil
	}
	idx := f.fetchCalls[analysisID] - 1
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	status := seq[idx]
	return &status, nil
}

// completed scripts an immediately-completed analysis with the given stats
func (f *fakeReputationClient) completed(url string, stats models.AnalysisStats) {
	f.statuses[analysisIDFor(url)] = []models.AnalysisStatus{
		{Status: models.AnalysisStatusCompleted, Stats: stats},
	}
}

func (f *fakeReputationClient) submissions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

func testScanConfig() config.VirusTotalConfig {
	return config.VirusTotalConfig{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 10,
		ScanTimeout:     5 * time.Second,
		CacheTTL:        time.Minute,
	}
}

func newTestOrchestrator(client reputation.Client, c *cache.RedisCache, cfg config.VirusTotalConfig) *services.Orchestrator {
	return services.NewOrchestrator(cfg, client, c, logger.Nop())
}

func TestOrchestrator_Scan_ResolvesVerdicts(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.completed("http://clean.com", models.AnalysisStats{Harmless: 70})
	client.completed("http://evil.com", models.AnalysisStats{Malicious: 3})
	client.completed("http://shady.com", models.AnalysisStats{Suspicious: 1})

	o := newTestOrchestrator(client, nil, testScanConfig())

	got, err := o.Scan(context.Background(), []string{"http://clean.com", "http://evil.com", "http://shady.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := map[string]models.Verdict{
		"http://clean.com": models.VerdictSafe,
		"http://evil.com":  models.VerdictUnsafe,
		"http://shady.com": models.VerdictUnsafe,
	}
	for url, verdict := range want {
		if got[url] != verdict {
			t.Errorf("verdict[%s] = %q, want %q", url, got[url], verdict)
		}
	}
	if len(got) != len(want) {
		t.Errorf("got %d verdicts, want %d", len(got), len(want))
	}
}

func TestOrchestrator_Scan_CollapsesDuplicates(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.completed("http://a.com", models.AnalysisStats{})

	o := newTestOrchestrator(client, nil, testScanConfig())

	got, err := o.Scan(context.Background(), []string{"http://a.com", "http://a.com", "http://a.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(got) != 1 {
		t.Errorf("got %d verdicts, want 1", len(got))
	}
	if subs := client.submissions(); len(subs) != 1 {
		t.Errorf("duplicate URLs caused %d submissions, want 1", len(subs))
	}
}

func TestOrchestrator_Scan_PartialSubmissionFailure(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.completed("http://ok.com", models.AnalysisStats{})
	client.submitErr["http://broken.com"] = &reputation.SubmissionError{
		URL: "http://broken.com",
		Err: errors.New("VirusTotal returned status 401"),
	}

	o := newTestOrchestrator(client, nil, testScanConfig())

	got, err := o.Scan(context.Background(), []string{"http://ok.com", "http://broken.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d verdicts, want 1: %v", len(got), got)
	}
	if got["http://ok.com"] != models.VerdictSafe {
		t.Errorf("surviving URL verdict = %q, want SAFE", got["http://ok.com"])
	}
}

func TestOrchestrator_Scan_PollsUntilComplete(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	id := analysisIDFor("http://slow.com")
	client.statuses[id] = []models.AnalysisStatus{
		{Status: models.AnalysisStatusQueued},
		{Status: models.AnalysisStatusInProgress},
		{Status: models.AnalysisStatusCompleted, Stats: models.AnalysisStats{Malicious: 1}},
	}

	o := newTestOrchestrator(client, nil, testScanConfig())

	got, err := o.Scan(context.Background(), []string{"http://slow.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if got["http://slow.com"] != models.VerdictUnsafe {
		t.Errorf("verdict = %q, want UNSAFE", got["http://slow.com"])
	}
	client.mu.Lock()
	calls := client.fetchCalls[id]
	client.mu.Unlock()
	if calls != 3 {
		t.Errorf("fetch called %d times, want 3", calls)
	}
}

func TestOrchestrator_Scan_FetchFailureDropsURL(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.fetchErr[analysisIDFor("http://flaky.com")] = &reputation.FetchError{
		AnalysisID: analysisIDFor("http://flaky.com"),
		Err:        errors.New("connection reset"),
	}

	o := newTestOrchestrator(client, nil, testScanConfig())

	got, err := o.Scan(context.Background(), []string{"http://flaky.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("failed URL must not appear in the mapping, got %v", got)
	}
}

func TestOrchestrator_ScanAll_ReportsUnresolvedAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	// Analysis never completes; default scripted status is queued.

	cfg := testScanConfig()
	cfg.MaxPollAttempts = 3

	o := newTestOrchestrator(client, nil, cfg)

	outcomes := o.ScanAll(context.Background(), []string{"http://stuck.com"})
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if outcomes[0].Resolved() {
		t.Fatal("stuck analysis must not resolve")
	}
	if !errors.Is(outcomes[0].Err, services.ErrAnalysisUnresolved) {
		t.Errorf("outcome error = %v, want ErrAnalysisUnresolved", outcomes[0].Err)
	}

	client.mu.Lock()
	calls := client.fetchCalls[analysisIDFor("http://stuck.com")]
	client.mu.Unlock()
	if calls != 3 {
		t.Errorf("fetch called %d times, want exactly max attempts (3)", calls)
	}
}

func TestOrchestrator_ScanAll_EmptyInput(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(newFakeClient(), nil, testScanConfig())

	if outcomes := o.ScanAll(context.Background(), nil); len(outcomes) != 0 {
		t.Errorf("expected no outcomes for empty input, got %v", outcomes)
	}
}

func TestOrchestrator_Scan_DeadContextFailsWholeRequest(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(newFakeClient(), nil, testScanConfig())

	if _, err := o.Scan(ctx, []string{"http://a.com"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOrchestrator_CacheHitSkipsSubmission(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	redisCache := newTestCache(t, mr.Addr())

	client := newFakeClient()
	o := newTestOrchestrator(client, redisCache, testScanConfig())

	ctx := context.Background()
	if err := redisCache.CacheVerdict(ctx, "http://cached.com", string(models.VerdictUnsafe), time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	got, err := o.Scan(ctx, []string{"http://cached.com"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if got["http://cached.com"] != models.VerdictUnsafe {
		t.Errorf("verdict = %q, want UNSAFE from cache", got["http://cached.com"])
	}
	if subs := client.submissions(); len(subs) != 0 {
		t.Errorf("cache hit still submitted: %v", subs)
	}
}

func TestOrchestrator_ResolvedVerdictIsCached(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	redisCache := newTestCache(t, mr.Addr())

	client := newFakeClient()
	client.completed("http://fresh.com", models.AnalysisStats{Malicious: 2})

	o := newTestOrchestrator(client, redisCache, testScanConfig())

	if _, err := o.Scan(context.Background(), []string{"http://fresh.com"}); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	cached, err := redisCache.GetCachedVerdict(context.Background(), "http://fresh.com")
	if err != nil {
		t.Fatalf("verdict not cached: %v", err)
	}
	if cached != string(models.VerdictUnsafe) {
		t.Errorf("cached verdict = %q, want UNSAFE", cached)
	}
}

// newTestCache connects a RedisCache to a miniredis address
func newTestCache(t *testing.T, addr string) *cache.RedisCache {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	c, err := cache.NewRedis(context.Background(), config.RedisConfig{
		Enabled:   true,
		Host:      host,
		Port:      port,
		KeyPrefix: fmt.Sprintf("test:%s:", t.Name()),
	}, logger.Nop())
	if err != nil {
		t.Fatalf("connect to miniredis: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
