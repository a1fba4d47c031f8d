package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"phishguard-api/internal/config"
	"phishguard-api/internal/domain/models"
	"phishguard-api/internal/infrastructure/cache"
	"phishguard-api/internal/reputation"
	"phishguard-api/pkg/logger"
)

// ErrAnalysisUnresolved marks a scan whose analysis never completed within the
// polling budget. The URL is excluded from the verdict mapping, same as a
// fetch failure.
var ErrAnalysisUnresolved = errors.New("analysis did not complete within the polling budget")

// Orchestrator fans URL submissions out to the reputation service, polls each
// analysis to completion and maps terminal stats to verdicts. A failure on one
// URL never aborts the others.
type Orchestrator struct {
	client reputation.Client
	cache  *cache.RedisCache // optional, nil disables verdict caching
	logger *logger.Logger

	pollInterval    time.Duration
	maxPollAttempts int
	scanTimeout     time.Duration
	cacheTTL        time.Duration
}

// NewOrchestrator creates a scan orchestrator. The cache may be nil.
func NewOrchestrator(cfg config.VirusTotalConfig, client reputation.Client, c *cache.RedisCache, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		client:          client,
		cache:           c,
		logger:          log.WithComponent("orchestrator"),
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
		scanTimeout:     cfg.ScanTimeout,
		cacheTTL:        cfg.CacheTTL,
	}
}

// Scan resolves the given URLs to verdicts. Duplicates collapse by value. The
// returned mapping contains only URLs whose analysis reached a terminal,
// successfully fetched state; failed URLs are logged and dropped. The error is
// non-nil only when the request context was already dead, which the caller
// surfaces as a whole-request failure.
func (o *Orchestrator) Scan(ctx context.Context, urls []string) (map[string]models.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	verdicts := make(map[string]models.Verdict)
	for _, outcome := range o.ScanAll(ctx, urls) {
		if outcome.Resolved() {
			verdicts[outcome.URL] = outcome.Verdict
		}
	}
	return verdicts, nil
}

// ScanAll runs the full scan and returns the explicit per-URL outcomes,
// resolved or not. Submissions for all distinct URLs run concurrently and are
// awaited as a batch; polling then proceeds concurrently and independently
// per URL.
func (o *Orchestrator) ScanAll(ctx context.Context, urls []string) []models.URLScan {
	distinct := dedupe(urls)
	if len(distinct) == 0 {
		return nil
	}

	log := o.logger.WithScanID(uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, o.scanTimeout)
	defer cancel()

	// Phase 1: concurrent submission. Cache hits resolve immediately and skip
	// the remote round-trip entirely.
	type submission struct {
		url        string
		analysisID string
	}

	var (
		mu        sync.Mutex
		outcomes  []models.URLScan
		submitted []submission
		wg        sync.WaitGroup
	)

	for _, target := range distinct {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()

			if verdict, ok := o.cachedVerdict(ctx, target); ok {
				log.Debug().Str("url", target).Str("verdict", string(verdict)).Msg("verdict served from cache")
				mu.Lock()
				outcomes = append(outcomes, models.URLScan{URL: target, Verdict: verdict})
				mu.Unlock()
				return
			}

			analysisID, err := o.client.Submit(ctx, target)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Str("url", target).Msg("submission failed, dropping URL")
				outcomes = append(outcomes, models.URLScan{URL: target, Err: err})
				return
			}
			submitted = append(submitted, submission{url: target, analysisID: analysisID})
		}(target)
	}
	wg.Wait()

	// Phase 2: poll each submitted analysis to completion.
	for _, sub := range submitted {
		wg.Add(1)
		go func(sub submission) {
			defer wg.Done()

			stats, err := o.awaitAnalysis(ctx, sub.analysisID)
			outcome := models.URLScan{URL: sub.url}
			if err != nil {
				log.Warn().Err(err).Str("url", sub.url).Msg("analysis unresolved, dropping URL")
				outcome.Err = err
			} else {
				outcome.Verdict = stats.Verdict()
				o.storeVerdict(ctx, sub.url, outcome.Verdict)
				log.Info().
					Str("url", sub.url).
					Str("verdict", string(outcome.Verdict)).
					Int("malicious", stats.Malicious).
					Int("suspicious", stats.Suspicious).
					Msg("analysis completed")
			}

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		}(sub)
	}
	wg.Wait()

	return outcomes
}

// awaitAnalysis polls one analysis until it completes, waiting pollInterval
// between attempts. Polling for a single analysis is sequential, one
// outstanding request at a time.
func (o *Orchestrator) awaitAnalysis(ctx context.Context, analysisID string) (*models.AnalysisStats, error) {
	for attempt := 1; attempt <= o.maxPollAttempts; attempt++ {
		status, err := o.client.FetchStatus(ctx, analysisID)
		if err != nil {
			return nil, err
		}
		if status.Completed() {
			return &status.Stats, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.pollInterval):
		}
	}
	return nil, ErrAnalysisUnresolved
}

// cachedVerdict looks a URL up in the verdict cache
func (o *Orchestrator) cachedVerdict(ctx context.Context, url string) (models.Verdict, bool) {
	if o.cache == nil {
		return "", false
	}
	v, err := o.cache.GetCachedVerdict(ctx, url)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			o.logger.Debug().Err(err).Str("url", url).Msg("verdict cache lookup failed")
		}
		return "", false
	}
	switch verdict := models.Verdict(v); verdict {
	case models.VerdictSafe, models.VerdictUnsafe:
		return verdict, true
	default:
		return "", false
	}
}

// storeVerdict records a resolved verdict in the cache, best effort
func (o *Orchestrator) storeVerdict(ctx context.Context, url string, v models.Verdict) {
	if o.cache == nil || o.cacheTTL <= 0 {
		return
	}
	if err := o.cache.CacheVerdict(ctx, url, string(v), o.cacheTTL); err != nil {
		o.logger.Debug().Err(err).Str("url", url).Msg("failed to cache verdict")
	}
}

// dedupe collapses duplicate URLs, preserving first-occurrence order
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	distinct := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		distinct = append(distinct, u)
	}
	return distinct
}
