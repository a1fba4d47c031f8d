package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"phishguard-api/internal/domain/models"
	"phishguard-api/internal/domain/services"
	"phishguard-api/pkg/logger"
)

// URLScanner resolves a set of URLs to verdicts. The mapping contains only
// URLs whose analysis completed; an error means the request failed as a whole.
type URLScanner interface {
	Scan(ctx context.Context, urls []string) (map[string]models.Verdict, error)
}

// ContentScorer produces an indicator report for raw message text
type ContentScorer interface {
	Score(text string) models.IndicatorReport
}

// ScanHandler handles the scan endpoints used by the browser extension
type ScanHandler struct {
	scanner URLScanner
	scorer  ContentScorer
	logger  *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanner URLScanner, scorer ContentScorer, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		scanner: scanner,
		scorer:  scorer,
		logger:  log.WithComponent("scan-handler"),
	}
}

// ScanRequest is the request body for /scan and /scan-url
type ScanRequest struct {
	Message string `json:"message"`
}

// EmailScanRequest is the request body for /scan_email. AnalyzeContent
// defaults to true when omitted.
type EmailScanRequest struct {
	Message        string `json:"message"`
	AnalyzeContent *bool  `json:"analyze_content"`
}

// Scan handles POST /scan - extracts URLs from the message and scans them all
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	urls := services.ExtractURLs(req.Message)
	if len(urls) == 0 {
		respondDetail(w, http.StatusBadRequest, "No URLs found in message")
		return
	}

	results, err := h.scanner.Scan(r.Context(), urls)
	if err != nil {
		h.logger.Error().Err(err).Msg("scan failed")
		respondDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().
		Int("urls", len(urls)).
		Int("resolved", len(results)).
		Msg("message scanned")

	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// ScanEmail handles POST /scan_email - scans embedded URLs and optionally
// scores the content, then aggregates both into one safety decision. Partial
// URL failures degrade gracefully; the endpoint answers 200 regardless.
func (h *ScanHandler) ScanEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	verdicts := map[string]models.Verdict{}
	if urls := services.ExtractURLs(req.Message); len(urls) > 0 {
		var err error
		verdicts, err = h.scanner.Scan(r.Context(), urls)
		if err != nil {
			h.logger.Error().Err(err).Msg("email scan failed")
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	var report *models.IndicatorReport
	if req.AnalyzeContent == nil || *req.AnalyzeContent {
		scored := h.scorer.Score(req.Message)
		report = &scored
	}

	decision := services.Aggregate(verdicts, report)

	h.logger.Info().
		Bool("safe", decision.Safe).
		Int("urls_resolved", len(decision.URLScan)).
		Strs("reasons", decision.Reasons).
		Msg("email analyzed")

	respondJSON(w, http.StatusOK, decision)
}

// ScanURL handles POST /scan-url - scans only the first URL in the message,
// the shape the extension's page badge uses
func (h *ScanHandler) ScanURL(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	urls := services.ExtractURLs(req.Message)
	if len(urls) == 0 {
		respondDetail(w, http.StatusBadRequest, "No URL found in message")
		return
	}

	results, err := h.scanner.Scan(r.Context(), urls[:1])
	if err != nil {
		h.logger.Error().Err(err).Msg("scan failed")
		respondDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	verdict, ok := results[urls[0]]
	if !ok {
		respondDetail(w, http.StatusInternalServerError, "URL analysis did not complete")
		return
	}

	response := struct {
		URL         string             `json:"url"`
		ThreatLevel models.ThreatLevel `json:"threat_level"`
		Result      models.Verdict     `json:"result"`
	}{
		URL:         urls[0],
		ThreatLevel: models.ThreatLevelFor(verdict),
		Result:      verdict,
	}

	respondJSON(w, http.StatusOK, response)
}
