package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phishguard-api/internal/config"
	"phishguard-api/internal/domain/models"
	"phishguard-api/pkg/logger"
)

const defaultAPIURL = "https://www.virustotal.com/api/v3"

// Client is the reputation service seen by the orchestrator: submit a URL,
// then poll the returned analysis until it completes. Implementations hold no
// per-call state and must be safe for concurrent use. Retry policy belongs to
// the caller.
type Client interface {
	// Submit sends a URL for analysis and returns the opaque analysis ID.
	// Failures are reported as *SubmissionError.
	Submit(ctx context.Context, target string) (string, error)

	// FetchStatus retrieves the current state of a submitted analysis.
	// Failures are reported as *FetchError.
	FetchStatus(ctx context.Context, analysisID string) (*models.AnalysisStatus, error)
}

// VirusTotalClient talks to the VirusTotal v3 API
type VirusTotalClient struct {
	client *http.Client
	apiURL string
	apiKey string
	logger *logger.Logger
}

var _ Client = (*VirusTotalClient)(nil)

// NewVirusTotalClient creates a client for the configured VirusTotal endpoint
func NewVirusTotalClient(cfg config.VirusTotalConfig, log *logger.Logger) *VirusTotalClient {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VirusTotalClient{
		client: &http.Client{Timeout: timeout},
		apiURL: strings.TrimSuffix(apiURL, "/"),
		apiKey: cfg.APIKey,
		logger: log.WithComponent("virustotal"),
	}
}

// vtSubmitResponse is the envelope returned by POST /urls
type vtSubmitResponse struct {
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

// vtAnalysisResponse is the envelope returned by GET /analyses/{id}
type vtAnalysisResponse struct {
	Data struct {
		Attributes struct {
			Status string               `json:"status"`
			Stats  models.AnalysisStats `json:"stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// Submit implements Client
func (c *VirusTotalClient) Submit(ctx context.Context, target string) (string, error) {
	form := url.Values{"url": {target}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/urls", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &SubmissionError{URL: target, Err: err}
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", &SubmissionError{URL: target, Err: err}
	}

	var parsed vtSubmitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &SubmissionError{URL: target, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if parsed.Data.ID == "" {
		return "", &SubmissionError{URL: target, Err: fmt.Errorf("response carried no analysis id")}
	}

	c.logger.Debug().
		Str("url", target).
		Str("analysis_id", parsed.Data.ID).
		Msg("URL submitted for analysis")

	return parsed.Data.ID, nil
}

// FetchStatus implements Client
func (c *VirusTotalClient) FetchStatus(ctx context.Context, analysisID string) (*models.AnalysisStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/analyses/"+url.PathEscape(analysisID), nil)
	if err != nil {
		return nil, &FetchError{AnalysisID: analysisID, Err: err}
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, &FetchError{AnalysisID: analysisID, Err: err}
	}

	var parsed vtAnalysisResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &FetchError{AnalysisID: analysisID, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return &models.AnalysisStatus{
		Status: parsed.Data.Attributes.Status,
		Stats:  parsed.Data.Attributes.Stats,
	}, nil
}

// do executes a request and returns the body of a 200 response
func (c *VirusTotalClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("VirusTotal returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
