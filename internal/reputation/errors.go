package reputation

import "fmt"

// SubmissionError reports a failure to submit a URL for analysis. The
// orchestrator drops the affected URL and carries on with the rest.
type SubmissionError struct {
	URL string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s for analysis: %v", e.URL, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// FetchError reports a failure to retrieve the status of a submitted
// analysis. A poll failure ends that URL's scan without a verdict.
type FetchError struct {
	AnalysisID string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch analysis %s: %v", e.AnalysisID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
