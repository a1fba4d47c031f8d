package models

// Verdict is the binary classification of a scanned URL
type Verdict string

const (
	VerdictSafe   Verdict = "SAFE"
	VerdictUnsafe Verdict = "UNSAFE"
)

// ThreatLevel mirrors the verdict in the vocabulary the browser extension
// displays on its badge
type ThreatLevel string

const (
	ThreatLevelHarmless  ThreatLevel = "harmless"
	ThreatLevelMalicious ThreatLevel = "malicious"
)

// ThreatLevelFor maps a verdict to its display threat level
func ThreatLevelFor(v Verdict) ThreatLevel {
	if v == VerdictUnsafe {
		return ThreatLevelMalicious
	}
	return ThreatLevelHarmless
}

// AnalysisStats holds the engine vote counts of a completed analysis
type AnalysisStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
	Timeout    int `json:"timeout"`
}

// Verdict derives the binary classification from the vote counts: any
// malicious or suspicious engine vote marks the URL unsafe.
func (s AnalysisStats) Verdict() Verdict {
	if s.Malicious > 0 || s.Suspicious > 0 {
		return VerdictUnsafe
	}
	return VerdictSafe
}

// Analysis status values reported by the reputation service. Anything other
// than completed counts as still pending.
const (
	AnalysisStatusQueued     = "queued"
	AnalysisStatusInProgress = "in-progress"
	AnalysisStatusCompleted  = "completed"
)

// AnalysisStatus is one poll response for a submitted analysis. Stats is
// meaningful only when Status is completed.
type AnalysisStatus struct {
	Status string
	Stats  AnalysisStats
}

// Completed reports whether the analysis reached its terminal state
func (s *AnalysisStatus) Completed() bool {
	return s.Status == AnalysisStatusCompleted
}

// URLScan is the explicit per-URL outcome of one scan. A non-nil Err means the
// URL never reached a verdict (failed submission, failed poll, or polling
// budget exhausted) and is excluded from the verdict mapping.
type URLScan struct {
	URL     string  `json:"url"`
	Verdict Verdict `json:"verdict,omitempty"`
	Err     error   `json:"-"`
}

// Resolved reports whether the scan produced a verdict
func (s URLScan) Resolved() bool {
	return s.Err == nil
}

// IndicatorReport is the structured output of the content risk scorer
type IndicatorReport struct {
	SuspiciousPhrases []string `json:"suspicious_phrases"`
	UrgencyScore      int      `json:"urgency_indicators"`
	GrammarScore      int      `json:"grammar_issues"`
}

// SafetyDecision is the aggregated result of URL verdicts and content
// indicators. ContentAnalysis is nil when content scoring was not requested.
type SafetyDecision struct {
	Safe            bool               `json:"safe"`
	URLScan         map[string]Verdict `json:"url_scan"`
	ContentAnalysis *IndicatorReport   `json:"content_analysis"`
	Reasons         []string           `json:"-"`
	Recommendation  string             `json:"recommendation"`
}
