package services

import (
	"regexp"
	"strings"

	"phishguard-api/internal/domain/models"
)

// ContentScorer inspects raw message text for phishing-style linguistic
// indicators. Scoring is a pure function of the input text and the fixed
// tables in indicator_patterns.go; a scorer holds only precompiled patterns
// and is safe for concurrent use.
type ContentScorer struct {
	urgencyPatterns []*regexp.Regexp
}

// NewContentScorer creates a scorer with the default indicator tables
func NewContentScorer() *ContentScorer {
	s := &ContentScorer{
		urgencyPatterns: make([]*regexp.Regexp, 0, len(urgencyWords)),
	}
	for _, word := range urgencyWords {
		// Whole-word match: "now" must not fire inside "known".
		s.urgencyPatterns = append(s.urgencyPatterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(word)+`\b`))
	}
	return s
}

// Score produces an indicator report for the given text. The report's phrase
// list is never nil so it serializes as an empty array.
func (s *ContentScorer) Score(text string) models.IndicatorReport {
	report := models.IndicatorReport{
		SuspiciousPhrases: []string{},
	}

	lower := strings.ToLower(text)

	for _, phrase := range suspiciousPhrases {
		if strings.Contains(lower, phrase) {
			report.SuspiciousPhrases = append(report.SuspiciousPhrases, phrase)
		}
	}

	for _, pattern := range s.urgencyPatterns {
		if pattern.MatchString(lower) {
			report.UrgencyScore += urgencyWordWeight
		}
	}

	for _, issue := range grammarIssues {
		if strings.Contains(lower, issue) {
			report.GrammarScore += grammarIssueWeight
		}
	}

	return report
}
