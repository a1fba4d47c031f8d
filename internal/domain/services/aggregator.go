package services

import (
	"fmt"
	"strings"

	"phishguard-api/internal/domain/models"
)

// Trigger thresholds for the safety decision. Each is an independent trigger;
// several reasons can fire on the same message.
//
// The phrase threshold is 3 as shipped. An upstream change note claimed it was
// raised from 1 to 2, but the effective check has always been >= 3; we keep
// the observed behavior.
const (
	suspiciousPhraseThreshold = 3
	urgencyScoreThreshold     = 2
	grammarScoreThreshold     = 1
)

const (
	recommendationSafe   = "This content appears to be safe."
	recommendationUnsafe = "This content shows signs of being a phishing attempt."
)

// Aggregate combines URL verdicts and an optional indicator report into one
// safety decision. The decision is unsafe exactly when at least one reason is
// recorded.
func Aggregate(verdicts map[string]models.Verdict, report *models.IndicatorReport) models.SafetyDecision {
	decision := models.SafetyDecision{
		Safe:            true,
		URLScan:         verdicts,
		ContentAnalysis: report,
		Reasons:         []string{},
	}
	if decision.URLScan == nil {
		decision.URLScan = map[string]models.Verdict{}
	}

	for _, v := range verdicts {
		if v == models.VerdictUnsafe {
			decision.Reasons = append(decision.Reasons, "Contains potentially malicious URLs")
			break
		}
	}

	if report != nil {
		if n := len(report.SuspiciousPhrases); n >= suspiciousPhraseThreshold {
			decision.Reasons = append(decision.Reasons, fmt.Sprintf("Contains %d suspicious phrases", n))
		}
		if report.UrgencyScore >= urgencyScoreThreshold {
			decision.Reasons = append(decision.Reasons, fmt.Sprintf("Contains %d urgency indicators", report.UrgencyScore))
		}
		if report.GrammarScore >= grammarScoreThreshold {
			decision.Reasons = append(decision.Reasons, "Contains suspicious grammar patterns")
		}
	}

	decision.Safe = len(decision.Reasons) == 0

	if decision.Safe {
		decision.Recommendation = recommendationSafe
	} else {
		decision.Recommendation = recommendationUnsafe +
			" Reasons: " + strings.Join(decision.Reasons, ", ") + "."
	}

	return decision
}
