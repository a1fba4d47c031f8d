package services

// Indicator tables for the content risk scorer. These are detection data, not
// control flow; the scoring algorithm in content_scorer.go never changes when
// a phrase is added here.

// suspiciousPhrases are matched by case-insensitive substring containment.
// Every match is recorded individually.
var suspiciousPhrases = []string{
	"verify your account",
	"update your information",
	"confirm your details",
	"unusual activity",
	"suspicious activity",
	"click here",
	"login to continue",
	"your account will be suspended",
	"limited time offer",
	"act now",
}

// urgencyWords are matched as whole words, case-insensitive. Each hit adds
// urgencyWordWeight to the urgency score.
var urgencyWords = []string{
	"urgent",
	"immediately",
	"now",
	"today",
	"asap",
	"expires",
	"limited",
}

// grammarIssues are malformed constructions common in phishing mail, matched
// by case-insensitive substring containment. Each hit adds grammarIssueWeight.
var grammarIssues = []string{
	"to received",
	"kindly replied",
	"to confirmed",
	"your details is",
}

const (
	urgencyWordWeight  = 2
	grammarIssueWeight = 2
)
