package services

import "regexp"

// urlPattern matches an http(s) scheme followed by anything that isn't
// whitespace or a comma. Commas terminate a match so URLs survive being
// listed inline in prose ("see http://a.com, http://b.com").
var urlPattern = regexp.MustCompile(`https?://[^\s,]+`)

// ExtractURLs returns every URL embedded in text, in first-occurrence order.
// Duplicates are kept; collapsing them is the orchestrator's job.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}
