// Package labeling decides whether a run used continuous-style labeling
// (continuous or pseudo-continuous tagging) versus the pulsed default.
package labeling

import (
	"strings"

	"aslquant/pkg/metadata"
)

// continuousKeywords are matched case-insensitively as substrings. Any hit
// classifies the run as continuous-style labeling.
var continuousKeywords = []string{
	"continuous",
	"pseudo-continuous",
	"pseudo",
	"casl",
	"pcasl",
}

// IsContinuous reports whether the run used continuous-style labeling.
// The resolved labeling-type field is checked first; when it is absent or
// matches nothing, the raw text of each metadata source is scanned in turn
// (run-level before dataset-level) and the first match wins. No match means
// pulsed, which is a legitimate terminal state rather than an error.
func IsContinuous(resolved string, sources ...*metadata.Source) bool {
	if resolved != "" && matches(resolved) {
		return true
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		if matches(src.Raw()) {
			return true
		}
	}
	return false
}

func matches(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range continuousKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
