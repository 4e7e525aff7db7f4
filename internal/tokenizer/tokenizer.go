// Package tokenizer provides token counting for chunk budgeting.
//
// Counts only need to be deterministic and consistent between budgeting
// and the recorded chunk metadata; they do not need to match any specific
// model tokenizer exactly.
package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// Counter converts text to a token count.
type Counter interface {
	CountTokens(text string) int
}

// Estimator approximates model tokenization without a remote call.
// It blends word count with a characters-per-token heuristic (~4 chars
// per token for English prose) and takes the larger of the two, so short
// sentences still cost at least one token per word.
type Estimator struct{}

func NewEstimator() *Estimator { return &Estimator{} }

func (e *Estimator) CountTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	words := len(strings.Fields(trimmed))
	chars := utf8.RuneCountInString(trimmed)

	estimate := chars / 4
	if words > estimate {
		estimate = words
	}
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}
