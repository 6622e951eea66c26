package ingest

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// ScoreWeights tunes the code quality heuristic. The defaults reproduce the
// established scoring behavior; they are tunable constants, not calibrated
// truths.
type ScoreWeights struct {
	Base          float64 `json:"base" yaml:"base"`                     // starting score
	ConfidenceMax float64 `json:"confidence_max" yaml:"confidence_max"` // max bonus scaled by language confidence
	LengthIdeal   float64 `json:"length_ideal" yaml:"length_ideal"`     // bonus for 20-500 chars
	LengthOK      float64 `json:"length_ok" yaml:"length_ok"`           // bonus for 501-2000 chars
	LineCount     float64 `json:"line_count" yaml:"line_count"`         // bonus for 2-50 lines, penalty above 100
	Keyword       float64 `json:"keyword" yaml:"keyword"`               // bonus when a defining keyword is present
	Identifiers   float64 `json:"identifiers" yaml:"identifiers"`       // bonus for >=2 multi-char lowercase identifiers
	SyntaxValid   float64 `json:"syntax_valid" yaml:"syntax_valid"`     // bonus when validation passes
	SyntaxIssue   float64 `json:"syntax_issue" yaml:"syntax_issue"`     // penalty per validation issue
}

func (w *ScoreWeights) defaults() {
	if w.Base == 0 {
		w.Base = 5.0
	}
	if w.ConfidenceMax == 0 {
		w.ConfidenceMax = 2.0
	}
	if w.LengthIdeal == 0 {
		w.LengthIdeal = 1.0
	}
	if w.LengthOK == 0 {
		w.LengthOK = 0.5
	}
	if w.LineCount == 0 {
		w.LineCount = 1.0
	}
	if w.Keyword == 0 {
		w.Keyword = 1.5
	}
	if w.Identifiers == 0 {
		w.Identifiers = 1.0
	}
	if w.SyntaxValid == 0 {
		w.SyntaxValid = 1.0
	}
	if w.SyntaxIssue == 0 {
		w.SyntaxIssue = 0.5
	}
}

// DefaultScoreWeights returns the default quality weights.
func DefaultScoreWeights() ScoreWeights {
	var w ScoreWeights
	w.defaults()
	return w
}

// definingKeywordRe matches function- or type-defining keywords across the
// registered languages.
var definingKeywordRe = regexp.MustCompile(`\b(def|class|function|func|fn|fun|sub|interface|struct|impl|trait)\b`)

// identifierRe matches multi-character lowercase identifiers.
var identifierRe = regexp.MustCompile(`\b[a-z][a-z0-9_]{2,}\b`)

// ScoreQuality computes a 0-10 heuristic quality score for a code fragment.
// It never fails: unscorable input just lands low. Returned warnings list the
// syntax validation issues found, each of which lowered the score.
func ScoreQuality(text string, confidence float64, w ScoreWeights) (float64, []string) {
	w.defaults()

	score := w.Base
	score += confidence * w.ConfidenceMax

	n := len(text)
	switch {
	case n >= 20 && n <= 500:
		score += w.LengthIdeal
	case n > 500 && n <= 2000:
		score += w.LengthOK
	}

	lines := strings.Count(text, "\n") + 1
	switch {
	case lines >= 2 && lines <= 50:
		score += w.LineCount
	case lines > 100:
		score -= w.LineCount
	}

	if definingKeywordRe.MatchString(text) {
		score += w.Keyword
	}

	if len(identifierRe.FindAllString(text, 3)) >= 2 {
		score += w.Identifiers
	}

	warnings := ValidateSyntax(text)
	if len(warnings) == 0 {
		score += w.SyntaxValid
	} else {
		score -= float64(len(warnings)) * w.SyntaxIssue
	}

	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, warnings
}

// ValidateSyntax runs cheap structural checks over a code fragment: bracket
// balance, mixed tab/space indentation, and JSON well-formedness for
// JSON-looking input. Findings are warnings that lower the quality score;
// they never abort extraction.
func ValidateSyntax(text string) []string {
	var warnings []string

	if issue := checkBracketBalance(text); issue != "" {
		warnings = append(warnings, issue)
	}
	if hasMixedIndentation(text) {
		warnings = append(warnings, "mixed tab and space indentation")
	}
	if looksLikeJSON(text) && !json.Valid([]byte(text)) {
		warnings = append(warnings, "invalid JSON")
	}

	return warnings
}

// checkBracketBalance verifies (), [] and {} pairing, ignoring brackets
// inside single- or double-quoted string literals.
func checkBracketBalance(text string) string {
	var stack []rune
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var quote rune
	escaped := false

	for _, r := range text {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'':
			quote = r
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return "unbalanced brackets"
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return "unbalanced brackets"
	}
	return ""
}

// hasMixedIndentation reports whether some lines indent with tabs and others
// with spaces.
func hasMixedIndentation(text string) bool {
	var tabs, spaces bool
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "\t") {
			tabs = true
		} else if strings.HasPrefix(line, " ") {
			spaces = true
		}
	}
	return tabs && spaces
}

// looksLikeJSON reports whether text plausibly is a JSON document.
func looksLikeJSON(text string) bool {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
