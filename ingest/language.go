package ingest

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// langPattern is one weighted detection regex.
type langPattern struct {
	re     *regexp.Regexp
	weight float64
}

func pat(weight float64, expr string) langPattern {
	return langPattern{re: regexp.MustCompile(expr), weight: weight}
}

// language groups the detection patterns for one candidate language.
// Registration order in the languages slice is the tie-break order: when two
// languages reach an equal score, the first registered wins.
type language struct {
	name     string
	aliases  []string
	patterns []langPattern
}

var languages = []language{
	{
		name:    "python",
		aliases: []string{"py", "python3"},
		patterns: []langPattern{
			pat(3, `(?m)^\s*def\s+\w+\s*\(`),
			pat(3, `(?m)^\s*class\s+\w+\s*[(:]`),
			pat(2, `(?m)^\s*(from\s+[\w.]+\s+)?import\s+\w`),
			pat(2, `(?m)^\s*(elif|else)\s*:`),
			pat(1, `\bself\b`),
			pat(1, `(?m)^\s*if\s+__name__\s*==`),
			pat(1, `\bprint\s*\(`),
			pat(1, `\bNone\b|\bTrue\b|\bFalse\b`),
		},
	},
	{
		name:    "javascript",
		aliases: []string{"js", "node", "typescript", "ts"},
		patterns: []langPattern{
			pat(3, `\bfunction\s+\w+\s*\(`),
			pat(3, `\b(const|let)\s+\w+\s*=`),
			pat(2, `=>\s*[{(]?`),
			pat(2, `\bconsole\.(log|error|warn)\s*\(`),
			pat(2, `\brequire\s*\(\s*['"]`),
			pat(1, `\bvar\s+\w+\s*=`),
			pat(1, `\bexport\s+(default\s+)?\w`),
			pat(1, `\bdocument\.\w+`),
		},
	},
	{
		name:    "java",
		aliases: []string{},
		patterns: []langPattern{
			pat(3, `\bpublic\s+(static\s+)?(void|int|String|class)\b`),
			pat(3, `\bSystem\.out\.print`),
			pat(2, `\bprivate\s+\w+\s+\w+\s*[;(=]`),
			pat(2, `(?m)^\s*package\s+[\w.]+\s*;`),
			pat(2, `(?m)^\s*import\s+java[\w.]*\s*;`),
			pat(1, `\bnew\s+\w+\s*\(`),
			pat(1, `@Override\b`),
		},
	},
	{
		name:    "cpp",
		aliases: []string{"c++", "cxx"},
		patterns: []langPattern{
			pat(3, `#include\s*<(iostream|vector|string|map|memory)>`),
			pat(3, `\bstd::\w+`),
			pat(2, `\b(cout|cin|endl)\b`),
			pat(2, `\btemplate\s*<`),
			pat(1, `\bnullptr\b`),
			pat(1, `\bnamespace\s+\w+`),
		},
	},
	{
		name:    "c",
		aliases: []string{},
		patterns: []langPattern{
			pat(3, `#include\s*<(stdio|stdlib|string|math)\.h>`),
			pat(2, `\bprintf\s*\(`),
			pat(2, `\bmalloc\s*\(`),
			pat(2, `(?m)^\s*(int|void|char|float|double)\s+\w+\s*\([^)]*\)\s*{`),
			pat(1, `\bstruct\s+\w+\s*{`),
			pat(1, `\bsizeof\s*\(`),
		},
	},
	{
		name:    "csharp",
		aliases: []string{"c#", "cs"},
		patterns: []langPattern{
			pat(3, `\busing\s+System[\w.]*\s*;`),
			pat(3, `\bConsole\.Write`),
			pat(2, `\bnamespace\s+\w+[\s{]`),
			pat(2, `\bpublic\s+(class|interface|struct)\s+\w+`),
			pat(1, `\basync\s+Task\b`),
			pat(1, `\bvar\s+\w+\s*=\s*new\b`),
		},
	},
	{
		name:    "go",
		aliases: []string{"golang"},
		patterns: []langPattern{
			pat(3, `\bfunc\s+(\(\w+\s+\*?\w+\)\s+)?\w+\s*\(`),
			pat(3, `(?m)^\s*package\s+\w+\s*$`),
			pat(2, `:=`),
			pat(2, `\bfmt\.\w+\s*\(`),
			pat(2, `(?m)^\s*import\s+\(`),
			pat(1, `\bgo\s+func\b`),
			pat(1, `\bchan\s+\w+`),
			pat(1, `\bdefer\s+\w`),
		},
	},
	{
		name:    "rust",
		aliases: []string{"rs"},
		patterns: []langPattern{
			pat(3, `\bfn\s+\w+\s*[(<]`),
			pat(3, `\blet\s+mut\s+\w+`),
			pat(2, `\bprintln!\s*\(`),
			pat(2, `\buse\s+\w+(::\w+)+`),
			pat(2, `\bimpl\s+\w+`),
			pat(1, `\bmatch\s+\w+\s*{`),
			pat(1, `&str\b|\bString::`),
		},
	},
	{
		name:    "php",
		aliases: []string{},
		patterns: []langPattern{
			pat(4, `<\?php`),
			pat(2, `\$\w+\s*=`),
			pat(2, `\becho\s+["$]`),
			pat(1, `->\w+\s*\(`),
			pat(1, `\bfunction\s+\w+\s*\(\s*\$`),
		},
	},
	{
		name:    "ruby",
		aliases: []string{"rb"},
		patterns: []langPattern{
			pat(3, `(?m)^\s*def\s+\w+\s*$`),
			pat(2, `\bputs\s+["']`),
			pat(2, `(?m)^\s*end\s*$`),
			pat(2, `\brequire\s+['"]`),
			pat(1, `\battr_(accessor|reader|writer)\b`),
			pat(1, `\.each\s+do\s+\|`),
		},
	},
	{
		name:    "swift",
		aliases: []string{},
		patterns: []langPattern{
			pat(3, `\bfunc\s+\w+\s*\([^)]*\)\s*(->|{)`),
			pat(2, `\b(let|var)\s+\w+\s*:\s*\w+`),
			pat(2, `\bimport\s+(Foundation|UIKit|SwiftUI)\b`),
			pat(1, `\bguard\s+let\b`),
			pat(1, `\bprint\s*\(`),
		},
	},
	{
		name:    "kotlin",
		aliases: []string{"kt"},
		patterns: []langPattern{
			pat(3, `\bfun\s+\w+\s*\(`),
			pat(2, `\bval\s+\w+\s*=`),
			pat(2, `\bdata\s+class\s+\w+`),
			pat(1, `\bcompanion\s+object\b`),
			pat(1, `\bwhen\s*\(`),
		},
	},
	{
		name:    "shell",
		aliases: []string{"bash", "sh", "zsh", "console"},
		patterns: []langPattern{
			pat(4, `(?m)^#!/bin/(ba|z)?sh`),
			pat(2, `(?m)^\s*(sudo|apt|yum|brew|pip|npm|git|curl|wget|docker)\s+\w`),
			pat(2, `\becho\s+-?\w*\s*["$]`),
			pat(1, `\bexport\s+\w+=`),
			pat(1, `(?m)^\s*if\s+\[\[?\s`),
			pat(1, `\bfi\b|\besac\b|\bdone\b`),
		},
	},
	{
		name:    "sql",
		aliases: []string{},
		patterns: []langPattern{
			pat(3, `(?i)\bSELECT\s+.+\s+FROM\b`),
			pat(3, `(?i)\bCREATE\s+TABLE\b`),
			pat(2, `(?i)\bINSERT\s+INTO\b`),
			pat(2, `(?i)\bUPDATE\s+\w+\s+SET\b`),
			pat(1, `(?i)\bWHERE\s+\w`),
			pat(1, `(?i)\b(INNER|LEFT|RIGHT)\s+JOIN\b`),
		},
	},
	{
		name:    "html",
		aliases: []string{"htm"},
		patterns: []langPattern{
			pat(4, `(?i)<!DOCTYPE\s+html`),
			pat(3, `(?i)<html[\s>]`),
			pat(2, `(?i)<(div|span|body|head|script|link)[\s>]`),
			pat(1, `(?i)</\w+>`),
		},
	},
	{
		name:    "css",
		aliases: []string{},
		patterns: []langPattern{
			pat(3, `(?m)^\s*[.#]?[\w-]+\s*{\s*$`),
			pat(2, `[\w-]+\s*:\s*[^;{]+;`),
			pat(2, `@(media|import|keyframes|font-face)\b`),
			pat(1, `\b(px|rem|em|vh|vw)\b`),
		},
	},
	{
		name:    "json",
		aliases: []string{},
		patterns: []langPattern{
			pat(3, `(?m)^\s*{\s*"`),
			pat(2, `"\w+"\s*:\s*["\[{\d]`),
			pat(1, `(?m)^\s*\[\s*$`),
		},
	},
	{
		name:    "yaml",
		aliases: []string{"yml"},
		patterns: []langPattern{
			pat(3, `(?m)^\w[\w-]*:\s*$`),
			pat(2, `(?m)^\s+[\w-]+:\s+\S`),
			pat(2, `(?m)^---\s*$`),
			pat(1, `(?m)^\s*-\s+[\w"']`),
		},
	},
	{
		name:    "xml",
		aliases: []string{},
		patterns: []langPattern{
			pat(4, `<\?xml\s+version`),
			pat(2, `<\w+(\s+[\w:]+="[^"]*")+\s*/?>`),
			pat(1, `</\w+>`),
		},
	},
}

// aliasIndex maps every language name and alias to its canonical name.
var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for _, lang := range languages {
		idx[lang.name] = lang.name
		for _, a := range lang.aliases {
			idx[a] = lang.name
		}
	}
	return idx
}()

// DetectLanguage guesses the programming language of a code fragment by
// summing per-language pattern weights. Confidence is min(score/10, 1).
// When nothing matches, the result is ("unknown", 0) — never an error.
func DetectLanguage(text string) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, lang := range languages {
		score := 0.0
		for _, p := range lang.patterns {
			if p.re.MatchString(text) {
				score += p.weight
			}
		}
		if score > bestScore {
			best = lang.name
			bestScore = score
		}
	}
	if bestScore == 0 {
		return "unknown", 0
	}
	return best, math.Min(bestScore/10, 1.0)
}

// LookupLanguage reports whether detection patterns are registered for the
// given language name or alias. Unknown names return ErrUnsupportedLanguage.
func LookupLanguage(name string) error {
	if _, ok := aliasIndex[strings.ToLower(strings.TrimSpace(name))]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
	return nil
}

// normalizeLanguage resolves an alias ("py", "golang") to its canonical name.
// Unknown names pass through lowercased.
func normalizeLanguage(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliasIndex[lower]; ok {
		return canonical
	}
	return lower
}

// LanguageNames returns the canonical names of all registered languages, in
// registration order.
func LanguageNames() []string {
	out := make([]string, len(languages))
	for i, lang := range languages {
		out[i] = lang.name
	}
	return out
}
