package github

import "regexp"

// Signature is one extracted function, method, type or class declaration.
type Signature struct {
	Kind string `json:"kind"` // function, class, type
	Name string `json:"name"`
	Line string `json:"line"` // the declaration line, trimmed
}

// FileSignatures groups the signatures found in one source file.
type FileSignatures struct {
	Path       string      `json:"path"`
	Language   string      `json:"language"`
	Signatures []Signature `json:"signatures"`
}

// sigPattern captures declarations for one language. The name is always the
// first capture group.
type sigPattern struct {
	kind string
	re   *regexp.Regexp
}

var signaturePatterns = map[string][]sigPattern{
	"python": {
		{"function", regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+(\w+)\s*\([^)]*\)\s*(?:->\s*[^:]+)?:`)},
		{"class", regexp.MustCompile(`(?m)^\s*class\s+(\w+)\s*(?:\([^)]*\))?\s*:`)},
	},
	"javascript": {
		{"function", regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+(\w+)\s*\(`)},
		{"function", regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*=>`)},
		{"class", regexp.MustCompile(`(?m)^\s*(?:export\s+)?class\s+(\w+)`)},
	},
	"go": {
		{"function", regexp.MustCompile(`(?m)^func\s+(?:\([^)]+\)\s+)?(\w+)\s*\(`)},
		{"type", regexp.MustCompile(`(?m)^type\s+(\w+)\s+(?:struct|interface)\b`)},
	},
	"java": {
		{"function", regexp.MustCompile(`(?m)^\s*(?:public|protected|private)\s+(?:static\s+)?(?:final\s+)?[\w<>\[\],\s]+\s+(\w+)\s*\([^)]*\)\s*(?:throws\s+[\w,\s]+)?\s*\{`)},
		{"class", regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:abstract\s+|final\s+)?(?:class|interface|enum)\s+(\w+)`)},
	},
	"ruby": {
		{"function", regexp.MustCompile(`(?m)^\s*def\s+(\w+[?!]?)`)},
		{"class", regexp.MustCompile(`(?m)^\s*(?:class|module)\s+(\w+)`)},
	},
	"rust": {
		{"function", regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)`)},
		{"type", regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:struct|enum|trait)\s+(\w+)`)},
	},
	"c": {
		{"function", regexp.MustCompile(`(?m)^[\w\s\*]+?\b(\w+)\s*\([^;)]*\)\s*\{`)},
	},
	"cpp": {
		{"function", regexp.MustCompile(`(?m)^[\w\s\*:<>,&]+?\b(\w+)\s*\([^;)]*\)\s*(?:const\s*)?\{`)},
		{"class", regexp.MustCompile(`(?m)^\s*(?:class|struct)\s+(\w+)`)},
	},
	"csharp": {
		{"function", regexp.MustCompile(`(?m)^\s*(?:public|protected|private|internal)\s+(?:static\s+)?(?:async\s+)?[\w<>\[\],\s]+\s+(\w+)\s*\([^)]*\)\s*\{`)},
		{"class", regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:abstract\s+|sealed\s+)?(?:class|interface|struct)\s+(\w+)`)},
	},
	"php": {
		{"function", regexp.MustCompile(`(?m)^\s*(?:public\s+|protected\s+|private\s+)?(?:static\s+)?function\s+(\w+)\s*\(`)},
		{"class", regexp.MustCompile(`(?m)^\s*(?:abstract\s+|final\s+)?class\s+(\w+)`)},
	},
	"swift": {
		{"function", regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|internal\s+)?func\s+(\w+)`)},
		{"class", regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:class|struct|enum|protocol)\s+(\w+)`)},
	},
	"kotlin": {
		{"function", regexp.MustCompile(`(?m)^\s*(?:suspend\s+)?fun\s+(\w+)`)},
		{"class", regexp.MustCompile(`(?m)^\s*(?:data\s+|sealed\s+|abstract\s+)?class\s+(\w+)`)},
	},
}

// ExtractSignatures scans source text for declarations in the given
// language. Unknown languages yield nil.
func ExtractSignatures(source, language string) []Signature {
	patterns, ok := signaturePatterns[language]
	if !ok {
		return nil
	}
	var sigs []Signature
	seen := make(map[string]bool)
	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatch(source, -1) {
			line := firstDeclLine(m[0])
			key := p.kind + ":" + m[1] + ":" + line
			if seen[key] {
				continue
			}
			seen[key] = true
			sigs = append(sigs, Signature{Kind: p.kind, Name: m[1], Line: line})
		}
	}
	return sigs
}

func firstDeclLine(match string) string {
	for i := 0; i < len(match); i++ {
		if match[i] == '\n' {
			match = match[:i]
			break
		}
	}
	// Trim leading indentation.
	j := 0
	for j < len(match) && (match[j] == ' ' || match[j] == '\t') {
		j++
	}
	return match[j:]
}
