// Package detect provides stateless pattern classifiers shared by
// checks: stub patterns, error keywords, function-signature extraction,
// domain signals, goal-keyword extraction, and the trivial-prompt
// filter (spec §4.9).
package detect

import (
	"regexp"
	"strings"

	"github.com/antigravity-dev/hookrunner/internal/state"
)

// stubPatterns are byte patterns that mark unfinished code (spec §4.4
// stub_detector, §4.9).
var stubPatterns = []string{
	"TODO",
	"FIXME",
	"pass  # stub",
	"raise NotImplementedError",
	"panic(\"not implemented\")",
	"panic(\"unimplemented\")",
}

// ContainsStubPattern reports whether content contains any recognized
// stub marker.
func ContainsStubPattern(content string) (string, bool) {
	for _, p := range stubPatterns {
		if strings.Contains(content, p) {
			return p, true
		}
	}
	return "", false
}

// errorKeywords identify error-shaped output (spec §4.9).
var errorKeywords = []string{
	"Error:",
	"Exception:",
	"Traceback",
	"failed",
	"Permission denied",
}

// ContainsErrorKeyword reports whether text looks like an error.
func ContainsErrorKeyword(text string) (string, bool) {
	for _, k := range errorKeywords {
		if strings.Contains(text, k) {
			return k, true
		}
	}
	return "", false
}

// backupFilePattern matches editor/tool backup file suffixes.
var backupFilePattern = regexp.MustCompile(`(\.bak|\.orig|~)$`)

// IsBackupFile reports whether path looks like a backup file (spec
// §4.2 backup-file creation reducer).
func IsBackupFile(path string) bool {
	return backupFilePattern.MatchString(path)
}

// versionSuffixPattern matches filenames like "foo_v2.go" or
// "foo_final2.py" (spec §4.2 version-suffixed filename reducer).
var versionSuffixPattern = regexp.MustCompile(`(?i)_(v\d+|final\d*|copy\d*|new\d*)(\.[a-zA-Z0-9]+)?$`)

// IsVersionSuffixedFilename reports whether the file stem carries a
// version-ish suffix.
func IsVersionSuffixedFilename(path string) bool {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	ext := ""
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		ext = base[i:]
		base = base[:i]
	}
	return versionSuffixPattern.MatchString(base + ext)
}

// stopWords are filtered out when extracting goal keywords (spec §4.9).
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "of": true, "in": true,
	"on": true, "for": true, "and": true, "or": true, "is": true, "it": true,
	"with": true, "this": true, "that": true, "i": true, "we": true,
	"please": true, "can": true, "you": true, "me": true, "my": true,
}

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// ExtractGoalKeywords tokenizes prompt, drops stop words, and returns
// at most 10 keywords, lowercased (spec §3.1: "goal_keywords (≤10
// stop-word-filtered tokens)").
func ExtractGoalKeywords(prompt string) []string {
	words := wordPattern.FindAllString(strings.ToLower(prompt), -1)
	var out []string
	seen := map[string]bool{}
	for _, w := range words {
		if stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) >= 10 {
			break
		}
	}
	return out
}

// KeywordOverlapRatio returns the fraction of goalKeywords that also
// appear in the tokenized prompt (spec §4.4 goal_anchor: "keyword-
// overlap ratio < 10%").
func KeywordOverlapRatio(goalKeywords []string, prompt string) float64 {
	if len(goalKeywords) == 0 {
		return 1.0 // no anchor set yet — never flag drift
	}
	promptWords := map[string]bool{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(prompt), -1) {
		promptWords[w] = true
	}
	hits := 0
	for _, k := range goalKeywords {
		if promptWords[k] {
			hits++
		}
	}
	return float64(hits) / float64(len(goalKeywords))
}

// trivialPromptPattern matches short acknowledgement prompts that
// should not charge turn_count against drift detection (spec §4.9,
// §4.4 trivial_prompt_filter).
var trivialPromptPattern = regexp.MustCompile(`(?i)^\s*(yes|no|ok|okay|thanks|thank you|commit|push)\s*\.?\s*$`)

// IsTrivialPrompt reports whether prompt is a one-word acknowledgement.
func IsTrivialPrompt(prompt string) bool {
	return trivialPromptPattern.MatchString(prompt)
}

// domainSignals maps keyword -> domain, used to accumulate domain
// confidence (spec §3.1 Domain, §4.9 domain-signal matcher).
var domainSignals = map[string]state.Domain{
	"docker": state.DomainInfrastructure, "kubernetes": state.DomainInfrastructure,
	"terraform": state.DomainInfrastructure, "deploy": state.DomainInfrastructure,
	"ci/cd": state.DomainInfrastructure, "helm": state.DomainInfrastructure,
	"function": state.DomainDevelopment, "class": state.DomainDevelopment,
	"refactor": state.DomainDevelopment, "bug": state.DomainDevelopment,
	"implement": state.DomainDevelopment, "test": state.DomainDevelopment,
	"explore": state.DomainExploration, "understand": state.DomainExploration,
	"investigate": state.DomainExploration, "explain": state.DomainExploration,
	"dataset": state.DomainData, "csv": state.DomainData, "schema": state.DomainData,
	"query": state.DomainData, "pipeline": state.DomainData,
}

// domainPriority is the fixed tie-break order ClassifyDomain walks when
// two or more domains score an equal number of hits, so the result
// doesn't depend on Go's randomized map iteration order.
var domainPriority = []state.Domain{
	state.DomainInfrastructure,
	state.DomainDevelopment,
	state.DomainExploration,
	state.DomainData,
}

// ClassifyDomain scans text for domain signal keywords and returns the
// domain with the most hits plus a confidence in [0,1] (hits / total
// signal words found). Returns DomainUnknown, 0 if nothing matched.
func ClassifyDomain(text string) (state.Domain, float64) {
	lower := strings.ToLower(text)
	counts := map[state.Domain]int{}
	total := 0
	for kw, dom := range domainSignals {
		if strings.Contains(lower, kw) {
			counts[dom]++
			total++
		}
	}
	if total == 0 {
		return state.DomainUnknown, 0
	}
	best := state.DomainUnknown
	bestCount := 0
	for _, dom := range domainPriority {
		if c := counts[dom]; c > bestCount {
			best = dom
			bestCount = c
		}
	}
	return best, float64(bestCount) / float64(total)
}
