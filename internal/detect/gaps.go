package detect

import "strings"

// UncalledDefinitions returns every name in defined that does not occur
// as a call-like substring anywhere in the combined body of the other
// files in the change set (spec §4.4 gap_detector: "a function is
// defined but never referenced elsewhere in the diff or repo sample
// supplied to the hook"). This is a textual heuristic, not a call
// graph — false negatives (a name that merely appears in a comment)
// are accepted per the gap_detector's documented tolerance for false
// positives over false negatives.
func UncalledDefinitions(defined []Signature, haystacks []string) []Signature {
	var out []Signature
	for _, sig := range defined {
		if sig.Name == "main" || sig.Name == "init" || strings.HasPrefix(sig.Name, "Test") {
			continue
		}
		called := false
		for _, h := range haystacks {
			if strings.Contains(h, sig.Name+"(") {
				called = true
				break
			}
		}
		if !called {
			out = append(out, sig)
		}
	}
	return out
}

// ExportedButUnintegrated filters sigs down to exported (capitalized)
// Go names, which the integration gate treats as requiring a grep
// confirmation before the turn that created them can be considered
// complete (spec §4.4 integration_gate, SPEC_FULL component notes on
// PendingIntegrationGrep).
func ExportedButUnintegrated(sigs []Signature) []Signature {
	var out []Signature
	for _, s := range sigs {
		name := s.Name
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if name == "" {
			continue
		}
		if r := name[0]; r >= 'A' && r <= 'Z' {
			out = append(out, s)
		}
	}
	return out
}
