package detect

import "testing"

func TestExtractSignatures_GoAST(t *testing.T) {
	src := `package foo

func Bar(x int) int { return x + 1 }

type Store struct{}

func (s *Store) Save() error { return nil }
`
	sigs := ExtractSignatures("foo.go", src)
	names := map[string]bool{}
	for _, s := range sigs {
		names[s.Name] = true
	}
	if !names["Bar"] {
		t.Errorf("expected Bar in %v", names)
	}
	if !names["Store.Save"] {
		t.Errorf("expected Store.Save in %v", names)
	}
}

func TestExtractSignatures_GoParseErrorFallsBackToRegex(t *testing.T) {
	src := "func Broken(x int {\n  return x\n"
	sigs := ExtractSignatures("broken.go", src)
	if len(sigs) != 1 || sigs[0].Name != "Broken" {
		t.Fatalf("expected fallback regex to recover Broken, got %+v", sigs)
	}
}

func TestExtractSignatures_Python(t *testing.T) {
	src := "def handle_request(req):\n    pass\n\ndef other():\n    return None\n"
	sigs := ExtractSignatures("handler.py", src)
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d: %+v", len(sigs), sigs)
	}
}

func TestUncalledDefinitions(t *testing.T) {
	defined := []Signature{{Name: "Helper", File: "a.go", Line: 1}, {Name: "main", File: "a.go", Line: 5}}
	haystacks := []string{"func main() {\n  doSomethingElse()\n}"}
	uncalled := UncalledDefinitions(defined, haystacks)
	if len(uncalled) != 1 || uncalled[0].Name != "Helper" {
		t.Fatalf("expected only Helper uncalled, got %+v", uncalled)
	}
}

func TestExportedButUnintegrated(t *testing.T) {
	sigs := []Signature{{Name: "Store.Save"}, {Name: "helperFunc"}, {Name: "Public"}}
	out := ExportedButUnintegrated(sigs)
	if len(out) != 2 {
		t.Fatalf("expected 2 exported sigs, got %+v", out)
	}
}
