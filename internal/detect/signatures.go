package detect

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"regexp"
	"strings"
)

// Signature is a normalized function/method signature independent of
// source language, used by the gap detector and integration gate to
// compare "defined" vs "called" (spec §4.4 gap_detector, integration_gate;
// Open Question resolution in the expanded component notes: AST is
// authoritative for .go files, the regex/token extractor is authoritative
// for every other extension).
type Signature struct {
	Name string
	File string
	Line int
}

// goFuncPattern is the fallback used only if go/parser fails to parse a
// .go file (e.g. mid-edit syntax error); it never overrides a
// successful AST parse.
var goFuncPattern = regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// genericFuncPatterns covers the non-Go languages this tool observes in
// practice: Python, JS/TS, shell. Each pattern's first capture group is
// the function name.
var genericFuncPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),                                  // python
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`), // js/ts
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s*)?\(`), // js/ts arrow
	regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*\(\)\s*\{`),                                  // shell
}

// ExtractSignatures returns every top-level function/method name
// defined in content. For .go files it parses the AST and falls back to
// regex only on a parse error; for every other extension it uses the
// regex/token extractor directly.
func ExtractSignatures(path string, content string) []Signature {
	if filepath.Ext(path) == ".go" {
		if sigs, ok := extractGoAST(path, content); ok {
			return sigs
		}
		return extractWithPattern(path, content, goFuncPattern)
	}

	var out []Signature
	for _, pat := range genericFuncPatterns {
		out = append(out, extractWithPattern(path, content, pat)...)
	}
	return out
}

func extractGoAST(path string, content string) ([]Signature, bool) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.SkipObjectResolution)
	if err != nil {
		return nil, false
	}

	var out []Signature
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		pos := fset.Position(fd.Name.NamePos)
		name := fd.Name.Name
		if fd.Recv != nil && len(fd.Recv.List) > 0 {
			name = recvTypeName(fd.Recv.List[0].Type) + "." + name
		}
		out = append(out, Signature{Name: name, File: path, Line: pos.Line})
	}
	return out, true
}

// recvTypeName strips pointer/generic decoration to recover the bare
// receiver type name (e.g. "*Store[T]" -> "Store").
func recvTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvTypeName(t.X)
	case *ast.IndexExpr:
		return recvTypeName(t.X)
	case *ast.IndexListExpr:
		return recvTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

func extractWithPattern(path, content string, pat *regexp.Regexp) []Signature {
	var out []Signature
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if m := pat.FindStringSubmatch(line); m != nil {
			out = append(out, Signature{Name: m[1], File: path, Line: i + 1})
		}
	}
	return out
}
