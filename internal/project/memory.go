package project

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MemoryEntry is one parsed lesson or skill file under .claude/memory/
// (spec §2: "the on-disk memory of lessons/skills ... is an external
// collaborator that consumes or feeds the state file"; this tool only
// reads what that collaborator has already written). Frontmatter shape
// and the "---" delimiter convention are grounded on
// pkg/prompt/skill_frontmatter.go and pkg/subagent/frontmatter.go.
type MemoryEntry struct {
	Path        string
	Title       string
	Description string
	Tags        []string
	Body        string
}

type memoryFrontmatter struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// ListMemoryEntries parses every *.md file directly under MemoryDir()
// that carries YAML frontmatter. Files without a recognized frontmatter
// block are skipped rather than erroring, since the memory directory is
// maintained by an external collaborator whose contents aren't fully
// within this tool's control.
func (c *Context) ListMemoryEntries() ([]MemoryEntry, error) {
	dir := c.MemoryDir()
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []MemoryEntry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		entry, ok := parseMemoryEntry(path, data)
		if !ok {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// parseMemoryEntry splits the "---"-delimited YAML frontmatter from the
// body and decodes it, falling back to the file's base name for Title
// when frontmatter omits "name" (mirrors deriveSkillName's directory
// fallback, adapted to a flat lessons directory).
func parseMemoryEntry(path string, data []byte) (MemoryEntry, bool) {
	content := string(data)
	if !strings.HasPrefix(content, "---") {
		return MemoryEntry{}, false
	}
	rest := strings.TrimPrefix(content[3:], "\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return MemoryEntry{}, false
	}
	yamlPart := rest[:end]
	body := strings.TrimSpace(strings.TrimPrefix(rest[end+4:], "\n"))

	var fm memoryFrontmatter
	if err := yaml.Unmarshal([]byte(yamlPart), &fm); err != nil {
		return MemoryEntry{}, false
	}

	title := fm.Name
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return MemoryEntry{
		Path:        path,
		Title:       title,
		Description: fm.Description,
		Tags:        fm.Tags,
		Body:        body,
	}, true
}
