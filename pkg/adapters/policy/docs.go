package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Doc is one policy document in the knowledge base.
type Doc struct {
	// Source is the file name the citation points back to.
	Source string
	// Title is a readable policy title, from front matter or the file name.
	Title string
	// IssueTypes are the issue types this policy primarily applies to.
	// A doc with no issue types is only reachable through conditional
	// selection (e.g. the fraud policy) or the match-everything fallback.
	IssueTypes []string
	// Content is the policy body without front matter.
	Content string
}

// docMeta is the YAML front matter shape.
type docMeta struct {
	Title      string   `mapstructure:"title"`
	IssueTypes []string `mapstructure:"issue_types"`
}

// LoadDocs reads all markdown policy documents from a directory.
// Front matter (between leading "---" fences) is optional.
func LoadDocs(dir string) ([]Doc, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read policy dir: %w", err)
	}

	var docs []Doc
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read policy %s: %w", entry.Name(), err)
		}

		doc, err := ParseDoc(entry.Name(), string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse policy %s: %w", entry.Name(), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ParseDoc builds a Doc from raw markdown, extracting YAML front matter
// when present.
func ParseDoc(source, raw string) (Doc, error) {
	doc := Doc{
		Source:  source,
		Title:   strings.TrimSuffix(source, ".md"),
		Content: raw,
	}

	body, meta, err := splitFrontMatter(raw)
	if err != nil {
		return Doc{}, err
	}
	doc.Content = body

	if meta != nil {
		var m docMeta
		if err := mapstructure.Decode(meta, &m); err != nil {
			return Doc{}, fmt.Errorf("decode front matter: %w", err)
		}
		if m.Title != "" {
			doc.Title = m.Title
		}
		doc.IssueTypes = m.IssueTypes
	}

	return doc, nil
}

func splitFrontMatter(raw string) (body string, meta map[string]any, err error) {
	trimmed := strings.TrimLeft(raw, "\n")
	if !strings.HasPrefix(trimmed, "---\n") {
		return raw, nil, nil
	}

	rest := trimmed[len("---\n"):]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return raw, nil, nil
	}

	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(rest[:idx]), &parsed); err != nil {
		return "", nil, fmt.Errorf("front matter yaml: %w", err)
	}

	body = strings.TrimLeft(rest[idx+len("\n---"):], "-")
	body = strings.TrimLeft(body, "\n")
	return body, parsed, nil
}
