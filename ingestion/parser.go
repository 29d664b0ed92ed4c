package ingestion

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/quillnotes/quill/core"
)

// importExtensions lists the file extensions recognized as notes.
var importExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// parseFile reads a note file and turns it into a document.
// The id is the slash-separated path relative to the import root, so
// re-importing the same tree overwrites rather than duplicates.
func parseFile(root, path string) (*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	title, body := splitTitle(string(data))
	if title == "" {
		title = titleFromFilename(path)
	}

	return &core.Document{
		ID:    filepath.ToSlash(rel),
		Title: title,
		Body:  body,
	}, nil
}

// splitTitle extracts a leading markdown heading as the title and returns
// the remaining text as the body. Content with no leading heading keeps
// its full text as the body and an empty title.
func splitTitle(content string) (title, body string) {
	trimmed := strings.TrimLeft(content, "\n \t")
	if !strings.HasPrefix(trimmed, "#") {
		return "", strings.TrimSpace(content)
	}

	line, rest, _ := strings.Cut(trimmed, "\n")
	title = strings.TrimSpace(strings.TrimLeft(line, "#"))
	return title, strings.TrimSpace(rest)
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
