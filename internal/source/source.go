// Package source describes markdown files offered by a chapter source (a GitHub
// repository or a local git checkout) before they become chapters.
package source

import (
	"bufio"
	"path"
	"strings"
)

// File is one markdown file listed by a source.
type File struct {
	Name        string `json:"name"` // base name, carries the ordering key
	Path        string `json:"path"`
	SHA         string `json:"sha,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// IsMarkdown reports whether name has a .md extension (case-insensitive).
func IsMarkdown(name string) bool {
	return strings.EqualFold(path.Ext(name), ".md")
}

// Title returns the text of the first markdown heading in content, or the file name
// without its extension when there is none.
func Title(name, content string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		if heading := strings.TrimSpace(strings.TrimLeft(line, "#")); heading != "" {
			return heading
		}
	}
	return strings.TrimSuffix(name, path.Ext(name))
}
