package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludePatterns skip binary downloads and paths that never carry
// contact data. A pattern starting with "*." matches that extension at any
// depth.
var defaultExcludePatterns = []string{
	"*.pdf",
	"*.jpg",
	"*.jpeg",
	"*.png",
	"*.gif",
	"*.svg",
	"*.webp",
	"*.zip",
	"*.doc",
	"*.docx",
	"*.xls",
	"*.xlsx",
	"*.mp4",
	"/wp-admin/*",
	"/wp-json/*",
	"/cart/*",
	"/checkout/*",
}

// PathMatcher filters crawl URLs by glob-style path patterns. "/blog/*"
// also matches multi-level paths like "/blog/deep/path".
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher from glob patterns (e.g. "/blog/*",
// "*.pdf"). Falls back to the default patterns if none are provided.
func NewPathMatcher(patterns []string) *PathMatcher {
	if len(patterns) == 0 {
		patterns = defaultExcludePatterns
	}
	return &PathMatcher{patterns: patterns}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded checks whether a URL matches any exclude pattern.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	return m.isPathExcluded(u.Path)
}

// isPathExcluded checks a URL path against all patterns.
func (m *PathMatcher) isPathExcluded(urlPath string) bool {
	urlPath = strings.ToLower(urlPath)
	for _, pattern := range m.patterns {
		pattern = strings.ToLower(pattern)
		if matchSegmented(pattern, urlPath) {
			return true
		}
	}
	return false
}

// matchSegmented matches urlPath against one pattern. Extension patterns
// match the suffix; "/dir/*" matches everything under /dir.
func matchSegmented(pattern, urlPath string) bool {
	if ext, ok := strings.CutPrefix(pattern, "*."); ok {
		return strings.HasSuffix(urlPath, "."+ext)
	}

	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}

	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	return false
}
