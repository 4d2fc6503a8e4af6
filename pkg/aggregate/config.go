package aggregate

import (
	"fmt"
	"os"
	"strings"
)

// Format selects the rendering of the aggregated output.
type Format int

const (
	FormatDefault Format = iota
	FormatMarkdown
	FormatJSON
)

// ParseFormat maps the --format flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return FormatDefault, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatDefault, fmt.Errorf("unknown format %q (want default, markdown, or json)", s)
}

func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatJSON:
		return "json"
	}
	return "default"
}

// RunConfig holds the options for one aggregation run. It is built once from
// CLI input and treated as read-only by every component.
type RunConfig struct {
	Roots []string // starting paths, in command-line order

	IncludeExts      map[string]bool // normalized extensions, no leading dot
	ExcludeExts      map[string]bool
	UnignorePatterns []string // glob rules that force inclusion
	ExcludeFiles     []string // file-name globs that are always skipped

	UseGitignore  bool
	GlobalIgnore  string // optional path to a global ignore file
	MaxDepth      int    // -1 means unlimited; direct children of a root are depth 1
	MaxTotalBytes int64

	Format    Format
	DryRun    bool
	ShowStats bool
	Verbose   bool
}

// Validate checks the configuration before any work starts. A nonexistent
// root or a non-positive byte budget is a fatal configuration error.
func (c *RunConfig) Validate() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("no root paths given")
	}
	if c.MaxTotalBytes <= 0 {
		return fmt.Errorf("size budget must be positive, got %d bytes", c.MaxTotalBytes)
	}
	for _, root := range c.Roots {
		if _, err := os.Stat(root); err != nil {
			return fmt.Errorf("root path %s: %w", root, err)
		}
	}
	return nil
}

// NormalizeExts turns raw extension arguments into the canonical lookup set:
// lower-cased, leading dots stripped, empties dropped.
func NormalizeExts(raw []string) map[string]bool {
	if len(raw) == 0 {
		return nil
	}
	exts := make(map[string]bool, len(raw))
	for _, e := range raw {
		e = strings.ToLower(strings.TrimSpace(e))
		e = strings.TrimPrefix(e, ".")
		if e != "" {
			exts[e] = true
		}
	}
	if len(exts) == 0 {
		return nil
	}
	return exts
}
