package aggregate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Formatter renders an accumulated result into its textual representation.
// All variants preserve record order exactly.
type Formatter interface {
	Render(res RunResult) (string, error)
}

// NewFormatter selects the formatter for the configured output format.
func NewFormatter(f Format, langs *LangTable) Formatter {
	switch f {
	case FormatMarkdown:
		return &markdownFormatter{langs: langs}
	case FormatJSON:
		return &jsonFormatter{}
	}
	return &defaultFormatter{}
}

// defaultFormatter emits each file as a header line followed by its raw
// content, files separated by a blank line.
type defaultFormatter struct{}

func (defaultFormatter) Render(res RunResult) (string, error) {
	var b strings.Builder
	for _, rec := range res.Records {
		fmt.Fprintf(&b, "--- %s ---\n", rec.Path)
		b.WriteString(rec.Content)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// markdownFormatter emits a path heading plus a fenced code block per file,
// with a language hint derived from the extension. The fence is widened past
// the longest backtick run in the content so it cannot close early.
type markdownFormatter struct {
	langs *LangTable
}

func (f *markdownFormatter) Render(res RunResult) (string, error) {
	var b strings.Builder
	for _, rec := range res.Records {
		fence := strings.Repeat("`", fenceLen(rec.Content))
		fmt.Fprintf(&b, "## %s\n\n", rec.Path)
		b.WriteString(fence)
		b.WriteString(f.langs.Hint(rec.Ext))
		b.WriteString("\n")
		b.WriteString(rec.Content)
		if !strings.HasSuffix(rec.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(fence)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// fenceLen picks a fence one backtick longer than any run in the content,
// with the usual minimum of three.
func fenceLen(content string) int {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	if longest >= 3 {
		return longest + 1
	}
	return 3
}

// jsonFormatter emits a single structured document; content is escaped per
// standard JSON string rules and round-trips byte for byte.
type jsonFormatter struct{}

type jsonFile struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
	SizeBytes int64  `json:"size_bytes"`
	Content   string `json:"content"`
}

type jsonStats struct {
	FileCount          int   `json:"file_count"`
	TotalBytes         int64 `json:"total_bytes"`
	Truncated          bool  `json:"truncated"`
	SkippedBinaryCount int   `json:"skipped_binary_count"`
}

type jsonDoc struct {
	Files []jsonFile `json:"files"`
	Stats jsonStats  `json:"stats"`
}

func (jsonFormatter) Render(res RunResult) (string, error) {
	doc := jsonDoc{
		Files: make([]jsonFile, 0, len(res.Records)),
		Stats: jsonStats{
			FileCount:          len(res.Records),
			TotalBytes:         res.TotalBytes,
			Truncated:          res.Truncated,
			SkippedBinaryCount: res.SkippedBinary,
		},
	}
	for _, rec := range res.Records {
		doc.Files = append(doc.Files, jsonFile{
			Path:      rec.Path,
			Extension: rec.Ext,
			SizeBytes: rec.Size,
			Content:   rec.Content,
		})
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json output: %w", err)
	}
	return string(out) + "\n", nil
}
