package aggregate

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleResult() RunResult {
	return RunResult{
		Records: []FileRecord{
			{Path: "a.go", Ext: "go", Size: 12, Content: "package a\n"},
			{Path: "b.md", Ext: "md", Size: 5, Content: "# doc"},
		},
		TotalBytes:    17,
		SkippedBinary: 1,
	}
}

func TestDefaultFormat(t *testing.T) {
	out, err := NewFormatter(FormatDefault, nil).Render(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	want := "--- a.go ---\npackage a\n\n\n--- b.md ---\n# doc\n\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestDefaultFormatPreservesOrder(t *testing.T) {
	out, _ := NewFormatter(FormatDefault, nil).Render(sampleResult())
	if strings.Index(out, "a.go") > strings.Index(out, "b.md") {
		t.Fatal("files out of walk order")
	}
}

func TestMarkdownFormat(t *testing.T) {
	out, err := NewFormatter(FormatMarkdown, DefaultLangTable()).Render(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "## a.go\n\n```go\npackage a\n```\n") {
		t.Fatalf("missing fenced go block:\n%s", out)
	}
	if !strings.Contains(out, "## b.md\n\n```markdown\n# doc\n```\n") {
		t.Fatalf("missing fenced markdown block:\n%s", out)
	}
}

func TestMarkdownFenceWidening(t *testing.T) {
	res := RunResult{Records: []FileRecord{
		{Path: "doc.md", Ext: "md", Size: 20, Content: "x\n```\ninner fence\n```\n"},
	}}
	out, err := NewFormatter(FormatMarkdown, DefaultLangTable()).Render(res)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "````markdown\n") || !strings.Contains(out, "\n````\n") {
		t.Fatalf("fence not widened past embedded backticks:\n%s", out)
	}
}

func TestFenceLen(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"plain", 3},
		{"has `` two", 3},
		{"has ``` three", 4},
		{"has ````` five", 6},
	}
	for _, tc := range cases {
		if got := fenceLen(tc.content); got != tc.want {
			t.Errorf("fenceLen(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}

func TestJSONFormatRoundTrip(t *testing.T) {
	res := RunResult{
		Records: []FileRecord{
			{Path: "x.txt", Ext: "txt", Size: 2, Content: "hi"},
		},
		TotalBytes: 2,
		Truncated:  true,
	}
	out, err := NewFormatter(FormatJSON, nil).Render(res)
	if err != nil {
		t.Fatal(err)
	}

	var doc jsonDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(doc.Files) != 1 {
		t.Fatalf("files = %+v", doc.Files)
	}
	f := doc.Files[0]
	if f.Path != "x.txt" || f.Extension != "txt" || f.SizeBytes != 2 || f.Content != "hi" {
		t.Fatalf("round-trip mismatch: %+v", f)
	}
	if doc.Stats.FileCount != 1 || doc.Stats.TotalBytes != 2 || !doc.Stats.Truncated {
		t.Fatalf("stats mismatch: %+v", doc.Stats)
	}
}

func TestJSONFormatEmptyRun(t *testing.T) {
	out, err := NewFormatter(FormatJSON, nil).Render(RunResult{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"files": []`) {
		t.Fatalf("empty run must render an empty array, not null:\n%s", out)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"default":  FormatDefault,
		"":         FormatDefault,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"JSON":     FormatJSON,
	} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("unknown format must error")
	}
}
