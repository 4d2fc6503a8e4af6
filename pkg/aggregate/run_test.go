package aggregate

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// specimen builds the canonical project tree used across run tests.
func specimen(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.rs":           "0123456789",
		"b.md":           "abcdefghij",
		".git/config":    "[core]",
		"target/debug/x": "\x00\x01\x02",
	})
	return dir
}

func TestRunIncludeFilterScenario(t *testing.T) {
	cfg := baseConfig(specimen(t))
	cfg.IncludeExts = NormalizeExts([]string{"rs"})

	out, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Result.Records) != 1 {
		t.Fatalf("records = %+v", out.Result.Records)
	}
	rec := out.Result.Records[0]
	if filepath.Base(rec.Path) != "a.rs" || rec.Content != "0123456789" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if out.Result.Truncated {
		t.Fatal("run should not be truncated")
	}
}

func TestRunBudgetTruncation(t *testing.T) {
	cfg := baseConfig(specimen(t))
	cfg.MaxTotalBytes = 15

	out, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	// a.rs (10 bytes) fits; b.md (10 more) would exceed 15 and stops the run.
	if len(out.Result.Records) != 1 || filepath.Base(out.Result.Records[0].Path) != "a.rs" {
		t.Fatalf("records = %+v", out.Result.Records)
	}
	if !out.Result.Truncated {
		t.Fatal("budget overflow must mark the run truncated")
	}
	if out.Result.TotalBytes > cfg.MaxTotalBytes {
		t.Fatalf("total %d exceeds budget %d", out.Result.TotalBytes, cfg.MaxTotalBytes)
	}
}

func TestRunBudgetInvariant(t *testing.T) {
	for _, budget := range []int64{1, 10, 15, 21, 1000} {
		cfg := baseConfig(specimen(t))
		cfg.MaxTotalBytes = budget
		out, err := Run(cfg, nil)
		if err != nil {
			t.Fatal(err)
		}
		if out.Result.TotalBytes > budget {
			t.Fatalf("budget %d: copied %d", budget, out.Result.TotalBytes)
		}
	}
}

func TestRunReproducible(t *testing.T) {
	cfg := baseConfig(specimen(t))
	first, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(baseConfig(cfg.Roots[0]), nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Text != second.Text {
		t.Fatal("identical trees must render identical output")
	}
}

func TestRunBinaryCounting(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"note.txt": "text",
		"blob.bin": "\x00\x00\x00",
	})
	out, err := Run(baseConfig(dir), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Result.SkippedBinary != 1 {
		t.Fatalf("skipped binary = %d", out.Result.SkippedBinary)
	}
	if strings.Contains(out.Text, "blob.bin") {
		t.Fatal("binary files must not appear in rendered output")
	}
	if out.Stats.FileCount != 1 {
		t.Fatalf("stats %+v", out.Stats)
	}
}

func TestRunUnignoreOverridesGitignore(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		".gitignore": "secret.txt\n",
		"secret.txt": "s3cr3t",
		"open.txt":   "open",
	})
	cfg := baseConfig(dir)
	cfg.UnignorePatterns = []string{"secret.txt"}

	out, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "s3cr3t") {
		t.Fatal("un-ignored file missing from output")
	}
}

func TestRunDryRun(t *testing.T) {
	dir := specimen(t)
	cfg := baseConfig(dir)
	cfg.DryRun = true

	out, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "" {
		t.Fatal("dry runs must not render the aggregate")
	}
	if !strings.Contains(out.Listing, "a.rs (10 bytes)") ||
		!strings.Contains(out.Listing, "b.md (10 bytes)") {
		t.Fatalf("listing:\n%s", out.Listing)
	}
}

func TestRunJSONOutput(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"x.txt": "hi"})
	cfg := baseConfig(dir)
	cfg.Format = FormatJSON

	out, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	var doc jsonDoc
	if err := json.Unmarshal([]byte(out.Text), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Files) != 1 || doc.Files[0].Content != "hi" || doc.Files[0].SizeBytes != 2 {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestRunJSONRoundTripSkipsNonUTF8(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"good.txt":  "café au lait\n",
		"latin.txt": "caf\xe9 au lait\n",
	})
	cfg := baseConfig(dir)
	cfg.Format = FormatJSON

	out, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	var doc jsonDoc
	if err := json.Unmarshal([]byte(out.Text), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Files) != 1 || filepath.Base(doc.Files[0].Path) != "good.txt" {
		t.Fatalf("files = %+v", doc.Files)
	}
	// Decoding reconstructs the admitted content byte for byte.
	if doc.Files[0].Content != "café au lait\n" ||
		doc.Files[0].SizeBytes != int64(len(doc.Files[0].Content)) {
		t.Fatalf("round-trip mismatch: %+v", doc.Files[0])
	}
}

func TestRunMarkdownOutput(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"m.go": "package m\n"})
	cfg := baseConfig(dir)
	cfg.Format = FormatMarkdown

	out, err := Run(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Text, "```go\npackage m\n```") {
		t.Fatalf("markdown output:\n%s", out.Text)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	if _, err := Run(&RunConfig{Roots: []string{t.TempDir()}}, nil); err == nil {
		t.Fatal("zero byte budget must be rejected")
	}
	cfg := baseConfig(filepath.Join(t.TempDir(), "missing"))
	if _, err := Run(cfg, nil); err == nil {
		t.Fatal("missing root must be rejected")
	}
}

func TestRenderStats(t *testing.T) {
	st := Stats{
		FileCount:     2,
		TotalBytes:    30,
		SkippedBinary: 1,
		Truncated:     true,
		PerExt: map[string]ExtStat{
			"go": {Files: 1, Bytes: 20},
			"":   {Files: 1, Bytes: 10},
		},
	}
	out := RenderStats(st)
	for _, want := range []string{
		"Files: 2", "Total bytes: 30", "Skipped binary: 1", "Truncated: true",
		"go: 1 files, 20 bytes", "(none): 1 files, 10 bytes",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats block missing %q:\n%s", want, out)
		}
	}
}
