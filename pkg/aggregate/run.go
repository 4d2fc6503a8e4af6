package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// RunOutput is everything a run produced: the formatted aggregate (empty for
// dry runs), the dry-run listing, and the raw result plus statistics.
type RunOutput struct {
	Text    string
	Listing string
	Result  RunResult
	Stats   Stats
}

// Run executes one aggregation pass: walk, classify, accumulate, format.
// The pass is a single linear pull loop; traversal order alone determines
// output order. Delivery (clipboard or stdout) is the caller's concern.
func Run(cfg *RunConfig, logger *zap.Logger) (*RunOutput, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resolver := NewResolver(cfg, nil, logger)
	walker, err := NewWalker(cfg, resolver, logger)
	if err != nil {
		return nil, err
	}
	classifier := NewClassifier(logger)
	acc := NewAccumulator(cfg.MaxTotalBytes)

	for {
		cand, ok := walker.Next()
		if !ok {
			break
		}
		rec, err := classifier.Classify(cand, !cfg.DryRun)
		if err != nil {
			logger.Warn("Skipping non-UTF-8 or unreadable file", zap.String("path", cand.Path), zap.Error(err))
			continue
		}
		acc.Offer(rec)
		if acc.Truncated() {
			logger.Debug("Size budget reached, stopping admission",
				zap.Int64("budget", cfg.MaxTotalBytes),
				zap.String("stoppedAt", cand.Path))
			break
		}
	}

	out := &RunOutput{Result: acc.Result(), Stats: acc.Stats()}

	if cfg.DryRun {
		out.Listing = renderListing(out.Result)
		return out, nil
	}

	var langs *LangTable
	if cfg.Format == FormatMarkdown {
		langs = LoadLangTable(logger)
	}
	text, err := NewFormatter(cfg.Format, langs).Render(out.Result)
	if err != nil {
		return nil, err
	}
	out.Text = text
	return out, nil
}

// renderListing prints the dry-run preview: the files a normal run would
// admit, with sizes, in walk order.
func renderListing(res RunResult) string {
	var b strings.Builder
	for _, rec := range res.Records {
		fmt.Fprintf(&b, "%s (%d bytes)\n", rec.Path, rec.Size)
	}
	if res.Truncated {
		b.WriteString("... size budget reached, remaining files omitted\n")
	}
	return b.String()
}

// RenderStats formats the statistics block.
func RenderStats(st Stats) string {
	var b strings.Builder
	b.WriteString("--- Stats ---\n")
	fmt.Fprintf(&b, "Files: %d\n", st.FileCount)
	fmt.Fprintf(&b, "Total bytes: %d\n", st.TotalBytes)
	fmt.Fprintf(&b, "Skipped binary: %d\n", st.SkippedBinary)
	fmt.Fprintf(&b, "Truncated: %t\n", st.Truncated)
	if len(st.PerExt) == 0 {
		return b.String()
	}
	b.WriteString("By extension:\n")
	exts := make([]string, 0, len(st.PerExt))
	for ext := range st.PerExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		label := ext
		if label == "" {
			label = "(none)"
		}
		s := st.PerExt[ext]
		fmt.Fprintf(&b, "  %s: %d files, %d bytes\n", label, s.Files, s.Bytes)
	}
	return b.String()
}
