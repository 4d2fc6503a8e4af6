// Package ignore implements gitignore-style pattern matching. Pattern lines
// are compiled to regular expressions; within one ruleset the last matching
// line wins, and a leading '!' negates.
package ignore

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Pattern is a single compiled ignore line.
type Pattern struct {
	re         *regexp.Regexp
	negate     bool
	dirOnly    bool
	line       string
	lineNo     int
	components []string // slash-split pattern, used for descent checks
}

// Negate reports whether the pattern is a negation ('!' prefix).
func (p *Pattern) Negate() bool { return p.negate }

// Line returns the original pattern line.
func (p *Pattern) Line() string { return p.line }

// Ruleset is an ordered collection of compiled ignore patterns, scoped to
// the directory that owns the source ignore file. Paths passed to Match must
// be relative to that directory.
type Ruleset struct {
	patterns []*Pattern
	logger   *zap.Logger
}

// New returns an empty Ruleset.
func New(logger *zap.Logger) *Ruleset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ruleset{logger: logger}
}

// Len returns the number of compiled patterns.
func (r *Ruleset) Len() int { return len(r.patterns) }

// AddLines compiles pattern lines and appends them to the ruleset. Empty
// lines, comments, and invalid patterns are dropped.
func (r *Ruleset) AddLines(lines ...string) {
	for i, line := range lines {
		p := compile(line, len(r.patterns)+i+1, r.logger)
		if p != nil {
			r.patterns = append(r.patterns, p)
			r.logger.Debug("Compiled ignore pattern",
				zap.String("pattern", p.line),
				zap.Bool("negate", p.negate))
		}
	}
}

// AddFile reads an ignore file and compiles its lines into the ruleset.
func (r *Ruleset) AddFile(fpath string) error {
	content, err := os.ReadFile(fpath)
	if err != nil {
		return err
	}
	r.AddLines(strings.Split(string(content), "\n")...)
	r.logger.Debug("Loaded ignore file",
		zap.String("file", fpath),
		zap.Int("patterns", len(r.patterns)))
	return nil
}

// Match tests rel (slash-separated, relative to the ruleset's directory)
// against the patterns. decided is false when no pattern matched at all;
// otherwise ignored carries the verdict of the last matching pattern.
func (r *Ruleset) Match(rel string, isDir bool) (ignored, decided bool) {
	s := filepath.ToSlash(rel)
	if isDir {
		s += "/"
	}
	for _, p := range r.patterns {
		if p.re.MatchString(s) {
			decided = true
			ignored = !p.negate
		}
	}
	return ignored, decided
}

// MayMatchWithin reports whether any anchored pattern (one with a path
// separator) could still match a descendant of the given directory. Used to
// decide whether a walker should descend into an otherwise-pruned subtree.
func (r *Ruleset) MayMatchWithin(dirRel string) bool {
	dirs := strings.Split(filepath.ToSlash(dirRel), "/")
	for _, p := range r.patterns {
		if p.mayMatchWithin(dirs) {
			return true
		}
	}
	return false
}

func (p *Pattern) mayMatchWithin(dirs []string) bool {
	// Unanchored patterns never force descent; they are decided at the
	// directory itself.
	if len(p.components) < 2 {
		return false
	}
	for i, d := range dirs {
		if i >= len(p.components)-1 {
			return false // directory is already deeper than the pattern
		}
		c := p.components[i]
		if c == "**" {
			return true
		}
		if ok, err := path.Match(c, d); err != nil || !ok {
			return false
		}
	}
	return true
}

// compile translates one ignore line into a Pattern. Returns nil for empty
// lines, comments, and patterns that fail to compile.
func compile(line string, lineNo int, logger *zap.Logger) *Pattern {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	negate := false
	if strings.HasPrefix(trimmed, "!") {
		negate = true
		trimmed = strings.TrimPrefix(trimmed, "!")
	}

	dirOnly := strings.HasSuffix(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")

	rooted := strings.HasPrefix(trimmed, "/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	// A slash anywhere in the body anchors the pattern to the ruleset's
	// directory, per gitignore semantics.
	anchored := rooted || strings.Contains(trimmed, "/")

	expr := translate(trimmed)

	if dirOnly {
		expr += "/.*$"
	} else {
		expr += "(/.*)?$"
	}
	if anchored {
		expr = "^" + expr
	} else {
		expr = "^(|.*/)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		logger.Error("Invalid ignore pattern",
			zap.String("pattern", line),
			zap.Int("lineNo", lineNo),
			zap.Error(err))
		return nil
	}

	return &Pattern{
		re:         re,
		negate:     negate,
		dirOnly:    dirOnly,
		line:       line,
		lineNo:     lineNo,
		components: strings.Split(trimmed, "/"),
	}
}
