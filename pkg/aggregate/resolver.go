package aggregate

import (
	"path"
	"strings"

	"codeclip/pkg/ignore"

	"go.uber.org/zap"
)

// Verdict is the resolver's answer for a single filesystem entry.
type Verdict int

const (
	Keep Verdict = iota
	Skip
)

// Decision carries the verdict plus whether a directory Skip came from the
// built-in default table or the dotfile rule. Only those skips may still be
// descended into when an anchored un-ignore pattern targets a descendant.
type Decision struct {
	Verdict     Verdict
	DefaultRule bool
}

// GitScope pairs a compiled gitignore ruleset with the directory that owns
// it. Base is slash-relative to the walk root ("" for the root itself).
type GitScope struct {
	Base  string
	Rules *ignore.Ruleset
}

// DefaultIgnoredDirs is the built-in skip table: version-control metadata,
// build outputs, and dependency caches.
var DefaultIgnoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"build":        true,
	"dist":         true,
	"__pycache__":  true,
}

// Resolver decides Keep or Skip for each entry the walker encounters. It is
// a pure function of the entry's relative path plus the configured rule
// sources; the precedence chain short-circuits at the first definitive rule.
type Resolver struct {
	cfg      *RunConfig
	defaults map[string]bool
	unignore *ignore.Ruleset
	excludes *ignore.Ruleset
	logger   *zap.Logger
}

// NewResolver compiles the user-supplied un-ignore and exclude-file globs.
// A nil defaults table selects DefaultIgnoredDirs; tests substitute their own.
func NewResolver(cfg *RunConfig, defaults map[string]bool, logger *zap.Logger) *Resolver {
	if defaults == nil {
		defaults = DefaultIgnoredDirs
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	unignore := ignore.New(logger)
	unignore.AddLines(cfg.UnignorePatterns...)

	excludes := ignore.New(logger)
	excludes.AddLines(cfg.ExcludeFiles...)

	return &Resolver{
		cfg:      cfg,
		defaults: defaults,
		unignore: unignore,
		excludes: excludes,
		logger:   logger,
	}
}

// Decide resolves one entry. rel is slash-relative to the walk root,
// underDefault marks entries inside a subtree that a default or dotfile rule
// already pruned (reachable only while chasing an anchored un-ignore
// pattern), and scopes lists the applicable gitignore rulesets nearest-first.
//
// Precedence, highest to lowest: explicit excludes, un-ignore patterns, the
// include-extension filter, gitignore rules, the built-in default table,
// dotfiles. Extension rules apply to files only; directories are never
// extension-filtered.
func (r *Resolver) Decide(rel string, isDir, underDefault bool, scopes []GitScope) Decision {
	name := path.Base(rel)

	var ext string
	if !isDir {
		ext = fileExt(name)
		if r.cfg.ExcludeExts[ext] {
			return Decision{Verdict: Skip}
		}
		if ignored, decided := r.excludes.Match(rel, false); decided && ignored {
			return Decision{Verdict: Skip}
		}
	}

	if ignored, decided := r.unignore.Match(rel, isDir); decided && ignored {
		return Decision{Verdict: Keep}
	}

	if !isDir && len(r.cfg.IncludeExts) > 0 && !r.cfg.IncludeExts[ext] {
		return Decision{Verdict: Skip}
	}

	if r.cfg.UseGitignore {
		// Nearest-ancestor ignore file wins on conflict: the first scope
		// with any matching pattern settles the gitignore layer.
		for _, sc := range scopes {
			sub := scopeRel(rel, sc.Base)
			if ignored, decided := sc.Rules.Match(sub, isDir); decided {
				if ignored {
					return Decision{Verdict: Skip}
				}
				break
			}
		}
	}

	if underDefault {
		return Decision{Verdict: Skip, DefaultRule: true}
	}

	if isDir && r.defaults[name] {
		return Decision{Verdict: Skip, DefaultRule: true}
	}

	if strings.HasPrefix(name, ".") {
		// A dotfile whose extension was explicitly asked for stays in.
		// .env never gets that escape; only an un-ignore pattern reaches it.
		if !isDir && name != ".env" && r.cfg.IncludeExts[ext] {
			return Decision{Verdict: Keep}
		}
		return Decision{Verdict: Skip, DefaultRule: true}
	}

	return Decision{Verdict: Keep}
}

// MayDescend reports whether an anchored un-ignore pattern could still match
// something under the given directory, which keeps the walker descending
// into a subtree that default or dotfile rules would otherwise prune.
func (r *Resolver) MayDescend(rel string) bool {
	return r.unignore.MayMatchWithin(rel)
}

// scopeRel rebases rel onto a gitignore scope's directory.
func scopeRel(rel, base string) string {
	if base == "" {
		return rel
	}
	return strings.TrimPrefix(rel, base+"/")
}
