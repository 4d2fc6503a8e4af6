package aggregate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"codeclip/pkg/ignore"

	"go.uber.org/zap"
)

// Candidate is a file discovered during the walk, not yet classified.
type Candidate struct {
	Path      string // path joined from the root argument
	Rel       string // slash-relative to its root
	RootIndex int    // position of the root in RunConfig.Roots
	Depth     int    // direct children of a root are depth 1
	Size      int64
}

// frame is one directory being traversed, with its entries pre-read in
// lexicographic order and the gitignore scopes applicable beneath it.
type frame struct {
	dir          string
	rel          string // "" for the root itself
	depth        int    // depth of the directory itself; a root is 0
	rootIndex    int
	entries      []fs.DirEntry
	next         int
	underDefault bool
	scopes       []GitScope // nearest-first
}

// Walker produces candidates one at a time via Next. Traversal is
// depth-first per root, roots in the order given, entries in lexicographic
// order, so the sequence is reproducible across runs and platforms. A Walker
// is single-use; build a fresh one for each traversal.
type Walker struct {
	cfg     *RunConfig
	res     *Resolver
	logger  *zap.Logger
	rootIdx int
	stack   []*frame
}

// NewWalker validates that every root exists and returns a walker positioned
// before the first candidate. A missing root is a fatal configuration error.
func NewWalker(cfg *RunConfig, res *Resolver, logger *zap.Logger) (*Walker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, root := range cfg.Roots {
		if _, err := os.Stat(root); err != nil {
			return nil, fmt.Errorf("root path %s: %w", root, err)
		}
	}
	return &Walker{cfg: cfg, res: res, logger: logger}, nil
}

// Next returns the next candidate file in walk order, or ok=false when the
// traversal is exhausted. Unreadable directories are logged and skipped;
// they never abort the walk.
func (w *Walker) Next() (Candidate, bool) {
	for {
		if len(w.stack) == 0 {
			if w.rootIdx >= len(w.cfg.Roots) {
				return Candidate{}, false
			}
			if c, yielded := w.openRoot(w.rootIdx); yielded {
				w.rootIdx++
				return c, true
			}
			w.rootIdx++
			continue
		}

		f := w.stack[len(w.stack)-1]
		if f.next >= len(f.entries) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		e := f.entries[f.next]
		f.next++

		name := e.Name()
		rel := name
		if f.rel != "" {
			rel = f.rel + "/" + name
		}
		full := filepath.Join(f.dir, name)

		// Symbolic links are never followed into directories; a link to a
		// regular file is still a candidate.
		size := int64(-1)
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			st, err := os.Stat(full)
			if err != nil {
				w.logger.Warn("Cannot resolve symlink", zap.String("path", full), zap.Error(err))
				continue
			}
			if st.IsDir() {
				w.logger.Debug("Not following symlinked directory", zap.String("path", full))
				continue
			}
			isDir = false
			size = st.Size()
		}

		d := w.res.Decide(rel, isDir, f.underDefault, f.scopes)

		if isDir {
			under := f.underDefault
			if d.Verdict == Skip {
				if !d.DefaultRule || !w.res.MayDescend(rel) {
					w.logger.Debug("Pruning directory", zap.String("path", full))
					continue
				}
				// An anchored un-ignore pattern targets this subtree; keep
				// descending, but everything inside stays skipped unless the
				// pattern matches it.
				under = true
			}
			childDepth := f.depth + 1
			if w.cfg.MaxDepth >= 0 && childDepth > w.cfg.MaxDepth {
				w.logger.Debug("Depth limit reached", zap.String("path", full), zap.Int("depth", childDepth))
				continue
			}
			w.pushDir(full, rel, childDepth, f.rootIndex, under, f.scopes)
			continue
		}

		if d.Verdict == Skip {
			continue
		}
		if size < 0 {
			info, err := e.Info()
			if err != nil {
				w.logger.Warn("Cannot stat file", zap.String("path", full), zap.Error(err))
				continue
			}
			size = info.Size()
		}
		return Candidate{
			Path:      full,
			Rel:       rel,
			RootIndex: f.rootIndex,
			Depth:     f.depth + 1,
			Size:      size,
		}, true
	}
}

// openRoot starts traversal of the next root. A root that is a plain file is
// resolved and yielded directly (yielded=true); a directory root pushes a
// frame and yields nothing.
func (w *Walker) openRoot(idx int) (Candidate, bool) {
	root := w.cfg.Roots[idx]
	info, err := os.Stat(root)
	if err != nil {
		w.logger.Warn("Cannot access root", zap.String("path", root), zap.Error(err))
		return Candidate{}, false
	}

	if !info.IsDir() {
		name := path.Base(filepath.ToSlash(root))
		if d := w.res.Decide(name, false, false, nil); d.Verdict == Skip {
			w.logger.Debug("Root file skipped by filters", zap.String("path", root))
			return Candidate{}, false
		}
		return Candidate{Path: root, Rel: name, RootIndex: idx, Depth: 0, Size: info.Size()}, true
	}

	var scopes []GitScope
	if w.cfg.UseGitignore && w.cfg.GlobalIgnore != "" {
		if rs := w.loadIgnoreFile(w.cfg.GlobalIgnore); rs != nil {
			scopes = append(scopes, GitScope{Base: "", Rules: rs})
		}
	}
	w.pushDir(root, "", 0, idx, false, scopes)
	return Candidate{}, false
}

// pushDir reads a directory and pushes its frame, loading the directory's
// own .gitignore as the nearest scope when present.
func (w *Walker) pushDir(dir, rel string, depth, rootIndex int, underDefault bool, scopes []GitScope) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("Cannot read directory", zap.String("path", dir), zap.Error(err))
		return
	}
	if w.cfg.UseGitignore {
		giPath := filepath.Join(dir, ".gitignore")
		if _, err := os.Stat(giPath); err == nil {
			if rs := w.loadIgnoreFile(giPath); rs != nil {
				scopes = append([]GitScope{{Base: rel, Rules: rs}}, scopes...)
			}
		}
	}
	w.stack = append(w.stack, &frame{
		dir:          dir,
		rel:          rel,
		depth:        depth,
		rootIndex:    rootIndex,
		entries:      entries,
		underDefault: underDefault,
		scopes:       scopes,
	})
}

func (w *Walker) loadIgnoreFile(fpath string) *ignore.Ruleset {
	rs := ignore.New(w.logger)
	if err := rs.AddFile(fpath); err != nil {
		w.logger.Warn("Cannot read ignore file", zap.String("path", fpath), zap.Error(err))
		return nil
	}
	return rs
}
