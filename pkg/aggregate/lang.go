package aggregate

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LangTable maps file extensions to the language hint used on markdown code
// fences.
type LangTable struct {
	byExt map[string]string
}

// builtinLangs covers the common cases without any configuration.
var builtinLangs = map[string]string{
	"go":    "go",
	"rs":    "rust",
	"py":    "python",
	"js":    "javascript",
	"jsx":   "jsx",
	"ts":    "typescript",
	"tsx":   "tsx",
	"c":     "c",
	"h":     "c",
	"cpp":   "cpp",
	"hpp":   "cpp",
	"cc":    "cpp",
	"cs":    "csharp",
	"java":  "java",
	"kt":    "kotlin",
	"rb":    "ruby",
	"php":   "php",
	"swift": "swift",
	"sh":    "bash",
	"bash":  "bash",
	"zsh":   "bash",
	"ps1":   "powershell",
	"sql":   "sql",
	"html":  "html",
	"css":   "css",
	"scss":  "scss",
	"md":    "markdown",
	"json":  "json",
	"yml":   "yaml",
	"yaml":  "yaml",
	"toml":  "toml",
	"xml":   "xml",
	"proto": "protobuf",
	"lua":   "lua",
	"r":     "r",
	"pl":    "perl",
	"ex":    "elixir",
	"exs":   "elixir",
	"hs":    "haskell",
	"scala": "scala",
	"zig":   "zig",
	"vim":   "vim",
	"mk":    "makefile",
}

// langDef mirrors the linguist-style languages.yml entry shape; only the
// extension list matters here.
type langDef struct {
	Extensions []string `yaml:"extensions"`
}

// DefaultLangTable returns the built-in extension table.
func DefaultLangTable() *LangTable {
	return &LangTable{byExt: builtinLangs}
}

// LoadLangTable looks for a languages.yml override in the standard config
// locations and falls back to the built-in table. A malformed file is logged
// and ignored.
func LoadLangTable(logger *zap.Logger) *LangTable {
	if logger == nil {
		logger = zap.NewNop()
	}

	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "codeclip", "languages.yml"))
	}
	paths = append(paths, "languages.yml")

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var defs map[string]langDef
		if err := yaml.Unmarshal(data, &defs); err != nil {
			logger.Warn("Malformed languages.yml, using built-in table",
				zap.String("path", p), zap.Error(err))
			break
		}
		byExt := make(map[string]string)
		for name, def := range defs {
			hint := strings.ToLower(name)
			for _, ext := range def.Extensions {
				ext = strings.ToLower(strings.TrimPrefix(ext, "."))
				if ext != "" && byExt[ext] == "" {
					byExt[ext] = hint
				}
			}
		}
		logger.Debug("Loaded language definitions",
			zap.String("path", p), zap.Int("extensions", len(byExt)))
		return &LangTable{byExt: byExt}
	}

	return DefaultLangTable()
}

// Hint returns the fence language for an extension, empty when unknown.
func (t *LangTable) Hint(ext string) string {
	if t == nil {
		return ""
	}
	return t.byExt[ext]
}
