package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeclip/pkg/aggregate"
	"codeclip/pkg/logging"
	"codeclip/pkg/version"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var logger *zap.Logger

// RootCmd is the base command; running it performs the aggregation.
var RootCmd = &cobra.Command{
	Use:   "codeclip [PATHS...]",
	Short: "codeclip copies the text files under one or more paths to the clipboard",
	Long: `codeclip walks the given paths (default: the current directory), filters
files by extension, ignore rules, depth and size, and aggregates their
contents into a single block suitable for pasting into a language model
prompt. The result goes to the clipboard unless --stdout or --dry-run is
given.`,
	Version:      version.Get().Version,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runRoot,
}

// Execute wires the logger in and runs the root command.
func Execute(l *zap.Logger) error {
	logger = l
	return RootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Filtering
	RootCmd.Flags().StringSliceP("include", "i", nil, "Only include files with these extensions (comma-separated, e.g. go,md)")
	RootCmd.Flags().StringSliceP("exclude", "e", nil, "Exclude files with these extensions (comma-separated); wins over --include")
	RootCmd.Flags().StringSlice("unignore", nil, "Glob patterns that force inclusion despite ignore rules (comma-separated)")
	RootCmd.Flags().StringSlice("exclude-file", nil, "File-name globs that are always skipped (comma-separated)")
	RootCmd.Flags().Bool("use-gitignore", true, "Respect .gitignore files")
	RootCmd.Flags().String("global-gitignore", "", "Path to a global ignore file")
	RootCmd.Flags().Int("depth", -1, "Maximum directory depth below each root (-1 for no limit)")
	RootCmd.Flags().Int("max-size-mb", 10, "Total size budget for the aggregated output, in megabytes")

	// Output
	RootCmd.Flags().String("format", "default", "Output format: default, markdown, or json")
	RootCmd.Flags().Bool("dry-run", false, "List the files that would be copied without touching the clipboard")
	RootCmd.Flags().Bool("stats", false, "Print run statistics")
	RootCmd.Flags().Bool("stdout", false, "Print the aggregate to stdout instead of the clipboard")
	RootCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	RootCmd.Flags().BoolP("version", "V", false, "Print version information")

	for _, name := range []string{
		"include", "exclude", "unignore", "exclude-file", "use-gitignore",
		"global-gitignore", "depth", "max-size-mb", "format", "dry-run",
		"stats", "stdout", "verbose",
	} {
		_ = viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), RootCmd.Flags().Lookup(name))
	}

	viper.SetDefault("use_gitignore", true)
	viper.SetDefault("depth", -1)
	viper.SetDefault("max_size_mb", 10)
	viper.SetDefault("format", "default")
}

// initConfig layers defaults < config file < CODECLIP_* environment < flags,
// searching ~/.config/codeclip/config.toml and the current directory.
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "codeclip"))
	}
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.SetEnvPrefix("CODECLIP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	verbose := viper.GetBool("verbose")
	if verbose {
		l, err := logging.Setup(true, "codeclip", version.Get().Version)
		if err != nil {
			logger.Warn("Verbose logger setup failed, keeping default", zap.Error(err))
		} else {
			_ = logger.Sync()
			logger = l
		}
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	format, err := aggregate.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}

	cfg := &aggregate.RunConfig{
		Roots:            roots,
		IncludeExts:      aggregate.NormalizeExts(viper.GetStringSlice("include")),
		ExcludeExts:      aggregate.NormalizeExts(viper.GetStringSlice("exclude")),
		UnignorePatterns: viper.GetStringSlice("unignore"),
		ExcludeFiles:     viper.GetStringSlice("exclude_file"),
		UseGitignore:     viper.GetBool("use_gitignore"),
		GlobalIgnore:     viper.GetString("global_gitignore"),
		MaxDepth:         viper.GetInt("depth"),
		MaxTotalBytes:    int64(viper.GetInt("max_size_mb")) * 1024 * 1024,
		Format:           format,
		DryRun:           viper.GetBool("dry_run"),
		ShowStats:        viper.GetBool("stats"),
		Verbose:          verbose,
	}

	out, err := aggregate.Run(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		fmt.Print(out.Listing)
		if cfg.ShowStats {
			fmt.Print(aggregate.RenderStats(out.Stats))
		}
		return nil
	}

	if cfg.ShowStats {
		fmt.Fprint(os.Stderr, aggregate.RenderStats(out.Stats))
	}

	if viper.GetBool("stdout") {
		fmt.Print(out.Text)
		return nil
	}

	if err := clipboard.WriteAll(out.Text); err != nil {
		// The aggregate is still printed so the run's work is not lost, but
		// the failed delivery is surfaced as the run's error.
		fmt.Println("--- Output (clipboard failed) ---")
		fmt.Print(out.Text)
		return fmt.Errorf("write clipboard: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Copied content of %d file(s) to clipboard.\n", out.Stats.FileCount)
	return nil
}
