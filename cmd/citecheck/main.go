// Package main provides the citecheck CLI.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"citecheck/internal/behavior"
	"citecheck/internal/cache"
	"citecheck/internal/config"
)

// errCitationFailed is returned when a check ends with ShouldFail set.
var errCitationFailed = errors.New("citation check failed")

var rootCmd = &cobra.Command{
	Use:   "citecheck",
	Short: "Detect drift in cited source code and web content",
	Long: `citecheck compares content you cited (a file range in a git repository or an
extract of a web page) against what is there now, and reports whether the
citation still holds.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var gitCmd = &cobra.Command{
	Use:   "git <remote> <path>",
	Short: "Check a citation of a file, line range or glob in a git repository",
	Long: `Check a citation of a path inside a git repository.

The path may carry a line range (src/lib.rs#L10-L20 or #L10-20 or #L10)
or be a glob (src/**/*.go). Line ranges cannot be combined with globs.`,
	Args: cobra.ExactArgs(2),
	RunE: runGit,
}

var httpCmd = &cobra.Command{
	Use:   "http <url>",
	Short: "Check a citation of a web page extract",
	Long: `Check a citation of web content.

Without --match the URL fragment selects the element with that id or name.
Match expressions: regex:<pattern>, css:<selector>, fragment:<id>, full.`,
	Args: cobra.ExactArgs(1),
	RunE: runHTTP,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect stored citation baselines",
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print the stored baseline for a source ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheGet,
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Forget the stored baseline for a source ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheDelete,
}

var cachePathCmd = &cobra.Command{
	Use:   "path <id>",
	Short: "Print the cache file path for a source ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runCachePath,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List source IDs with a stored baseline",
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored baseline",
	RunE:  runCacheClear,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent citation checks",
	RunE:  runHistory,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE:  runConfig,
}

var (
	configPath     string
	cacheFlag      string
	levelFlag      string
	annotationFlag string
	jsonFlag       bool
	verbose        bool

	revFlag        string
	currentRevFlag string
	matchFlag      string

	historyLimit  int
	historySource string
)

// Loaded by setup before any command runs.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultFile, "Path to the config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&jsonFlag, "json", false, "Output as JSON")

	for _, c := range []*cobra.Command{gitCmd, httpCmd} {
		c.Flags().StringVar(&cacheFlag, "cache", "enabled", "Cache behavior: enabled or ignored")
		c.Flags().StringVar(&levelFlag, "level", "", "Local level override: silent, warn or error")
		c.Flags().StringVar(&annotationFlag, "annotation", "", "Local annotation override: any or footnote")
	}

	gitCmd.Flags().StringVar(&revFlag, "rev", "", "Revision the citation refers to (branch, tag or commit)")
	gitCmd.Flags().StringVar(&currentRevFlag, "current-rev", "", "Revision to compare against (defaults to --rev)")
	gitCmd.MarkFlagRequired("rev")

	httpCmd.Flags().StringVar(&matchFlag, "match", "", "Match expression, e.g. css:h1 or regex:v(\\d+)")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of checks to list")
	historyCmd.Flags().StringVar(&historySource, "source", "", "Only list checks of this source ID")

	cacheCmd.AddCommand(cacheGetCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(gitCmd)
	rootCmd.AddCommand(httpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errCitationFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for a failed citation and 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errCitationFailed):
		return 2
	default:
		return 1
	}
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	required := cmd.Flags().Changed("config")
	loaded, err := config.Load(configPath, required)
	if err != nil {
		return err
	}
	cfg = loaded
	logger.Debug("loaded config", "path", configPath, "cite_dir", cfg.CiteDir)
	return nil
}

func openCache() (*cache.Cache, error) {
	c, err := cache.Open(cfg.CiteDir, cfg.CacheSubdir)
	if err != nil {
		return nil, err
	}
	c.Logger = logger
	return c, nil
}

// localOverrides parses --level and --annotation. Unset flags yield nil.
func localOverrides() (*behavior.Level, *behavior.Annotation, error) {
	var (
		level      *behavior.Level
		annotation *behavior.Annotation
	)
	if levelFlag != "" {
		l, err := behavior.ParseLevel(levelFlag)
		if err != nil {
			return nil, nil, err
		}
		level = &l
	}
	if annotationFlag != "" {
		a, err := behavior.ParseAnnotation(annotationFlag)
		if err != nil {
			return nil, nil, err
		}
		annotation = &a
	}
	return level, annotation, nil
}
