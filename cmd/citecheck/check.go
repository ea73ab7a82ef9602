package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"citecheck/internal/behavior"
	"citecheck/internal/cache"
	"citecheck/internal/content"
	"citecheck/internal/gitsource"
	"citecheck/internal/history"
	"citecheck/internal/httpsource"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
	addColor   = color.New(color.FgGreen)
	delColor   = color.New(color.FgRed)
	metaColor  = color.New(color.Bold)
)

// outcome is what a check prints.
type outcome struct {
	ID                 content.ID      `json:"id"`
	Kind               string          `json:"kind"`
	Target             string          `json:"target"`
	Same               bool            `json:"same"`
	Result             behavior.Result `json:"result"`
	AnnotationRequired bool            `json:"annotationRequired"`
	Diff               string          `json:"diff,omitempty"`
	RunID              string          `json:"runId,omitempty"`
}

func runGit(cmd *cobra.Command, args []string) error {
	src, err := gitsource.New(cfg.ReposDir(), args[0], revFlag, args[1])
	if err != nil {
		return err
	}
	src.CurrentRevision = currentRevFlag
	src.Logger = logger

	cacheBehavior, err := cache.ParseBehavior(cacheFlag)
	if err != nil {
		return err
	}
	c, err := openCache()
	if err != nil {
		return err
	}

	cmp, err := src.GetWithCache(c, cacheBehavior)
	if err != nil {
		return fmt.Errorf("checking %s: %w", args[0], err)
	}

	target := fmt.Sprintf("%s@%s:%s", src.Remote, src.Revision, src.Pattern)
	return finish(cmd, src.ID(), "git", target, cmp, cmp.Diff.Unified())
}

func runHTTP(cmd *cobra.Command, args []string) error {
	var match *httpsource.MatchExpression
	if matchFlag != "" {
		m, err := httpsource.ParseMatchExpression(matchFlag)
		if err != nil {
			return err
		}
		match = &m
	}

	src, err := httpsource.New(args[0], match)
	if err != nil {
		return err
	}
	src.Client = &http.Client{Timeout: cfg.HTTP.Timeout}
	src.UserAgent = cfg.HTTP.UserAgent
	src.Logger = logger

	cacheBehavior, err := cache.ParseBehavior(cacheFlag)
	if err != nil {
		return err
	}
	c, err := openCache()
	if err != nil {
		return err
	}

	cmp, err := src.GetWithCache(c, cacheBehavior)
	if err != nil {
		return fmt.Errorf("checking %s: %w", args[0], err)
	}

	target := src.URL.String() + " " + src.Match.String()
	return finish(cmd, src.ID(), "http", target, cmp, cmp.Diff.Unified)
}

// finish validates cmp, records it and prints the verdict.
func finish(cmd *cobra.Command, id content.ID, kind, target string, cmp behavior.Comparable, diff string) error {
	level, annotation, err := localOverrides()
	if err != nil {
		return err
	}

	o := outcome{
		ID:                 id,
		Kind:               kind,
		Target:             target,
		Same:               cmp.IsSame(),
		Result:             behavior.Validate(cmp, cfg.Behavior, level),
		AnnotationRequired: cfg.Behavior.RequiresAnnotation(annotation),
		Diff:               diff,
	}
	o.RunID = record(o)

	if err := writeOutcome(cmd.OutOrStdout(), o, jsonFlag); err != nil {
		return err
	}
	if o.Result.ShouldFail {
		return errCitationFailed
	}
	return nil
}

// record appends o to the history database and returns the run ID.
// Failures are logged, not returned.
func record(o outcome) string {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logger.Warn("could not open history", "path", cfg.HistoryPath(), "error", err)
		return ""
	}
	defer store.Close()

	entry, err := store.Record(o.ID, o.Kind, o.Target, o.Same, o.Result)
	if err != nil {
		logger.Warn("could not record check", "id", o.ID, "error", err)
		return ""
	}
	return entry.RunID
}

func writeOutcome(w io.Writer, o outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	}

	switch {
	case o.Result.Valid:
		okColor.Fprint(w, "OK")
	case o.Result.ShouldFail:
		errorColor.Fprint(w, "CHANGED")
	case o.Result.ShouldReport:
		warnColor.Fprint(w, "CHANGED")
	default:
		fmt.Fprint(w, "changed")
	}
	fmt.Fprintf(w, " %s\n", o.Target)
	fmt.Fprintf(w, "  id:     %s\n", o.ID)
	fmt.Fprintf(w, "  result: %s\n", o.Result)
	if !o.Result.Valid && o.AnnotationRequired {
		fmt.Fprintln(w, "  annotation required: explain why the citation changed")
	}

	if o.Result.ShouldReport && o.Diff != "" {
		fmt.Fprintln(w)
		writeDiff(w, o.Diff)
	}
	return nil
}

func writeDiff(w io.Writer, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			metaColor.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			addColor.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			delColor.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}
