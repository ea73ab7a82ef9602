package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"citecheck/internal/content"
	"citecheck/internal/history"
)

func runCacheGet(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}

	data, found, err := c.ReadRaw(content.ID(args[0]))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no cached baseline for %s", args[0])
	}

	out := cmd.OutOrStdout()
	out.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(out)
	}
	return nil
}

func runCacheDelete(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	if err := c.Delete(content.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runCachePath(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), c.Path(content.ID(args[0])))
	return nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	ids, err := c.List()
	if err != nil {
		return err
	}

	if jsonFlag {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(ids)
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No cached baselines.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", c.Dir())
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(content.ID(historySource), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No checks recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECKED\tKIND\tRESULT\tSOURCE")
	for _, e := range entries {
		verdict := "ok"
		if !e.Result.Valid {
			verdict = e.Result.Level.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CheckedAt.Local().Format("2006-01-02 15:04:05"), e.Kind, verdict, e.SourceID)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d checks recorded, %d failed\n", stats.TotalChecks, stats.Failures)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	cmd.OutOrStdout().Write(data)
	return nil
}
