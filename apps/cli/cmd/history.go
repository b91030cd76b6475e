package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/config"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/env"
	"github.com/abdul-hamid-achik/classifyprobe/packages/history"
	"github.com/spf13/cobra"
)

var (
	historyDSNFlag    string
	historyConfigFlag string
	historySuiteFlag  string
	historyLimitFlag  int
	historyJSONFlag   bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show runs recorded with --history",
	Long: `List recent runs from the history database, newest first, or show the
case verdicts of one run. A unique prefix of a run id is enough.

The database defaults to the history setting of the config file or
CLASSIFYPROBE_HISTORY.

Examples:
  classifyprobe history --history sqlite://.classifyprobe/history.db
  classifyprobe history --suite production --limit 5
  classifyprobe history 3f2a9c`,
	Args: cobra.MaximumNArgs(1),
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyDSNFlag, "history", "", "History database, e.g. sqlite://.classifyprobe/history.db")
	historyCmd.Flags().StringVar(&historyConfigFlag, "config", getEnvString("CLASSIFYPROBE_CONFIG", ""), "Path to config file (env: CLASSIFYPROBE_CONFIG)")
	historyCmd.Flags().StringVarP(&historySuiteFlag, "suite", "s", "", "Only show runs of this suite")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Maximum number of runs to show")
	historyCmd.Flags().BoolVar(&historyJSONFlag, "json", false, "Print JSON instead of a table")
}

func historyDSN() (string, error) {
	if historyDSNFlag != "" {
		return historyDSNFlag, nil
	}
	cfg, err := config.LoadConfig(historyConfigFlag)
	if err != nil {
		return "", err
	}
	if cfg, err = cfg.ApplyEnv(env.LoadSystemEnv(env.Prefix)); err != nil {
		return "", err
	}
	if cfg.History == "" {
		return "", fmt.Errorf("no history database configured (use --history or CLASSIFYPROBE_HISTORY)")
	}
	return cfg.History, nil
}

func historyCommand(cmd *cobra.Command, args []string) error {
	dsn, err := historyDSN()
	if err != nil {
		return configError(err)
	}
	store, err := history.Open(dsn)
	if err != nil {
		return configError(err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		verdicts, err := store.Verdicts(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if historyJSONFlag {
			return writeJSON(out, verdicts)
		}
		printVerdicts(out, verdicts)
		return nil
	}

	runs, err := store.RecentRuns(cmd.Context(), historySuiteFlag, historyLimitFlag)
	if err != nil {
		return err
	}
	if historyJSONFlag {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	printRuns(out, runs)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRuns(w io.Writer, runs []history.RunRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSUITE\tENDPOINT\tPASSED\tFAILED\tINCONCLUSIVE\tSKIPPED\tDURATION\tRESULT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			shortID(r.ID), r.StartedAt.Local().Format(time.DateTime), r.Suite, r.Endpoint,
			r.Passed, r.Failed, r.Inconclusive, r.Skipped, r.Duration.Round(time.Millisecond), runStatus(r))
	}
	_ = tw.Flush()
}

func printVerdicts(w io.Writer, verdicts []history.VerdictRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tOUTCOME\tSTATUS\tTYPE\tMATCH\tSCORE\tDURATION\tMESSAGE")
	for _, v := range verdicts {
		match, score := "-", "-"
		if v.IsMatch != nil {
			match = fmt.Sprintf("%t", *v.IsMatch)
		}
		if v.MatchScore != nil {
			score = fmt.Sprintf("%.2f", *v.MatchScore)
		}
		status := "-"
		if v.StatusCode > 0 {
			status = fmt.Sprintf("%d", v.StatusCode)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Index, v.Name, v.Outcome, status, orDash(v.BusinessType), match, score,
			v.Duration.Round(time.Millisecond), v.Message)
	}
	_ = tw.Flush()
}

func runStatus(r history.RunRecord) string {
	switch {
	case r.Aborted && r.AbortReason != "":
		return "aborted (" + r.AbortReason + ")"
	case r.Success:
		return "ok"
	default:
		return "failed"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
