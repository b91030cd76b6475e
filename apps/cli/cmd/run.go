package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/abdul-hamid-achik/classifyprobe/packages/export/metrics"
	"github.com/abdul-hamid-achik/classifyprobe/packages/filelock"
	"github.com/abdul-hamid-achik/classifyprobe/packages/history"
	"github.com/abdul-hamid-achik/classifyprobe/packages/logger"
	"github.com/abdul-hamid-achik/classifyprobe/packages/notify"
	"github.com/abdul-hamid-achik/classifyprobe/packages/output"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a suite against the classification API",
	Long: `Send each case of a suite to the classify endpoint, one at a time, and
report whether the business name comparison came back.

A case passes when the response carries a comparison, is inconclusive when
it does not, and fails on errors or unmet expectations. Transport errors,
401/403 and 404 abort the run because every later case would fail the same
way.

Examples:
  classifyprobe run
  classifyprobe run --suite local --port 9002 --api-key $QRIS_API_KEY
  classifyprobe run --profile production
  classifyprobe run --suite ./cases.yaml --output junit --output-file report.xml
  classifyprobe run --suite ./cases.xlsx --output xlsx --output-file report.xlsx
  classifyprobe run --metrics prometheus --metrics-file classify.prom
  classifyprobe run --history sqlite://.classifyprobe/history.db --notify slack --notify-on recovery
  classifyprobe run --suite ./cases.yaml --watch`,
	Args: cobra.NoArgs,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	runFlags endpointFlags

	verboseFlag    int // 0=info, 1=-v debug, 2=-vv trace
	quietFlag      bool
	noColorFlag    bool
	outputFlag     string
	outputFileFlag string
	watchFlag      bool

	// Metrics flags
	metricsFlag     string
	metricsFileFlag string

	// Notification flags
	notifyFlag       string
	notifyOnFlag     string
	slackWebhookFlag string
	slackChannelFlag string
	teamsWebhookFlag string
)

func init() {
	runFlags.register(runCmd.Flags())

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v, -vv for more detail)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("CLASSIFYPROBE_QUIET", false), "Suppress console output; rely on the exit code (env: CLASSIFYPROBE_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("CLASSIFYPROBE_NO_COLOR", false), "Disable colored output (env: CLASSIFYPROBE_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("CLASSIFYPROBE_OUTPUT", "console"), "Output format: console, json, junit, tap, xlsx (env: CLASSIFYPROBE_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("CLASSIFYPROBE_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: CLASSIFYPROBE_OUTPUT_FILE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the suite and config files and re-run on change")

	// Metrics flags
	runCmd.Flags().StringVar(&metricsFlag, "metrics", getEnvString("CLASSIFYPROBE_METRICS", ""), "Metrics export formats: json, prometheus (env: CLASSIFYPROBE_METRICS)")
	runCmd.Flags().StringVar(&metricsFileFlag, "metrics-file", getEnvString("CLASSIFYPROBE_METRICS_FILE", ""), "Output file for metrics (env: CLASSIFYPROBE_METRICS_FILE)")

	// Notification flags
	runCmd.Flags().StringVar(&notifyFlag, "notify", getEnvString("CLASSIFYPROBE_NOTIFY", ""), "Notification services: slack, teams (env: CLASSIFYPROBE_NOTIFY)")
	runCmd.Flags().StringVar(&notifyOnFlag, "notify-on", getEnvString("CLASSIFYPROBE_NOTIFY_ON", "failure"), "When to notify: always, failure, success, recovery (env: CLASSIFYPROBE_NOTIFY_ON)")
	runCmd.Flags().StringVar(&slackWebhookFlag, "slack-webhook", getEnvString("SLACK_WEBHOOK", ""), "Slack webhook URL (env: SLACK_WEBHOOK)")
	runCmd.Flags().StringVar(&slackChannelFlag, "slack-channel", getEnvString("SLACK_CHANNEL", ""), "Slack channel override (env: SLACK_CHANNEL)")
	runCmd.Flags().StringVar(&teamsWebhookFlag, "teams-webhook", getEnvString("TEAMS_WEBHOOK", ""), "Microsoft Teams webhook URL (env: TEAMS_WEBHOOK)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// session holds what outlives a single run in watch mode.
type session struct {
	cmd      *cobra.Command
	log      logger.Logger
	notifier *notify.Manager
	seeded   bool

	// inputs are the files the last run was loaded from, for --watch
	inputs []string
}

func runCommand(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(outputFlag)
	if format == "xlsx" && outputFileFlag == "" {
		return &ExitError{Code: ExitUsageError, Err: fmt.Errorf("--output xlsx requires --output-file")}
	}
	if _, err := newFormatter(format, io.Discard); err != nil {
		return &ExitError{Code: ExitUsageError, Err: err}
	}

	level := logger.LevelFromVerbosity(verboseFlag)
	if quietFlag {
		level = logger.LevelError
	}
	logOpts := []logger.Option{}
	if noColorFlag {
		logOpts = append(logOpts, logger.WithColor(false))
	}

	sess := &session{
		cmd: cmd,
		log: logger.New(cmd.ErrOrStderr(), level, logOpts...),
	}
	notifier, err := newNotifyManager()
	if err != nil {
		return configError(err)
	}
	sess.notifier = notifier

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchFlag {
		return sess.watch(ctx)
	}

	result, err := sess.runOnce(ctx)
	if err != nil {
		return err
	}
	if code := exitCodeFor(result); code != ExitSuccess {
		return &ExitError{Code: code}
	}
	return nil
}

// runOnce loads settings, runs the suite and delivers every report.
func (s *session) runOnce(ctx context.Context) (*runner.RunResult, error) {
	st, err := loadSettings(s.cmd.Flags(), &runFlags, s.log)
	if err != nil {
		return nil, err
	}
	s.inputs = []string{runFlags.envFile, st.config.Source, st.suite.Path}

	var buf bytes.Buffer
	var out io.Writer = s.cmd.OutOrStdout()
	if outputFileFlag != "" {
		out = &buf
	} else if quietFlag && strings.ToLower(outputFlag) == "console" {
		out = io.Discard
	}
	formatter, err := newFormatter(strings.ToLower(outputFlag), out)
	if err != nil {
		return nil, &ExitError{Code: ExitUsageError, Err: err}
	}
	formatter.FormatHeader(version)

	opts := []runner.Option{runner.WithLogger(s.log)}
	if obs, ok := formatter.(runner.Observer); ok {
		opts = append(opts, runner.WithObserver(obs))
	}
	collector, err := newCollector(st.suite.Name, s.cmd.ErrOrStderr())
	if err != nil {
		return nil, configError(err)
	}
	if collector != nil {
		opts = append(opts, runner.WithObserver(collector))
	}

	result := runner.Run(ctx, st.runner, st.suite, opts...)

	formatter.FormatResult(result)
	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(result.Duration); err != nil {
			return nil, fmt.Errorf("error writing output: %w", err)
		}
	}
	if outputFileFlag != "" {
		if err := filelock.LockAndWrite(outputFileFlag, buf.Bytes()); err != nil {
			return nil, fmt.Errorf("error writing output file: %w", err)
		}
		s.log.Infof("report written to %s", outputFileFlag)
	}

	if collector != nil {
		collector.RecordRun(result)
		if err := collector.Flush(); err != nil {
			s.log.Warnf("failed to export metrics: %v", err)
		}
		if err := collector.Close(); err != nil {
			s.log.Warnf("failed to close metrics exporters: %v", err)
		}
	}

	s.recordHistory(ctx, st.config.History, result)

	if s.notifier != nil {
		// a cancelled run still reports; give the webhooks their own deadline
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*notify.DefaultWebhookTimeout)
		defer cancel()
		if err := s.notifier.Notify(notifyCtx, notify.Summarize(result, runFlags.profile)); err != nil {
			s.log.Warnf("failed to send notification: %v", err)
		}
	}
	return result, nil
}

// recordHistory stores the run. The previous state of the same suite and
// endpoint seeds the recovery policy before the first notification.
func (s *session) recordHistory(ctx context.Context, dsn string, result *runner.RunResult) {
	if dsn == "" {
		return
	}
	store, err := history.Open(dsn)
	if err != nil {
		s.log.Warnf("history disabled: %v", err)
		return
	}
	defer store.Close()

	ctx = context.WithoutCancel(ctx)
	if s.notifier != nil && !s.seeded {
		success, found, err := store.LastRunSuccess(ctx, result.Suite, result.Endpoint.BaseURL())
		if err != nil {
			s.log.Warnf("reading history: %v", err)
		} else if found {
			s.notifier.SeedLastState(success)
		}
		s.seeded = true
	}

	id, err := store.RecordRun(ctx, result)
	if err != nil {
		s.log.Warnf("recording history: %v", err)
		return
	}
	s.log.Debugf("recorded run %s in %s", id, store.Path())
}

func newFormatter(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w)), nil
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w)), nil
	case "xlsx":
		return output.NewXLSXFormatter(output.XLSXWithWriter(w)), nil
	case "console", "":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(verboseFlag > 0),
			output.WithNoColor(noColorFlag || outputFileFlag != ""),
		), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want console, json, junit, tap or xlsx)", format)
}

func newCollector(suiteName string, w io.Writer) (*metrics.Collector, error) {
	formats := splitList(strings.ToLower(metricsFlag))
	if len(formats) == 0 {
		return nil, nil
	}
	if len(formats) > 1 && metricsFileFlag != "" {
		return nil, fmt.Errorf("--metrics-file takes a single --metrics format")
	}

	var exporters []metrics.Exporter
	for _, format := range formats {
		switch format {
		case "json":
			opts := []metrics.JSONOption{metrics.WithJSONVersion(version)}
			if metricsFileFlag != "" {
				opts = append(opts, metrics.WithJSONFile(metricsFileFlag))
			} else {
				opts = append(opts, metrics.WithJSONWriter(w))
			}
			exporters = append(exporters, metrics.NewJSONExporter(opts...))
		case "prometheus":
			opts := []metrics.PrometheusOption{
				metrics.WithPrometheusLabels(map[string]string{"suite": suiteName}),
			}
			if metricsFileFlag != "" {
				opts = append(opts, metrics.WithPrometheusFile(metricsFileFlag))
			} else {
				opts = append(opts, metrics.WithPrometheusWriter(w))
			}
			exporters = append(exporters, metrics.NewPrometheusExporter(opts...))
		default:
			return nil, fmt.Errorf("unknown metrics format %q (want json or prometheus)", format)
		}
	}
	return metrics.NewCollector(exporters...), nil
}

func newNotifyManager() (*notify.Manager, error) {
	services := splitList(strings.ToLower(notifyFlag))
	if len(services) == 0 {
		return nil, nil
	}
	notifyOn, err := notify.ParseNotifyOn(notifyOnFlag)
	if err != nil {
		return nil, err
	}

	var notifiers []notify.Notifier
	for _, service := range services {
		switch service {
		case "slack":
			if slackWebhookFlag == "" {
				return nil, fmt.Errorf("--slack-webhook is required when using --notify slack")
			}
			slackOpts := []notify.SlackOption{}
			if slackChannelFlag != "" {
				slackOpts = append(slackOpts, notify.WithSlackChannel(slackChannelFlag))
			}
			notifiers = append(notifiers, notify.NewSlackNotifier(slackWebhookFlag, slackOpts...))
		case "teams":
			if teamsWebhookFlag == "" {
				return nil, fmt.Errorf("--teams-webhook is required when using --notify teams")
			}
			notifiers = append(notifiers, notify.NewTeamsNotifier(teamsWebhookFlag))
		default:
			return nil, fmt.Errorf("unknown notification service %q (want slack or teams)", service)
		}
	}
	return notify.NewManager(notifyOn, notifiers...), nil
}
