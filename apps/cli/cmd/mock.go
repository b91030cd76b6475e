package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/logger"
	"github.com/abdul-hamid-achik/classifyprobe/packages/mock"
	"github.com/spf13/cobra"
)

var (
	mockPortFlag      int
	mockDelayFlag     string
	mockVerboseFlag   bool
	mockTokenFlag     string
	mockAPIKeyFlag    string
	mockFieldFlag     string
	mockNoCompareFlag bool
	mockReferenceFlag string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Start a mock classification API",
	Long: `Start a deterministic stand-in for the classification API.

The mock server:
- Answers GET /api/health with {"status":"ok"}
- Classifies POST /api/classify by keyword (warung/makan: restaurant,
  sepatu: shoe_store, anything else: retail)
- Scores the business name by the share of reference-name words it contains
  and reports a match from 0.5 up
- Can require a bearer token or an API key, rename or drop the comparison
  field, and delay every classify response

Examples:
  classifyprobe mock
  classifyprobe mock --port 9002 --api-key secret
  classifyprobe mock --field businessNameComparison --delay 2s
  classifyprobe mock --no-comparison --verbose`,
	Args: cobra.NoArgs,
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", getEnvInt("CLASSIFYPROBE_MOCK_PORT", mock.DefaultPort), "Port to run the mock server on (env: CLASSIFYPROBE_MOCK_PORT)")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0", "Delay to add to classify responses (e.g., 100ms, 1s)")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Log every request")
	mockCmd.Flags().StringVar(&mockTokenFlag, "token", "", "Require this bearer token")
	mockCmd.Flags().StringVar(&mockAPIKeyFlag, "api-key", "", "Require this X-API-Key value")
	mockCmd.Flags().StringVar(&mockFieldFlag, "field", mock.FieldComparison, "Response field for the comparison: comparison or businessNameComparison")
	mockCmd.Flags().BoolVar(&mockNoCompareFlag, "no-comparison", false, "Leave the comparison out of classify responses")
	mockCmd.Flags().StringVar(&mockReferenceFlag, "reference", mock.DefaultReferenceName, "Business name submitted names are compared against")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	delay, err := parseDelay(mockDelayFlag)
	if err != nil {
		return &ExitError{Code: ExitUsageError, Err: err}
	}

	opts := []mock.Option{
		mock.WithPort(mockPortFlag),
		mock.WithDelay(delay),
		mock.WithVerbose(mockVerboseFlag),
		mock.WithToken(mockTokenFlag),
		mock.WithAPIKey(mockAPIKeyFlag),
		mock.WithComparisonField(mockFieldFlag),
		mock.WithReferenceName(mockReferenceFlag),
		mock.WithLogger(logger.New(cmd.ErrOrStderr(), logger.LevelInfo)),
	}
	if mockNoCompareFlag {
		opts = append(opts, mock.WithoutComparison())
	}

	server, err := mock.NewServer(opts...)
	if err != nil {
		return configError(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.StartWithContext(ctx)
}

func parseDelay(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid delay value %q: %w (use format like 100ms, 1s)", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("delay must not be negative")
	}
	return d, nil
}
