package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/config"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	xlsxInit  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new classifyprobe project",
	Long: `Initialize a new classifyprobe project in the current directory.

This creates:
  - classifyprobe.yaml  - Configuration with local and production profiles
  - cases.yaml          - Example suite (cases.xlsx with --xlsx)

Credentials are referenced as {{$QRIS_API_KEY}} and {{$QRIS_TOKEN}} so they
stay in the environment or a .env file.

Examples:
  classifyprobe init
  classifyprobe init --xlsx
  classifyprobe init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().BoolVar(&xlsxInit, "xlsx", false, "Write the example suite as an Excel workbook")
}

// exampleCases seed the generated suite.
func exampleCases() []suite.TestCase {
	match, noMatch := true, false
	return []suite.TestCase{
		{Name: "Restaurant", BusinessName: "Warung Makan Sederhana", ExpectedType: "restaurant", Tags: []string{"smoke"}},
		{Name: "Shoe Store", BusinessName: "Toko Sepatu Sport", ExpectedType: "shoe_store"},
		{Name: "Same Business", BusinessName: "Warung Sederhana", ExpectedMatch: &match, RequestID: "init_{{index}}"},
		{Name: "Different Business", BusinessName: "Toko Elektronik Modern", ExpectedMatch: &noMatch, RequestID: "init_{{index}}"},
	}
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	suiteName := "cases.yaml"
	if xlsxInit {
		suiteName = "cases.xlsx"
	}
	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	suiteFile := filepath.Join(cwd, suiteName)

	if !forceInit {
		for _, f := range []string{configFile, suiteFile} {
			if _, err := os.Stat(f); err == nil {
				return configError(fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.Scaffold()
	cfg.Suite = "./" + suiteName
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if xlsxInit {
		err = suite.WriteXLSXTemplate(suiteFile, exampleCases())
	} else {
		s := &suite.Suite{
			Name:        "example",
			Description: "generated by classifyprobe init",
			Cases:       exampleCases(),
		}
		err = s.Save(suiteFile)
	}
	if err != nil {
		return fmt.Errorf("failed to create suite file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", suiteFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nclassifyprobe project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Try it with 'classifyprobe mock --port 9002' in one terminal and 'classifyprobe run --suite ./%s' in another.\n", suiteName)

	return nil
}
