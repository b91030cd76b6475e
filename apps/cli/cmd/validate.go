package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/classifyprobe/packages/assertions"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/config"
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <suite|file|directory...>",
	Short: "Validate suites without sending requests",
	Long: `Validate suite files without sending any request.

Checks that every case has a unique name and a business name, that images
are base64 data URIs, that layouts are nested or flat, and that a referenced
response schema compiles.

Examples:
  classifyprobe validate ./cases.yaml
  classifyprobe validate ./suites/ ./cases.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	hasErrors := false
	for _, ref := range expandSuiteArgs(args) {
		if err := validateSuite(ref); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", ref, err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", ref)
	}

	if hasErrors {
		return configError(fmt.Errorf("validation failed"))
	}
	return nil
}

func validateSuite(ref string) error {
	s, err := suite.Resolve(ref)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Schema != "" {
		if _, err := assertions.LoadSchema(s.Schema); err != nil {
			return err
		}
	}
	return nil
}

// expandSuiteArgs replaces directories with the suite files inside them.
// Other arguments are kept as given.
func expandSuiteArgs(args []string) []string {
	var refs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			refs = append(refs, arg)
			continue
		}
		_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && suite.IsSuiteFile(path) && !isConfigFile(path) {
				refs = append(refs, path)
			}
			return nil
		})
	}
	return refs
}

func isConfigFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range config.ConfigFilenames {
		if base == name {
			return true
		}
	}
	return false
}

func collectSuites(args []string) ([]*suite.Suite, error) {
	refs := expandSuiteArgs(args)
	if len(refs) == 0 {
		return nil, fmt.Errorf("no suite files found")
	}
	suites := make([]*suite.Suite, 0, len(refs))
	for _, ref := range refs {
		s, err := suite.Resolve(ref)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}
