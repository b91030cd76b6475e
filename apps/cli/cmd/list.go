package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [suite|file|directory...]",
	Short: "List the cases of a suite",
	Long: `List the cases of built-in suites or suite files.

Without arguments the built-in suites are listed.

Examples:
  classifyprobe list
  classifyprobe list local
  classifyprobe list ./cases.yaml ./suites/`,
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		fmt.Fprintln(out, "Built-in suites:")
		for _, name := range suite.BuiltinNames() {
			s, _ := suite.Builtin(name)
			fmt.Fprintf(out, "  %-12s %d cases  %s\n", name, s.Len(), s.Description)
		}
		return nil
	}

	suites, err := collectSuites(args)
	if err != nil {
		return configError(err)
	}

	for _, s := range suites {
		label := s.Name
		if s.Path != "" {
			label = s.Path
		}
		fmt.Fprintf(out, "\n%s:\n", label)
		for i := range s.Cases {
			printListCase(out, i+1, &s.Cases[i])
		}
	}
	return nil
}

func printListCase(out io.Writer, index int, tc *suite.TestCase) {
	fmt.Fprintf(out, "  %d. %s (%s)\n", index, tc.Name, tc.BusinessName)

	var details []string
	if tc.HasImage() {
		details = append(details, "image: "+tc.Slot()+", "+string(tc.EffectiveLayout()))
	}
	if tc.ExpectedType != "" {
		details = append(details, "expects type "+tc.ExpectedType)
	}
	if tc.ExpectedMatch != nil {
		details = append(details, fmt.Sprintf("expects match %t", *tc.ExpectedMatch))
	}
	if len(tc.Tags) > 0 {
		details = append(details, "tags: "+strings.Join(tc.Tags, ", "))
	}
	if tc.Skip != "" {
		details = append(details, "skip: "+tc.Skip)
	}
	if len(details) > 0 {
		fmt.Fprintf(out, "     %s\n", strings.Join(details, "; "))
	}
}
