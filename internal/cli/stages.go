package cli

import (
	"github.com/spf13/cobra"

	"github.com/mhuss/foresight/internal/pipeline"
)

// Stage shortcuts, equivalent to `run --stage <name>`. Useful when
// resuming a crashed run at a specific point.

var brainstormCmd = &cobra.Command{
	Use:   "brainstorm",
	Short: "Generate seed events across both sampling regimes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(pipeline.StageBrainstorm)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Fact-check seeds against web search evidence",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(pipeline.StageVerify)
	},
}

var chronicleCmd = &cobra.Command{
	Use:   "chronicle",
	Short: "Discover real outcome chains for verified seeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(pipeline.StageChronicle)
	},
}

var alternativesCmd = &cobra.Command{
	Use:   "alternatives",
	Short: "Synthesize counterfactual candidates for every chain level",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(pipeline.StageAlternatives)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the assembled cases to the JSONL corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(pipeline.StageExport)
	},
}

func init() {
	chronicleCmd.Flags().BoolVar(&runParallel, "parallel", false, "use the concurrent chronicler")

	rootCmd.AddCommand(brainstormCmd, verifyCmd, chronicleCmd, alternativesCmd, exportCmd)
}
