package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhuss/foresight/internal/checkpoint"
	"github.com/mhuss/foresight/internal/config"
	"github.com/mhuss/foresight/internal/pipeline"
	"github.com/mhuss/foresight/internal/research"
)

var (
	runStage    string
	runParallel bool
	runOutput   string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the data collection pipeline",
	Long: `Run the full pipeline (brainstorm -> verify -> chronicle ->
alternatives -> export) or a single stage.

Stages checkpoint incrementally; rerunning a stage resumes from the last
saved batch instead of repeating completed work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(runStage)
	},
}

func init() {
	runCmd.Flags().StringVar(&runStage, "stage", pipeline.StageAll,
		"stage to run: all, brainstorm, verify, chronicle, alternatives, export")
	runCmd.Flags().BoolVar(&runParallel, "parallel", false, "use the concurrent chronicler")
	runCmd.Flags().StringVar(&runOutput, "output", "", "override output corpus path")

	rootCmd.AddCommand(runCmd)
}

// runPipeline builds the collaborators and executes the requested stage.
func runPipeline(stage string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if runOutput != "" {
		cfg.Paths.Output = runOutput
	}

	completion, err := research.NewOpenRouterClient(cfg.API.OpenRouterKey, cfg.Models.BaseURL, 30*time.Second)
	if err != nil {
		return err
	}
	search := research.NewExaClient(cfg.API.ExaKey, 30*time.Second)

	gw := research.NewGateway(completion, search, research.Options{
		ResearchModel:     cfg.Models.Research,
		ReasoningModel:    cfg.Models.Reasoning,
		RetryAttempts:     cfg.Retry.Attempts,
		RetryDelay:        cfg.Retry.Delay,
		SearchesPerMinute: cfg.Rate.RequestsPerMinute,
	})

	store := checkpoint.NewFileStore(cfg.Paths.Checkpoints)

	p := pipeline.New(gw, store, cfg)
	p.Parallel = runParallel

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = p.Run(ctx, stage)
	if errors.Is(ctx.Err(), context.Canceled) {
		fmt.Println("\nPipeline interrupted. Checkpoints are safe; rerun to resume.")
		return nil
	}
	return err
}
