package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bububa/deepquery/evals"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		dataset string
		model   string
		pause   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Replay a test dataset through the agent and score the answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			research, err := a.researchFlow()
			if err != nil {
				return err
			}
			judge, err := a.judgeFlow()
			if err != nil {
				return err
			}
			cases, err := evals.LoadDataset(dataset)
			if err != nil {
				return err
			}
			fmt.Printf("Evaluating %d cases...\n\n", len(cases))
			ev := evals.NewEvaluator(research, judge,
				evals.WithModel(model),
				evals.WithPause(pause),
				evals.WithEvalLogger(a.logger),
			)
			summary := ev.Run(cmd.Context(), cases)
			printSummary(cmd, summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "path to the test dataset (json or yaml)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model to evaluate (default: first available)")
	cmd.Flags().DurationVar(&pause, "pause", 2*time.Second, "pause between cases")
	cmd.MarkFlagRequired("dataset")
	return cmd
}

func printSummary(cmd *cobra.Command, summary *evals.Summary) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tSCORE\tSTATUS\tREASONING")
	for _, res := range summary.Results {
		status := "ok"
		if !res.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\n", res.ID, res.Score, status, res.Reasoning)
	}
	w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "\nSucceeded: %d/%d  Mean score: %.2f  Pass rate: %.0f%%\n",
		summary.Succeeded, summary.Total, summary.MeanScore, summary.PassRate*100)
}
