package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bububa/deepquery/flows"
	"github.com/bububa/deepquery/models"
	"github.com/bububa/deepquery/tools/tavily"
)

// TavilyKeyEnv holds the search provider credential.
const TavilyKeyEnv = "TAVILY_API_KEY"

type app struct {
	registry *models.Registry
	logger   *zap.Logger
	verbose  bool
}

func newRootCmd() *cobra.Command {
	a := new(app)
	cmd := &cobra.Command{
		Use:          "deepquery",
		Short:        "Conversational research agent with web search and answer evaluation",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if a.verbose {
				var err error
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}
			a.logger = logger
			a.registry = models.NewRegistry(nil)
			// fail fast before any flow runs
			if _, err := a.registry.Default(); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(newChatCmd(a), newEvalCmd(a), newModelsCmd(a))
	return cmd
}

func (a *app) searchTool() *tavily.Search {
	return tavily.New(
		tavily.WithAPIKey(os.Getenv(TavilyKeyEnv)),
		tavily.WithLogger(a.logger),
	)
}

func (a *app) researchFlow() (*flows.ResearchFlow, error) {
	return flows.NewResearchFlow(a.registry,
		flows.WithSearchTool(a.searchTool()),
		flows.WithLogger(a.logger),
	)
}

func (a *app) judgeFlow() (*flows.JudgeFlow, error) {
	return flows.NewJudgeFlow(a.registry, flows.WithLogger(a.logger))
}
