package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scoutline/sourcing-cli/internal/model"
)

var (
	collectQuery     string
	collectLocation  string
	collectSources   []string
	collectBudget    int
	collectSkills    []string
	collectKeywords  []string
	collectSeniority string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect candidate profiles for a query under a time budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cfg)
		if err != nil {
			return err
		}

		srcs := collectSources
		if len(srcs) == 0 {
			srcs = env.catalog.Names()
		}
		budget := collectBudget
		if budget == 0 {
			budget = cfg.Budget.DefaultSeconds
		}

		req := model.NewCollectionRequest(collectQuery, collectLocation, srcs, budget, model.QueryContext{
			Skills:    collectSkills,
			Keywords:  collectKeywords,
			Seniority: collectSeniority,
			Location:  collectLocation,
		})

		result, err := env.orch.Orchestrate(cmd.Context(), req)
		if err != nil {
			return eris.Wrap(err, "collect")
		}

		zap.L().Info("collection complete",
			zap.String("request_id", result.RequestID),
			zap.Int("candidates", len(result.Candidates)),
			zap.Duration("elapsed", result.Stats.Elapsed),
			zap.String("stop_reason", result.Stats.StopReason),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectQuery, "query", "", "search query (required)")
	collectCmd.Flags().StringVar(&collectLocation, "location", "", "location filter")
	collectCmd.Flags().StringSliceVar(&collectSources, "sources", nil, "sources to query (default: all enabled)")
	collectCmd.Flags().IntVar(&collectBudget, "budget", 0, "time budget in seconds (default from config)")
	collectCmd.Flags().StringSliceVar(&collectSkills, "skills", nil, "skills for matching and enrichment")
	collectCmd.Flags().StringSliceVar(&collectKeywords, "keywords", nil, "keywords that boost matching sources")
	collectCmd.Flags().StringVar(&collectSeniority, "seniority", "", "target seniority")
	_ = collectCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(collectCmd)
}
