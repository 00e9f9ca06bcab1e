package main

import (
	"github.com/spf13/cobra"

	"github.com/aristath/greenfolio/internal/modules/analysis"
	"github.com/aristath/greenfolio/internal/modules/optimization"
)

func newScoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Score every project and list its risks and recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			impacts := make([]*analysis.ESGImpact, 0, len(e.store.IDs()))
			for _, id := range e.store.IDs() {
				impact, err := e.service.ComputeESGImpact(cmd.Context(), id)
				if err != nil {
					return err
				}
				impacts = append(impacts, impact)
			}
			return writeJSON(cmd.OutOrStdout(), impacts)
		},
	}
}

func newPortfolioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Summarise budget, sector mix and risk across all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			res, err := e.service.AnalyzePortfolio(cmd.Context(), e.store.IDs())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

// constraintFlags binds the optional constraint flags. Unset flags stay unconstrained.
type constraintFlags struct {
	maxBudget float64
	minESG    float64
	maxRisk   float64
}

func (f *constraintFlags) bind(cmd *cobra.Command, withRisk bool) {
	cmd.Flags().Float64Var(&f.maxBudget, "max-budget", 0, "total budget to allocate (default: sum of project budgets)")
	cmd.Flags().Float64Var(&f.minESG, "min-esg", 0, "minimum portfolio ESG score (0-100)")
	if withRisk {
		cmd.Flags().Float64Var(&f.maxRisk, "max-risk", 0, "maximum portfolio risk")
	}
}

func (f *constraintFlags) constraints(cmd *cobra.Command) optimization.Constraints {
	var c optimization.Constraints
	if cmd.Flags().Changed("max-budget") {
		c.MaxBudget = &f.maxBudget
	}
	if cmd.Flags().Changed("min-esg") {
		c.MinESGScore = &f.minESG
	}
	if cmd.Flags().Changed("max-risk") {
		c.MaxRisk = &f.maxRisk
	}
	return c
}

func newOptimizeCmd(opts *options) *cobra.Command {
	flags := &constraintFlags{}

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Allocate the budget across all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			res, err := e.service.OptimizePortfolio(cmd.Context(), e.store.IDs(), flags.constraints(cmd))
			if err != nil {
				return err
			}
			if res.Degraded {
				e.log.Warn().Str("reason", res.DegradedReason).Msg("Constraints infeasible, using equal weights")
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	flags.bind(cmd, true)
	return cmd
}

func newScenariosCmd(opts *options) *cobra.Command {
	flags := &constraintFlags{}
	var riskLevels []float64

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Optimize once per risk level",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			base := flags.constraints(cmd)
			scenarios, err := e.service.GenerateScenarios(cmd.Context(), e.store.IDs(), analysis.ScenarioParameters{
				MaxBudget:   base.MaxBudget,
				MinESGScore: base.MinESGScore,
				RiskLevels:  riskLevels,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), scenarios)
		},
	}
	flags.bind(cmd, false)
	cmd.Flags().Float64SliceVar(&riskLevels, "risk-levels", []float64{0.2, 0.5, 0.8}, "comma separated risk levels to sweep")
	return cmd
}
