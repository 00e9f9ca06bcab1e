package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/greenfolio/internal/modules/analysis"
	"github.com/aristath/greenfolio/internal/modules/benchmarks"
	"github.com/aristath/greenfolio/internal/modules/optimization"
	"github.com/aristath/greenfolio/internal/modules/scoring"
	"github.com/aristath/greenfolio/pkg/logger"
)

// options are the flags shared by every subcommand
type options struct {
	file        string
	logLevel    string
	concurrency int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "esgctl",
		Short: "Score, analyze and allocate ESG projects offline",
		Long: `esgctl runs the Greenfolio scoring engine and portfolio optimizer against a
JSON file holding an array of projects. Benchmarks come from the built-in
static tables, so no service or database is needed.

Example:
  esgctl score -f projects.json
  esgctl optimize -f projects.json --max-budget 5000000 --min-esg 60
  esgctl scenarios -f projects.json --risk-levels 0.2,0.5,0.8`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "JSON file with an array of projects")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().IntVar(&opts.concurrency, "concurrency", 4, "projects scored in parallel")

	cmd.AddCommand(
		newScoreCmd(opts),
		newPortfolioCmd(opts),
		newOptimizeCmd(opts),
		newScenariosCmd(opts),
	)
	return cmd
}

// env is the offline service graph built for one invocation
type env struct {
	store   *fileStore
	service *analysis.Service
	log     zerolog.Logger
}

func (o *options) setup(cmd *cobra.Command) (*env, error) {
	if o.file == "" {
		return nil, fmt.Errorf("--file is required")
	}

	log := logger.New(logger.Config{
		Level:  o.logLevel,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})

	store, err := loadProjects(o.file)
	if err != nil {
		return nil, err
	}

	engine := scoring.NewEngine(benchmarks.NewStaticSource(), scoring.Config{
		Concurrency: o.concurrency,
	}, nil, log)
	optimizer := optimization.NewOptimizer(optimization.Config{
		ReturnTilt: optimization.DefaultReturnTilt,
	}, nil, log)
	scenarios := optimization.NewScenarioGenerator(optimizer, o.concurrency, log)

	rules, err := analysis.NewRulesEngine(analysis.DefaultRules)
	if err != nil {
		return nil, err
	}

	return &env{
		store:   store,
		service: analysis.NewService(store, engine, optimizer, scenarios, rules, log),
		log:     log,
	}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
