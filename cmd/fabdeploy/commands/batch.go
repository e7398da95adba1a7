package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
	"github.com/shubham184/fabric-deployment-mvp/pkg/report"
)

func newBatchCommand() *cobra.Command {
	var (
		environment     string
		parallel        bool
		continueOnError bool
		poolSize        int
		saveReport      bool
	)

	cmd := &cobra.Command{
		Use:   "batch <customer> [customer...]",
		Short: "Deploy a cohort of customers",
		Long: `Deploy multiple customers to the same environment, sequentially or
through a bounded worker pool.

Without --continue-on-error the batch stops at the first failure:
deployments already in flight complete and report, customers not yet
started are skipped.`,
		Example: `  # Sequential batch
  fabdeploy batch contoso fabrikam adventure --environment dev

  # Parallel batch that keeps going past failures
  fabdeploy batch contoso fabrikam adventure -e test --parallel --continue-on-error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			coordinator := a.batch
			if poolSize != deploy.DefaultPoolSize {
				coordinator = deploy.NewBatchCoordinator(a.orchestrator, poolSize, nil, a.logger)
			}

			result := coordinator.DeployMany(cmd.Context(), args, environment, parallel, continueOnError)

			r := report.ForBatch(result)
			if jsonOutput {
				out, err := report.ToJSON(r)
				if err != nil {
					return err
				}
				fmt.Println(out)
			} else {
				fmt.Print(report.BatchToMarkdown(r))
			}
			if saveReport {
				if _, err := a.reports.SaveBatch(r, "batch-"+environment, "json", "md"); err != nil {
					a.logger.Warn().Err(err).Msg("failed to save report")
				}
			}

			if !result.OverallSuccess() {
				return exitWith(deploy.ExitDeploymentFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "dev", "target environment (dev, test, prod)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "deploy through a worker pool")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep deploying after a failure")
	cmd.Flags().IntVar(&poolSize, "pool-size", deploy.DefaultPoolSize, "parallel worker count")
	cmd.Flags().BoolVar(&saveReport, "save-report", false, "write the report to the output directory")

	return cmd
}
