package commands

import (
	"github.com/spf13/cobra"

	"github.com/shubham184/fabric-deployment-mvp/pkg/report"
)

func newDeployCommand() *cobra.Command {
	var (
		environment string
		dryRun      bool
		saveReport  bool
	)

	cmd := &cobra.Command{
		Use:   "deploy <customer>",
		Short: "Deploy a customer's data platform",
		Long: `Deploy a single customer to an environment.

The deployment runs five ordered phases: validation, planning,
infrastructure, artifacts, verification. With --dry-run the deployment
stops after planning and mutates nothing.`,
		Example: `  # Deploy a customer to dev
  fabdeploy deploy contoso --environment dev

  # Validate and plan only
  fabdeploy deploy contoso --environment dev --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			result := a.orchestrator.DeployCustomer(cmd.Context(), args[0], environment, dryRun)

			r := report.ForDeployment(result)
			if err := a.printReport(r); err != nil {
				return err
			}
			if saveReport {
				if _, err := a.reports.Save(r, args[0]+"-"+environment, "json", "md"); err != nil {
					a.logger.Warn().Err(err).Msg("failed to save report")
				}
			}

			return exitWith(result.ExitCode())
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "dev", "target environment (dev, test, prod)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "stop after planning, mutate nothing")
	cmd.Flags().BoolVar(&saveReport, "save-report", false, "write the report to the output directory")

	return cmd
}
