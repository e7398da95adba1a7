package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

func newPlanCommand() *cobra.Command {
	var environment string

	cmd := &cobra.Command{
		Use:   "plan <customer>",
		Short: "Preview a customer deployment",
		Long: `Compute the deployment plan for a customer/environment pair:
discovered artifacts, prerequisite status, the infrastructure changes
Terraform would make, and an estimated duration. Mutates nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			plan, err := a.orchestrator.PlanDeployment(cmd.Context(), args[0], environment)
			if err != nil {
				a.logger.Error().Err(err).Msg("planning failed")
				return exitWith(deploy.ExitCodeForError(err))
			}

			if jsonOutput {
				out, err := json.MarshalIndent(plan, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			} else {
				printPlan(plan)
			}

			if !plan.Validation.Success {
				return exitWith(deploy.ExitValidationFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "dev", "target environment (dev, test, prod)")

	return cmd
}

func printPlan(plan *deploy.DeploymentPlan) {
	fmt.Printf("Deployment plan for %s/%s\n\n", plan.Customer, plan.Environment)
	fmt.Printf("Artifacts: %d (%d lakehouses, %d pipelines, %d notebooks)\n",
		plan.Artifacts.TotalCount(),
		len(plan.Artifacts.Lakehouses),
		len(plan.Artifacts.Pipelines),
		len(plan.Artifacts.Notebooks))
	fmt.Printf("Changes: %d to add, %d to change, %d to destroy\n",
		plan.ToolPlan.AddCount, plan.ToolPlan.ChangeCount, plan.ToolPlan.DestroyCount)
	fmt.Printf("Estimated duration: %s\n", plan.EstimatedDuration)

	if len(plan.FailedPrerequisites) > 0 {
		fmt.Printf("\nUnmet prerequisites: %s\n", strings.Join(plan.FailedPrerequisites, ", "))
	}
	for _, e := range plan.Validation.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}
