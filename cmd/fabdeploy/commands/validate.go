package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

func newValidateCommand() *cobra.Command {
	var environment string

	cmd := &cobra.Command{
		Use:   "validate <customer> [customer...]",
		Short: "Validate deployment readiness",
		Long: `Check that one or more customers are ready to deploy: name format,
environment membership, configuration validity, artifact existence, and
the five environment prerequisites. Every check runs; all failures are
reported together.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			var result *deploy.ValidationResult
			if len(args) == 1 {
				result = a.validator.CheckReadiness(cmd.Context(), args[0], environment)
			} else {
				result = a.validator.CheckBatchReadiness(cmd.Context(), args, environment)
			}

			if jsonOutput {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			} else {
				printValidation(result)
			}

			if !result.Success {
				return exitWith(deploy.ExitValidationFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "dev", "target environment (dev, test, prod)")

	return cmd
}

func printValidation(result *deploy.ValidationResult) {
	if result.Success {
		fmt.Println("Validation passed.")
	} else {
		fmt.Println("Validation failed.")
	}
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	fmt.Printf("Checks performed: %d\n", len(result.ChecksPerformed))
}
