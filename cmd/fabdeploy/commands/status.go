package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	var environment string

	cmd := &cobra.Command{
		Use:   "status <customer>",
		Short: "Show a customer's deployment status",
		Long: `Derive the deployment status for a customer/environment pair from
Terraform state: state with at least one resource means deployed,
anything else means not deployed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			status := a.orchestrator.Status(cmd.Context(), args[0], environment)

			if jsonOutput {
				out, err := json.Marshal(map[string]string{
					"customer":    args[0],
					"environment": environment,
					"status":      string(status),
				})
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("%s/%s: %s\n", args[0], environment, status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "dev", "target environment (dev, test, prod)")

	return cmd
}
