package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shubham184/fabric-deployment-mvp/pkg/report"
)

func newDestroyCommand() *cobra.Command {
	var (
		environment string
		autoApprove bool
	)

	cmd := &cobra.Command{
		Use:   "destroy <customer>",
		Short: "Tear down a customer's deployment",
		Long: `Destroy all infrastructure for a customer/environment pair.

Destruction is a single phase; on success the pair returns to the
not-deployed state.`,
		Example: `  # Destroy with a confirmation prompt
  fabdeploy destroy contoso --environment dev

  # Destroy without prompting
  fabdeploy destroy contoso --environment prod --auto-approve`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			customer := args[0]

			if !autoApprove {
				fmt.Printf("Destroy all infrastructure for %s/%s? Only 'yes' confirms: ", customer, environment)
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if strings.TrimSpace(line) != "yes" {
					fmt.Println("Destroy cancelled.")
					return nil
				}
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			result := a.orchestrator.DestroyDeployment(cmd.Context(), customer, environment)
			if err := a.printReport(report.ForDeployment(result)); err != nil {
				return err
			}
			return exitWith(result.ExitCode())
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "dev", "target environment (dev, test, prod)")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "skip confirmation prompt")

	return cmd
}
