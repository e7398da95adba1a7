package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured customers and their environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			customers, err := a.resolver.Customers()
			if err != nil {
				return err
			}

			listing := make(map[string][]string, len(customers))
			for _, customer := range customers {
				environments, err := a.resolver.Environments(customer)
				if err != nil {
					return err
				}
				listing[customer] = environments
			}

			if jsonOutput {
				out, err := json.MarshalIndent(listing, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			if len(customers) == 0 {
				fmt.Println("No customers configured.")
				return nil
			}
			for _, customer := range customers {
				fmt.Printf("%s:", customer)
				for _, env := range listing[customer] {
					fmt.Printf(" %s", env)
				}
				fmt.Println()
			}
			return nil
		},
	}

	return cmd
}
