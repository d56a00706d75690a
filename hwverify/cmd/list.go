package cmd

import (
	"fmt"
	"strings"

	"github.com/sarchlab/hwverify/bench"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the benches and their scenarios.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range bench.Names() {
				b, err := bench.New(name, bench.Options{})
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n",
					name, strings.Join(b.Scenarios(), ", "))
			}

			return nil
		},
	}
}
