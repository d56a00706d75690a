// Package cmd provides the command-line interface of hwverify.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// newRootCmd creates the base command with all its children.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hwverify",
		Short: "hwverify runs randomized testbenches against hardware models.",
		Long: `hwverify runs randomized testbenches against behavioral models ` +
			`of an SCCB master, an asynchronous FIFO, AXI memory readers and ` +
			`writers and a camera capture block, and reports the checker ` +
			`verdicts.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd(), newListCmd(), newReportCmd())

	return root
}

// Execute runs the command line. The process exits with status 1 if the
// command fails.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
