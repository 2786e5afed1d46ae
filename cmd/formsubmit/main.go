// Command formsubmit serves form submissions over HTTP and fills forms from
// the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "formsubmit",
		Short: "Form submission pipeline",
		Long: `formsubmit loads YAML form blueprints and runs submissions through the
spam check, normalisation, events, storage and notification emails.

Configuration is read from FORMSUBMIT_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		fillCmd(),
		formsCmd(),
		submissionsCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
