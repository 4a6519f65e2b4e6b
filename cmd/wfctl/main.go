// Command wfctl is the operator CLI for the order-approval demo workflow:
// run it locally, validate its structure, inspect a captured state
// snapshot, and resolve human-in-the-loop requests either against an
// in-process store or a running wfapprovald instance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "wfctl",
	Short:        "wfctl drives the order-approval demo workflow",
	Long:         "wfctl — run, validate, and inspect the bundled order-approval workflow, and resolve its human-in-the-loop requests.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8090", "wfapprovald base URL, for approve/decide/input/review/pending")
	rootCmd.PersistentFlags().String("token", "", "bearer token sent as Authorization: Bearer <token>")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("wfctl version %s\n", version))

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newApproveCmd())
	rootCmd.AddCommand(newDecideCmd())
	rootCmd.AddCommand(newInputCmd())
	rootCmd.AddCommand(newReviewCmd())
}
