package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwillis/wfgraph/graph/inspect"
)

func newInspectCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inspect <snapshot.json>",
		Short: "Render a captured inspect.StateSnapshot (as written by graph/inspect) as text or pretty JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("wfctl: reading snapshot file: %w", err)
			}
			var snap inspect.StateSnapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("wfctl: parsing snapshot file: %w", err)
			}

			switch format {
			case "json":
				rendered, err := inspect.VisualJSON(snap, true)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
			case "text":
				fmt.Fprint(cmd.OutOrStdout(), inspect.VisualText(snap))
			default:
				return fmt.Errorf("wfctl: unknown --format %q (want text or json)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text | json")
	return cmd
}
