package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newInputCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "input <runID> <node> <property> <value>",
		Short: "Resolve a pending input node with a value",
		Long:  "Resolve a pending input node with a value for the named property. With --json, value is parsed as JSON (e.g. a number, boolean, or object) instead of taken as a literal string.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFromCmd(cmd)
			runID, node, property, raw := args[0], args[1], args[2], args[3]

			var value any = raw
			if asJSON {
				if err := json.Unmarshal([]byte(raw), &value); err != nil {
					return fmt.Errorf("wfctl: parsing --json value: %w", err)
				}
			}

			data, err := c.input(runID, node, property, value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "parse value as JSON instead of a literal string")
	return cmd
}
