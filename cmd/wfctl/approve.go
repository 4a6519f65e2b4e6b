package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newApproveCmd() *cobra.Command {
	var (
		reject    bool
		stateFile string
	)
	cmd := &cobra.Command{
		Use:   "approve <runID> <node>",
		Short: "Approve (or, with --reject, reject) a pending approval gate",
		Long: "Approve (or, with --reject, reject) a pending approval gate. With --state, " +
			"the JSON file's contents replace the captured state and the gate resolves " +
			"as Modified instead of Approved.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFromCmd(cmd)
			runID, node := args[0], args[1]

			if reject && stateFile != "" {
				return fmt.Errorf("wfctl: --reject and --state are mutually exclusive")
			}

			var (
				data []byte
				err  error
			)
			switch {
			case reject:
				data, err = c.reject(runID, node)
			case stateFile != "":
				raw, readErr := os.ReadFile(stateFile)
				if readErr != nil {
					return fmt.Errorf("wfctl: reading --state: %w", readErr)
				}
				var state map[string]any
				if jsonErr := json.Unmarshal(raw, &state); jsonErr != nil {
					return fmt.Errorf("wfctl: parsing --state: %w", jsonErr)
				}
				data, err = c.approveWithChanges(runID, node, state)
			default:
				data, err = c.approve(runID, node)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reject, "reject", false, "reject instead of approve")
	cmd.Flags().StringVar(&stateFile, "state", "", "JSON file with an amended state; resolves the gate as Modified")
	return cmd
}
