package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDecideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decide <runID> <node> <option>",
		Short: "Resolve a pending decision node with one of its options",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFromCmd(cmd)
			data, err := c.decide(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
