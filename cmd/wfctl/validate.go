package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwillis/wfgraph/examples/orderapproval"
	"github.com/mwillis/wfgraph/graph/hitl/store"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Build and structurally validate the order-approval graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := store.NewMemoryStore[orderapproval.OrderState]()
			g, err := orderapproval.Build(s, s, s, s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			names := g.NodeNames()
			fmt.Fprintf(out, "Valid! entry=%s exits=%v nodes=%d\n", g.EntryPoint(), exitPoints(g, names), len(names))
			for _, name := range names {
				edges := g.EdgesFrom(name)
				guarded := 0
				for _, e := range edges {
					if e.Guard != nil {
						guarded++
					}
				}
				fmt.Fprintf(out, "  %-18s -> %d edge(s) (%d guarded)\n", name, len(edges), guarded)
			}
			return nil
		},
	}
}

func exitPoints(g interface{ IsExitPoint(string) bool }, names []string) []string {
	var exits []string
	for _, n := range names {
		if g.IsExitPoint(n) {
			exits = append(exits, n)
		}
	}
	return exits
}
