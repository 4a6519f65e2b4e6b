package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwillis/wfgraph/examples/orderapproval"
	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/emit"
	"github.com/mwillis/wfgraph/graph/hitl/store"
	"github.com/mwillis/wfgraph/graph/inspect"
)

// orderSeed is the JSON shape --file accepts, a subset of OrderState the
// caller seeds before the run starts.
type orderSeed struct {
	OrderID  string   `json:"order_id"`
	Customer string   `json:"customer"`
	Amount   float64  `json:"amount"`
	Items    []string `json:"items"`
}

func newRunCmd() *cobra.Command {
	var (
		file     string
		runID    string
		orderID  string
		customer string
		amount   float64
		items    []string
		courier  string
		poNumber string
		verdicts []string
		format   string
		jsonLogs bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the order-approval workflow in-process against an in-memory store",
		Long: "Run the order-approval workflow in-process against an in-memory store, " +
			"auto-resolving every human-in-the-loop suspension (approval, courier " +
			"decision, purchase-order input, shipment review) from --verdicts and the " +
			"--courier/--po flags instead of waiting on an external actor.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := orderSeed{OrderID: orderID, Customer: customer, Amount: amount, Items: items}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("wfctl: reading --file: %w", err)
				}
				if err := json.Unmarshal(data, &seed); err != nil {
					return fmt.Errorf("wfctl: parsing --file: %w", err)
				}
			}
			if runID == "" {
				runID = "wfctl-" + strings.ReplaceAll(seed.OrderID, " ", "-")
			}
			if len(verdicts) == 0 {
				verdicts = []string{"approve"}
			}

			s := store.NewMemoryStore[orderapproval.OrderState]()
			engine, err := orderapproval.NewEngine(s, s, s, s,
				graph.WithMaxSteps(50),
				graph.WithEmitter(emit.NewLogEmitter(cmd.ErrOrStderr(), jsonLogs)),
			)
			if err != nil {
				return err
			}

			go autoResolve(s, runID, verdicts, courier, poNumber)

			final, err := engine.Run(context.Background(), runID, orderapproval.OrderState{
				RunID: runID, OrderID: seed.OrderID, Customer: seed.Customer,
				Amount: seed.Amount, Items: seed.Items,
			})
			if err != nil {
				return fmt.Errorf("wfctl: run failed: %w", err)
			}

			snap := inspect.New[orderapproval.OrderState]().Snapshot(final)
			out := cmd.OutOrStdout()
			if format == "json" {
				rendered, err := inspect.VisualJSON(snap, true)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rendered)
			} else {
				fmt.Fprint(out, inspect.VisualText(snap))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with order_id/customer/amount/items to seed the run")
	cmd.Flags().StringVar(&runID, "run-id", "", "run id (defaults to wfctl-<order-id>)")
	cmd.Flags().StringVar(&orderID, "order-id", "ORD-CLI-1", "order id, if --file is not given")
	cmd.Flags().StringVar(&customer, "customer", "CLI Customer", "customer name, if --file is not given")
	cmd.Flags().Float64Var(&amount, "amount", 150.0, "order amount, if --file is not given")
	cmd.Flags().StringSliceVar(&items, "items", []string{"widget"}, "order items, if --file is not given")
	cmd.Flags().StringVar(&courier, "courier", "express", "courier option to answer the select-courier decision with")
	cmd.Flags().StringVar(&poNumber, "po", "PO-CLI-0001", "purchase order number to answer the po-input request with")
	cmd.Flags().StringSliceVar(&verdicts, "verdicts", nil, "approve/reject for each successive approval-gate attempt, in order (default: approve)")
	cmd.Flags().StringVar(&format, "format", "text", "final-state output format: text | json")
	cmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "emit newline-delimited JSON logs instead of console-formatted ones")

	return cmd
}

// autoResolve plays the part of an external actor, resolving every
// human-in-the-loop suspension this run produces until the run reaches
// ship or cancelled, the way examples/orderapproval/demo/main.go does for
// its bundled scenarios, parameterized here by CLI flags instead of being
// hardcoded per scenario.
func autoResolve(s *store.MemoryStore[orderapproval.OrderState], runID string, verdicts []string, courier, poNumber string) {
	ctx := context.Background()
	deadline := time.Now().Add(10 * time.Second)

	// Each request kind resolves independently: which suspensions a run
	// actually produces depends on its routing (an auto-approved order
	// never asks for approval, a low-value one never asks for a PO), so
	// waiting on one kind before watching the next would stall the rest.
	go func() {
		for attempt := 1; time.Now().Before(deadline); attempt++ {
			key := store.Key{RunID: runID, NodeName: fmt.Sprintf("approval-gate-%d", attempt)}
			if !pollUntil(deadline, func() bool {
				rec, err := s.GetApproval(ctx, key)
				return err == nil && rec.Status == store.StatusPending
			}) {
				return
			}

			verdict := "approve"
			if attempt-1 < len(verdicts) {
				verdict = verdicts[attempt-1]
			}
			if strings.EqualFold(verdict, "reject") {
				_ = s.Reject(ctx, key)
				continue
			}
			_ = s.Approve(ctx, key)
			return
		}
	}()

	go func() {
		courierKey := store.Key{RunID: runID, NodeName: "select-courier"}
		if pollUntil(deadline, func() bool {
			rec, err := s.GetDecision(ctx, courierKey)
			return err == nil && rec.Option == ""
		}) {
			_ = s.SetDecision(ctx, courierKey, courier)
		}
	}()

	go func() {
		poKey := store.Key{RunID: runID, NodeName: "po-input", PropertyName: "PONumber"}
		if pollUntil(deadline, func() bool {
			rec, err := s.GetInput(ctx, poKey)
			return err == nil && rec.Status == store.StatusPending
		}) {
			_ = s.SetInput(ctx, poKey, poNumber)
		}
	}()

	reviewKey := store.Key{RunID: runID, NodeName: "review-shipment"}
	if pollUntil(deadline, func() bool {
		rec, err := s.GetReview(ctx, reviewKey)
		return err == nil && rec.Status == store.StatusPending
	}) {
		rec, err := s.GetReview(ctx, reviewKey)
		if err == nil {
			_ = s.SetReviewedState(ctx, reviewKey, rec.State)
		}
	}
}

func pollUntil(deadline time.Time, cond func() bool) bool {
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
