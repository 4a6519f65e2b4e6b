package emit

// Event is one observability event from a workflow run: the engine's
// "node_end" and "node_error" per executed node, a ParallelNode's
// "parallel_deepcopy_fallback", and a LoopNode's "loop_max_iterations" and
// "loop_break_condition_failed". Emitters turn Events into log lines,
// spans, or queryable history.
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the sequential step number in the workflow (1-indexed), set
	// on the engine's node events. Zero for events emitted by composite
	// nodes.
	Step int

	// NodeID identifies which node emitted this event. Empty for
	// workflow-level events.
	NodeID string

	// Msg is a short machine-matchable description, e.g. "node_end",
	// "node_error", "parallel_deepcopy_fallback".
	Msg string

	// Meta carries event-specific structured data. Keys the engine and
	// composite nodes use: "error", "child", "child_index", "iterations",
	// "iteration".
	Meta map[string]interface{}
}
