package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mwillis/wfgraph/graph/hitl/store"
)

func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <runID>",
		Short: "Interactively resolve every pending human-in-the-loop request for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFromCmd(cmd)
			m := newReviewModel(c, args[0])
			program := tea.NewProgram(m, tea.WithAltScreen())
			_, err := program.Run()
			return err
		},
	}
}

// pendingSnapshot mirrors cmd/wfapprovald's GET /runs/{runID}/pending.json
// response shape (that type is unexported there, so it is redeclared here
// against the same store record types rather than shared).
type pendingSnapshot struct {
	Approvals []store.ApprovalRecord[map[string]any] `json:"approvals"`
	Decisions []store.DecisionRecord[map[string]any] `json:"decisions"`
	Inputs    []store.InputRecord[map[string]any]    `json:"inputs"`
	Reviews   []store.ReviewRecord[map[string]any]   `json:"reviews"`
}

// pendingItem is one row in the review list, covering any of the four
// HITL request shapes.
type pendingItem struct {
	kind     string // "approval" | "decision" | "input" | "review"
	node     string
	summary  string
	options  []string       // decision only
	property string         // input only
	state    map[string]any // review only: the captured state to resubmit
}

func (i pendingItem) Title() string       { return fmt.Sprintf("[%s] %s", i.kind, i.node) }
func (i pendingItem) Description() string { return i.summary }
func (i pendingItem) FilterValue() string { return i.node }

// stage tracks what the model is currently asking the operator for.
type stage int

const (
	stageList stage = iota
	stageDecisionPick
	stageInputPrompt
	stageReviewConfirm
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type reviewModel struct {
	client *apiClient
	runID  string

	list   list.Model
	input  textinput.Model
	stage  stage
	active *pendingItem
	status string
}

func newReviewModel(c *apiClient, runID string) reviewModel {
	ti := textinput.New()
	ti.Placeholder = "value"

	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = fmt.Sprintf("pending requests: %s", runID)
	l.SetShowHelp(true)

	return reviewModel{client: c, runID: runID, list: l, input: ti, stage: stageList}
}

func (m reviewModel) Init() tea.Cmd {
	return fetchPendingCmd(m.client, m.runID)
}

type pendingFetchedMsg struct {
	items []pendingItem
	err   error
}

type actionDoneMsg struct {
	err error
}

func fetchPendingCmd(c *apiClient, runID string) tea.Cmd {
	return func() tea.Msg {
		data, err := c.pending(runID)
		if err != nil {
			return pendingFetchedMsg{err: err}
		}
		var snap pendingSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return pendingFetchedMsg{err: fmt.Errorf("wfctl: decoding pending snapshot: %w", err)}
		}
		return pendingFetchedMsg{items: toPendingItems(snap)}
	}
}

func toPendingItems(snap pendingSnapshot) []pendingItem {
	var items []pendingItem
	for _, a := range snap.Approvals {
		if a.Status != store.StatusPending {
			continue
		}
		items = append(items, pendingItem{kind: "approval", node: a.Key.NodeName, summary: a.Message})
	}
	for _, d := range snap.Decisions {
		if d.Status != store.StatusPending {
			continue
		}
		items = append(items, pendingItem{
			kind: "decision", node: d.Key.NodeName,
			summary: fmt.Sprintf("%s (%s)", d.Question, strings.Join(d.Options, ", ")),
			options: d.Options,
		})
	}
	for _, in := range snap.Inputs {
		if in.Status != store.StatusPending {
			continue
		}
		items = append(items, pendingItem{kind: "input", node: in.Key.NodeName, summary: in.Prompt, property: in.Key.PropertyName})
	}
	for _, rv := range snap.Reviews {
		if rv.Status != store.StatusPending {
			continue
		}
		items = append(items, pendingItem{kind: "review", node: rv.Key.NodeName, summary: rv.Context, state: rv.State})
	}
	return items
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case pendingFetchedMsg:
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
			return m, nil
		}
		listItems := make([]list.Item, len(msg.items))
		for i, it := range msg.items {
			listItems[i] = it
		}
		m.list.SetItems(listItems)
		m.status = ""
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = errStyle.Render(msg.err.Error())
		} else {
			m.status = "resolved"
		}
		m.stage = stageList
		m.active = nil
		return m, fetchPendingCmd(m.client, m.runID)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m reviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.stage == stageList {
			return m, tea.Quit
		}
	}

	switch m.stage {
	case stageList:
		return m.handleListKey(msg)
	case stageDecisionPick:
		return m.handleDecisionKey(msg)
	case stageInputPrompt:
		return m.handleInputKey(msg)
	case stageReviewConfirm:
		return m.handleReviewKey(msg)
	}
	return m, nil
}

func (m reviewModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m, fetchPendingCmd(m.client, m.runID)
	case "enter", "a", "y":
		item, ok := m.list.SelectedItem().(pendingItem)
		if !ok {
			return m, nil
		}
		return m.openItem(item, true)
	case "d", "n":
		item, ok := m.list.SelectedItem().(pendingItem)
		if !ok {
			return m, nil
		}
		return m.openItem(item, false)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// openItem dispatches on the selected item's kind. approve is only
// meaningful for approval items (true = approve, false = reject); decision
// and input items ignore it and open their own sub-stage; review items
// confirm the captured state unchanged when approve is true.
func (m reviewModel) openItem(item pendingItem, approve bool) (tea.Model, tea.Cmd) {
	switch item.kind {
	case "approval":
		var action func(string, string) ([]byte, error)
		if approve {
			action = m.client.approve
		} else {
			action = m.client.reject
		}
		return m, runActionCmd(func() error {
			_, err := action(m.runID, item.node)
			return err
		})
	case "decision":
		m.active = &item
		m.stage = stageDecisionPick
		m.status = dimStyle.Render("press the number of an option")
		return m, nil
	case "input":
		m.active = &item
		m.stage = stageInputPrompt
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "review":
		if !approve {
			return m, nil
		}
		m.active = &item
		m.stage = stageReviewConfirm
		return m, nil
	}
	return m, nil
}

func (m reviewModel) handleDecisionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.stage, m.active = stageList, nil
		return m, nil
	}
	idx := int(msg.String()[0] - '1')
	if m.active == nil || idx < 0 || idx >= len(m.active.options) {
		return m, nil
	}
	option := m.active.options[idx]
	node := m.active.node
	m.stage, m.active = stageList, nil
	return m, runActionCmd(func() error {
		_, err := m.client.decide(m.runID, node, option)
		return err
	})
}

func (m reviewModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stage, m.active = stageList, nil
		return m, nil
	case "enter":
		value := m.input.Value()
		node, property := m.active.node, m.active.property
		m.stage, m.active = stageList, nil
		return m, runActionCmd(func() error {
			_, err := m.client.input(m.runID, node, property, value)
			return err
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m reviewModel) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stage, m.active = stageList, nil
		return m, nil
	case "enter", "y":
		node, state := m.active.node, m.active.state
		m.stage, m.active = stageList, nil
		return m, runActionCmd(func() error {
			_, err := m.client.review(m.runID, node, state)
			return err
		})
	}
	return m, nil
}

func runActionCmd(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn()}
	}
}

func (m reviewModel) View() string {
	var b strings.Builder
	switch m.stage {
	case stageDecisionPick:
		fmt.Fprintln(&b, titleStyle.Render("choose an option for "+m.active.node))
		for i, opt := range m.active.options {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, opt)
		}
		fmt.Fprintln(&b, dimStyle.Render("esc to cancel"))
	case stageInputPrompt:
		fmt.Fprintln(&b, titleStyle.Render(m.active.summary))
		fmt.Fprintln(&b, m.input.View())
		fmt.Fprintln(&b, dimStyle.Render("enter to submit, esc to cancel"))
	case stageReviewConfirm:
		fmt.Fprintln(&b, titleStyle.Render("confirm review for "+m.active.node))
		fmt.Fprintln(&b, m.active.summary)
		fmt.Fprintln(&b, dimStyle.Render("enter/y to accept as-is, esc to cancel"))
	default:
		b.WriteString(m.list.View())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter/a: approve+decide+input+review  d/n: reject  r: refresh  q: quit"))
		b.WriteString("\n")
		b.WriteString(m.status)
	}
	return b.String()
}
