package tui

import (
	"context"
	"fmt"

	"reroute/internal/service"
	"reroute/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const agentLogLimit = 20

// AgentLogModel is the agent execution log screen model
type AgentLogModel struct {
	svc     *service.PlanService
	userID  int64
	runs    []store.AgentRun
	loading bool
	err     error
}

// NewAgentLogModel creates a new agent log model
func NewAgentLogModel(svc *service.PlanService, userID int64) AgentLogModel {
	return AgentLogModel{
		svc:     svc,
		userID:  userID,
		loading: true,
	}
}

// Init initializes the agent log screen
func (m AgentLogModel) Init() tea.Cmd {
	return m.loadRuns
}

type agentRunsLoadedMsg struct {
	runs []store.AgentRun
	err  error
}

func (m AgentLogModel) loadRuns() tea.Msg {
	runs, err := m.svc.AgentRuns(context.Background(), m.userID, agentLogLimit)
	return agentRunsLoadedMsg{runs: runs, err: err}
}

// Update handles messages
func (m AgentLogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case agentRunsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.runs = msg.runs

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadRuns
		}
	}
	return m, nil
}

// View renders the agent run history
func (m AgentLogModel) View() string {
	if m.loading {
		return "\n  Loading agent runs..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if len(m.runs) == 0 {
		return "\n  No agent runs recorded yet."
	}

	var sections []string
	sections = append(sections, cardTitleStyle.Render("Agent Runs"))

	header := tableHeaderStyle.Render(fmt.Sprintf("%-14s  %-14s  %-16s  %6s  %6s",
		"When", "Job", "Model", "Plan", "Tokens"))
	sections = append(sections, header)

	for _, run := range m.runs {
		model := run.ModelName
		if model == "" {
			model = "heuristic"
		}

		plan := "-"
		if run.PlanID != nil {
			plan = fmt.Sprintf("#%d", *run.PlanID)
		}

		tokens := "-"
		if run.TokensUsed != nil {
			tokens = fmt.Sprintf("%d", *run.TokensUsed)
		}

		sections = append(sections, tableRowStyle.Render(fmt.Sprintf("%-14s  %-14s  %-16s  %6s  %6s",
			humanize.Time(run.CreatedAt), run.JobType, model, plan, tokens)))
	}

	help := statusStyle.Render("\n  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
