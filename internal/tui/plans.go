package tui

import (
	"context"
	"fmt"

	"reroute/internal/config"
	"reroute/internal/domain"
	"reroute/internal/service"
	"reroute/internal/store"
	"reroute/internal/task"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PlansModel is the plan list screen model
type PlansModel struct {
	svc        *service.PlanService
	dispatcher *task.Dispatcher
	cfg        *config.Config
	userID     int64
	units      Units
	plans      []store.TrainingPlan
	cursor     int
	loading    bool
	generating bool
	err        error
}

// NewPlansModel creates a new plans model
func NewPlansModel(svc *service.PlanService, dispatcher *task.Dispatcher, cfg *config.Config, userID int64, units Units) PlansModel {
	return PlansModel{
		svc:        svc,
		dispatcher: dispatcher,
		cfg:        cfg,
		userID:     userID,
		units:      units,
		loading:    true,
	}
}

// Init initializes the plans screen
func (m PlansModel) Init() tea.Cmd {
	return m.loadPlans
}

type plansLoadedMsg struct {
	plans []store.TrainingPlan
	err   error
}

func (m PlansModel) loadPlans() tea.Msg {
	plans, err := m.svc.ListPlans(context.Background(), m.userID)
	return plansLoadedMsg{plans: plans, err: err}
}

func (m PlansModel) generatePlan() tea.Msg {
	prefs := domain.Preferences{
		Goal:          m.cfg.Athlete.Goal,
		DurationWeeks: m.cfg.Athlete.DurationWeeks,
	}
	job := m.dispatcher.DispatchGeneration(context.Background(), m.userID, prefs)
	m.dispatcher.Wait()
	job = m.dispatcher.Job(job.ID)

	if job.Status == task.StatusFailed {
		return PlansChangedMsg{Status: "Plan generation failed: " + job.Error}
	}
	return PlansChangedMsg{Status: "Plan generated"}
}

func (m PlansModel) deletePlan(planID int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.DeletePlan(context.Background(), m.userID, planID); err != nil {
			return PlansChangedMsg{Status: "Delete failed: " + err.Error()}
		}
		return PlansChangedMsg{Status: "Plan deleted"}
	}
}

// Update handles messages
func (m PlansModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case plansLoadedMsg:
		m.loading = false
		m.generating = false
		m.err = msg.err
		m.plans = msg.plans
		if m.cursor >= len(m.plans) {
			m.cursor = len(m.plans) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.plans)-1 {
				m.cursor++
			}
		case "g":
			if !m.generating {
				m.generating = true
				return m, m.generatePlan
			}
		case "d":
			if len(m.plans) > 0 && m.cursor < len(m.plans) {
				return m, m.deletePlan(m.plans[m.cursor].ID)
			}
		case "r":
			m.loading = true
			return m, m.loadPlans
		case "enter":
			if len(m.plans) > 0 && m.cursor < len(m.plans) {
				planID := m.plans[m.cursor].ID
				return m, func() tea.Msg {
					return OpenPlanDetailMsg{PlanID: planID}
				}
			}
		}
	}
	return m, nil
}

// View renders the plan list
func (m PlansModel) View() string {
	if m.loading {
		return "\n  Loading plans..."
	}
	if m.generating {
		return "\n  Generating plan..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if len(m.plans) == 0 {
		return "\n  No plans yet. Press 'g' to generate one."
	}

	var sections []string
	sections = append(sections, cardTitleStyle.Render(fmt.Sprintf("Training Plans (%d)", len(m.plans))))

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-30s  %-10s  %-10s  %-10s  %8s",
		"Name", "Status", "Start", "End", "Workouts"))
	sections = append(sections, header)

	for i, plan := range m.plans {
		start, end := "-", "-"
		if plan.StartDate != nil {
			start = plan.StartDate.Format("2006-01-02")
		}
		if plan.EndDate != nil {
			end = plan.EndDate.Format("2006-01-02")
		}

		workouts := len(plan.Workouts)
		for _, block := range plan.Blocks {
			workouts += len(block.Workouts)
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-30s  %-10s  %-10s  %-10s  %8d",
			cursor, truncateName(plan.Name, 30), plan.Status, start, end, workouts)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: view plan  g: generate  d: delete  j/k: navigate  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func truncateName(name string, max int) string {
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max-1]) + "…"
}
