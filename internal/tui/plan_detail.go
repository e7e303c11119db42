package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"reroute/internal/service"
	"reroute/internal/store"
	"reroute/internal/task"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PlanDetailModel is the plan detail screen model
type PlanDetailModel struct {
	svc        *service.PlanService
	dispatcher *task.Dispatcher
	userID     int64
	planID     int64
	units      Units
	plan       *store.TrainingPlan
	revisions  []store.PlanRevision
	viewport   viewport.Model
	loading    bool
	adjusting  bool
	status     string
	err        error
	width      int
	height     int
	ready      bool
}

// NewPlanDetailModel creates a new plan detail model
func NewPlanDetailModel(svc *service.PlanService, dispatcher *task.Dispatcher, userID, planID int64, units Units, width, height int) PlanDetailModel {
	m := PlanDetailModel{
		svc:        svc,
		dispatcher: dispatcher,
		userID:     userID,
		planID:     planID,
		units:      units,
		loading:    true,
		width:      width,
		height:     height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the plan detail screen
func (m PlanDetailModel) Init() tea.Cmd {
	return m.loadPlan
}

type planDetailLoadedMsg struct {
	plan      *store.TrainingPlan
	revisions []store.PlanRevision
	err       error
}

type planAdjustedMsg struct {
	status string
}

type planExportedMsg struct {
	path string
	err  error
}

func (m PlanDetailModel) loadPlan() tea.Msg {
	ctx := context.Background()
	plan, err := m.svc.GetPlan(ctx, m.userID, m.planID)
	if err != nil {
		return planDetailLoadedMsg{err: err}
	}

	// Revisions are supplementary; the plan still renders without them
	revisions, err := m.svc.PlanRevisions(ctx, m.userID, m.planID)
	if err != nil {
		return planDetailLoadedMsg{plan: plan}
	}
	return planDetailLoadedMsg{plan: plan, revisions: revisions}
}

func (m PlanDetailModel) adjustPlan() tea.Msg {
	job := m.dispatcher.DispatchAdjustment(context.Background(), m.userID, m.planID, "manual adjustment from console", nil)
	m.dispatcher.Wait()
	job = m.dispatcher.Job(job.ID)

	if job.Status == task.StatusFailed {
		return planAdjustedMsg{status: "Adjustment failed: " + job.Error}
	}
	return planAdjustedMsg{status: "Plan adjusted"}
}

func (m PlanDetailModel) cycleStatus() tea.Msg {
	next := map[string]string{
		"draft":     "active",
		"active":    "completed",
		"completed": "archived",
		"archived":  "draft",
	}
	status := "active"
	if m.plan != nil {
		if n, ok := next[m.plan.Status]; ok {
			status = n
		}
	}
	if _, err := m.svc.UpdatePlanStatus(context.Background(), m.userID, m.planID, status); err != nil {
		return planAdjustedMsg{status: "Status change failed: " + err.Error()}
	}
	return planAdjustedMsg{status: "Status set to " + status}
}

func (m PlanDetailModel) exportPlan() tea.Msg {
	data, err := m.svc.ExportPlanYAML(context.Background(), m.userID, m.planID)
	if err != nil {
		return planExportedMsg{err: err}
	}
	path := fmt.Sprintf("plan-%d.yaml", m.planID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return planExportedMsg{err: err}
	}
	return planExportedMsg{path: path}
}

// Update handles messages
func (m PlanDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case planDetailLoadedMsg:
		m.loading = false
		m.adjusting = false
		m.err = msg.err
		m.plan = msg.plan
		m.revisions = msg.revisions
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case planAdjustedMsg:
		m.adjusting = false
		m.status = msg.status
		m.loading = true
		return m, m.loadPlan

	case planExportedMsg:
		if msg.err != nil {
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported to " + msg.path
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.plan != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "a":
			if !m.adjusting {
				m.adjusting = true
				return m, m.adjustPlan
			}
		case "s":
			return m, m.cycleStatus
		case "y":
			return m, m.exportPlan
		case "r":
			m.loading = true
			return m, m.loadPlan
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the plan detail screen
func (m PlanDetailModel) View() string {
	if m.loading {
		return "\n  Loading plan..."
	}
	if m.adjusting {
		return "\n  Adjusting plan..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.plan == nil {
		return "\n  Plan not found."
	}

	var footer string
	if m.status != "" {
		footer = statusStyle.Render("  " + m.status)
	}
	help := statusStyle.Render("  a: adjust  s: cycle status  y: export yaml  r: refresh  esc: back")

	if m.ready {
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer, help)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderContent(), footer, help)
}

func (m PlanDetailModel) renderContent() string {
	plan := m.plan
	var sections []string

	sections = append(sections, cardTitleStyle.Render(plan.Name))
	sections = append(sections, RenderMetric("Goal", valueOr(plan.Goal, "-")))
	sections = append(sections, RenderMetric("Status", renderStatus(plan.Status)))
	sections = append(sections, RenderMetric("Start", formatDatePtr(plan.StartDate)))
	sections = append(sections, RenderMetric("End", formatDatePtr(plan.EndDate)))

	if pct, ok := planProgress(plan, time.Now()); ok {
		sections = append(sections, RenderMetric("Progress", RenderProgressBar(pct, 30)))
	}

	for _, block := range plan.Blocks {
		sections = append(sections, "")
		title := block.Name
		if block.Focus != "" {
			title += " - " + block.Focus
		}
		sections = append(sections, cardTitleStyle.Render(title))
		sections = append(sections, m.renderWorkouts(block.Workouts))
	}

	if len(plan.Workouts) > 0 {
		sections = append(sections, "")
		sections = append(sections, cardTitleStyle.Render("Unscheduled Workouts"))
		sections = append(sections, m.renderWorkouts(plan.Workouts))
	}

	if len(m.revisions) > 0 {
		sections = append(sections, "")
		sections = append(sections, cardTitleStyle.Render("Revisions"))
		for _, rev := range m.revisions {
			sections = append(sections, tableRowStyle.Render(
				fmt.Sprintf("v%d  %s", rev.Version, rev.ChangeSummary)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PlanDetailModel) renderWorkouts(workouts []store.Workout) string {
	if len(workouts) == 0 {
		return tableRowStyle.Render("(no workouts)")
	}

	var rows []string
	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-24s  %8s  %6s  %s",
		"Date", "Workout", "Duration", "TSS", "Notes"))
	rows = append(rows, header)

	for _, w := range workouts {
		duration := "-"
		if w.DurationMinutes != nil {
			duration = m.units.FormatMinutes(*w.DurationMinutes)
		}
		tss := "-"
		if w.TargetTSS != nil {
			tss = fmt.Sprintf("%d", *w.TargetTSS)
		}
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-10s  %-24s  %8s  %6s  %s",
			formatDatePtr(w.ScheduledDate),
			truncateName(w.Name, 24),
			duration,
			tss,
			truncateName(w.Description, 40))))
	}

	return strings.Join(rows, "\n")
}

// planProgress returns how far today sits between the plan's start and end.
func planProgress(plan *store.TrainingPlan, now time.Time) (float64, bool) {
	if plan.StartDate == nil || plan.EndDate == nil {
		return 0, false
	}
	total := plan.EndDate.Sub(*plan.StartDate)
	if total <= 0 {
		return 0, false
	}
	pct := float64(now.Sub(*plan.StartDate)) / float64(total)
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	return pct, true
}

func renderStatus(status string) string {
	switch status {
	case "active":
		return successStyle.Render(status)
	case "draft":
		return warningStyle.Render(status)
	default:
		return status
	}
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
