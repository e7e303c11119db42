package tui

import (
	"context"
	"fmt"

	"reroute/internal/domain"
	"reroute/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

// ActivitiesModel is the recent-activities screen model
type ActivitiesModel struct {
	svc        *service.PlanService
	userID     int64
	units      Units
	activities []domain.ActivitySummary
	loading    bool
}

// NewActivitiesModel creates a new activities model
func NewActivitiesModel(svc *service.PlanService, userID int64, units Units) ActivitiesModel {
	return ActivitiesModel{
		svc:     svc,
		userID:  userID,
		units:   units,
		loading: true,
	}
}

// Init initializes the activities screen
func (m ActivitiesModel) Init() tea.Cmd {
	return m.loadActivities
}

type recentActivitiesMsg struct {
	activities []domain.ActivitySummary
}

func (m ActivitiesModel) loadActivities() tea.Msg {
	return recentActivitiesMsg{activities: m.svc.RecentActivities(context.Background(), m.userID)}
}

// Update handles messages
func (m ActivitiesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recentActivitiesMsg:
		m.loading = false
		m.activities = msg.activities

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadActivities
		}
	}
	return m, nil
}

// View renders the recent activities with a training-load chart
func (m ActivitiesModel) View() string {
	if m.loading {
		return "\n  Loading recent activities..."
	}
	if len(m.activities) == 0 {
		return "\n  No recent activities. Is your Strava account linked?"
	}

	var sections []string
	sections = append(sections, cardTitleStyle.Render(fmt.Sprintf("Recent Activities (%d)", len(m.activities))))

	header := tableHeaderStyle.Render(fmt.Sprintf("%-14s  %-10s  %8s  %9s  %6s  %5s",
		"When", "Sport", "Moving", "Distance", "TSS", "IF"))
	sections = append(sections, header)

	for _, a := range m.activities {
		when := "-"
		if a.StartDate != nil {
			when = humanize.Time(*a.StartDate)
		}

		distance := "-"
		if a.DistanceKm != nil {
			distance = m.units.FormatDistance(*a.DistanceKm)
		}

		tss := "-"
		if a.TSS != nil {
			tss = fmt.Sprintf("%.0f", *a.TSS)
		}

		intensity := "-"
		if a.Streams != nil && a.Streams.Power != nil && a.Streams.Power.IntensityFactor != nil {
			intensity = fmt.Sprintf("%.2f", *a.Streams.Power.IntensityFactor)
		}

		sections = append(sections, tableRowStyle.Render(fmt.Sprintf("%-14s  %-10s  %8s  %9s  %6s  %5s",
			when, a.SportType, m.units.FormatDuration(a.MovingTimeSeconds), distance, tss, intensity)))
	}

	if chart := m.renderLoadChart(); chart != "" {
		sections = append(sections, "")
		sections = append(sections, cardTitleStyle.Render("Training Load (TSS, oldest to newest)"))
		sections = append(sections, chart)
	}

	help := statusStyle.Render("\n  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoadChart plots TSS oldest-to-newest. Needs at least two scored
// rides to be worth drawing.
func (m ActivitiesModel) renderLoadChart() string {
	var data []float64
	for i := len(m.activities) - 1; i >= 0; i-- {
		if tss := m.activities[i].TSS; tss != nil {
			data = append(data, *tss)
		}
	}
	if len(data) < 2 {
		return ""
	}

	return asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(0),
	)
}
