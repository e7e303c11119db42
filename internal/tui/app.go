// Package tui is the Bubble Tea console front end for browsing training
// plans, recent rides and agent activity.
package tui

import (
	"reroute/internal/config"
	"reroute/internal/service"
	"reroute/internal/task"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenPlans Screen = iota
	ScreenPlanDetail
	ScreenActivities
	ScreenAgentLog
	ScreenHelp
)

// OpenPlanDetailMsg asks the app to open the detail screen for a plan
type OpenPlanDetailMsg struct {
	PlanID int64
}

// PlansChangedMsg is sent after a plan was created, adjusted or deleted
type PlansChangedMsg struct {
	Status string
}

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	plans      PlansModel
	planDetail PlanDetailModel
	activities ActivitiesModel
	agentLog   AgentLogModel
	help       HelpModel

	// Services
	svc        *service.PlanService
	dispatcher *task.Dispatcher
	cfg        *config.Config
	userID     int64
	units      Units

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App with all dependencies
func NewApp(svc *service.PlanService, dispatcher *task.Dispatcher, cfg *config.Config, userID int64) *App {
	units := NewUnits(cfg.Display)
	return &App{
		screen:     ScreenPlans,
		svc:        svc,
		dispatcher: dispatcher,
		cfg:        cfg,
		userID:     userID,
		units:      units,
		plans:      NewPlansModel(svc, dispatcher, cfg, userID, units),
		activities: NewActivitiesModel(svc, userID, units),
		agentLog:   NewAgentLogModel(svc, userID),
		help:       NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.plans.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "1":
			a.screen = ScreenPlans
			return a, a.plans.Init()
		case "2":
			a.screen = ScreenActivities
			return a, a.activities.Init()
		case "3":
			a.screen = ScreenAgentLog
			return a, a.agentLog.Init()
		case "?":
			a.prevScreen = a.screen
			a.screen = ScreenHelp
			return a, nil
		case "esc":
			switch a.screen {
			case ScreenHelp:
				a.screen = a.prevScreen
				return a, nil
			case ScreenPlanDetail:
				a.screen = ScreenPlans
				return a, a.plans.Init()
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case OpenPlanDetailMsg:
		a.screen = ScreenPlanDetail
		a.planDetail = NewPlanDetailModel(a.svc, a.dispatcher, a.userID, msg.PlanID, a.units, a.width, a.height)
		return a, a.planDetail.Init()

	case PlansChangedMsg:
		a.status = msg.Status
		a.screen = ScreenPlans
		return a, a.plans.Init()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenPlans:
		var m tea.Model
		m, cmd = a.plans.Update(msg)
		a.plans = m.(PlansModel)
	case ScreenPlanDetail:
		var m tea.Model
		m, cmd = a.planDetail.Update(msg)
		a.planDetail = m.(PlanDetailModel)
	case ScreenActivities:
		var m tea.Model
		m, cmd = a.activities.Update(msg)
		a.activities = m.(ActivitiesModel)
	case ScreenAgentLog:
		var m tea.Model
		m, cmd = a.agentLog.Update(msg)
		a.agentLog = m.(AgentLogModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenPlans:
		content = a.plans.View()
	case ScreenPlanDetail:
		content = a.planDetail.View()
	case ScreenActivities:
		content = a.activities.View()
	case ScreenAgentLog:
		content = a.agentLog.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Reroute Training Planner")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Plans", ScreenPlans},
		{"2", "Activities", ScreenActivities},
		{"3", "Agent Log", ScreenAgentLog},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		active := a.screen == item.screen ||
			(item.screen == ScreenPlans && a.screen == ScreenPlanDetail)
		if active {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}
