package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/san-kum/verletsim/internal/config"
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// param is one editable config field in the setup screen.
type param struct {
	name string
	step float64
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var params = []param{
	{"gravity_y", 100,
		func(c *config.Config) float64 { return c.Solver.GravityY },
		func(c *config.Config, v float64) { c.Solver.GravityY = v }},
	{"sub_steps", 1,
		func(c *config.Config) float64 { return float64(c.Solver.SubSteps) },
		func(c *config.Config, v float64) { c.Solver.SubSteps = int(v) }},
	{"speed", 100,
		func(c *config.Config) float64 { return c.Spawn.Speed },
		func(c *config.Config, v float64) { c.Spawn.Speed = v }},
	{"max_objects", 250,
		func(c *config.Config) float64 { return float64(c.Spawn.MaxObjects) },
		func(c *config.Config, v float64) { c.Spawn.MaxObjects = int(v) }},
	{"min_radius", 0.5,
		func(c *config.Config) float64 { return c.Spawn.MinRadius },
		func(c *config.Config, v float64) { c.Spawn.MinRadius = v }},
	{"max_radius", 0.5,
		func(c *config.Config) float64 { return c.Spawn.MaxRadius },
		func(c *config.Config, v float64) { c.Spawn.MaxRadius = v }},
	{"cell_size", 4,
		func(c *config.Config) float64 { return c.Solver.CellSize },
		func(c *config.Config, v float64) { c.Solver.CellSize = v }},
}

type model struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	seed          int64
	width, height int
	liveModel     Model
	logger        *log.Logger
}

func NewInteractiveApp(seed int64, logger *log.Logger) *model {
	return &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		seed:    seed,
		width:   80,
		height:  24,
		logger:  logger,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == stateSim {
			m.liveModel.resize(msg.Width, msg.Height)
		}
		return m, nil
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	p := params[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			if _, err := fmt.Sscanf(m.editBuf, "%f", &val); err == nil {
				p.set(m.cfg, val)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, fmt.Sprintf("%g", p.get(m.cfg))
	case "s":
		cmd := m.start()
		return m, cmd
	case "left", "h":
		p.set(m.cfg, p.get(m.cfg)-p.step)
	case "right", "l":
		p.set(m.cfg, p.get(m.cfg)+p.step)
	}
	return m, nil
}

func (m *model) start() tea.Cmd {
	if err := m.cfg.Validate(); err != nil {
		m.err = err
		return nil
	}
	live, err := NewModel(m.cfg, m.selected, m.seed, m.logger)
	if err != nil {
		m.err = err
		return nil
	}
	live.resize(m.width, m.height)
	m.liveModel = live
	m.state, m.err = stateSim, nil
	return m.liveModel.Init()
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	dimmerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + dimStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("VERLETSIM") + "\n    " + subStyle.Render("verlet particle solver") + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := config.Presets[name].Description
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-10s", name)), accentStyle.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", dimStyle.Render(fmt.Sprintf("  %-10s", name)), dimmerStyle.Render(desc)))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(m.selected)) + "\n    " + subStyle.Render(config.Presets[m.selected].Description) + "\n    " + subStyle.Render("─────────────────────────") + "\n\n")
	for i, p := range params {
		valStr := fmt.Sprintf("%10.3f", p.get(m.cfg))
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", cursorStyle.Render("▸"), activeStyle.Render(fmt.Sprintf("%-12s", p.name)), accentStyle.Bold(true).Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", dimStyle.Render(fmt.Sprintf("  %-12s", p.name)), dimmerStyle.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive opens the preset picker, then the live view.
func RunInteractive(seed int64, logger *log.Logger) error {
	_, err := tea.NewProgram(NewInteractiveApp(seed, logger), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
