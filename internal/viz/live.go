package viz

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/sim"
)

const (
	defaultWidth    = 60
	defaultHeight   = 30
	statsWidth      = 45
	historyCapacity = 600
	gifScale        = 0.5
	gifFile         = "verletsim.gif"

	// canvas origin on screen, from canvasStyle padding
	canvasTop  = 1
	canvasLeft = 2
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(canvasTop, canvasLeft)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(statsWidth)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

type pointer struct {
	active bool
	push   bool
	world  r2.Vec
}

// Model is the live Bubble Tea view of one solver: braille canvas on the
// left, stats on the right, mouse pull and push on the canvas.
type Model struct {
	cfg            *config.Config
	name           string
	seed           int64
	sim            *sim.Simulator
	width, height  int
	canvas         *Canvas
	running        bool
	showHelp       bool
	pointer        pointer
	energyHistory  []float64
	contactHistory []float64
	lastTick       time.Time
	fps            float64
	recording      bool
	frames         []*image.Paletted
	logger         *log.Logger
	err            error
}

// NewModel builds a solver from cfg and wraps it for the terminal.
func NewModel(cfg *config.Config, name string, seed int64, logger *log.Logger) (Model, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s, err := sim.FromConfig(cfg, seed)
	if err != nil {
		return Model{}, err
	}
	s.SetLogger(logger)
	s.Solver().SetLogger(logger)

	return Model{
		cfg:            cfg,
		name:           name,
		seed:           seed,
		sim:            s,
		width:          defaultWidth,
		height:         defaultHeight,
		canvas:         NewCanvas(defaultWidth, defaultHeight),
		running:        true,
		energyHistory:  make([]float64, 0, historyCapacity),
		contactHistory: make([]float64, 0, historyCapacity),
		logger:         logger,
	}, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "s":
			e := m.sim.Emitter()
			e.SetPaused(!e.Paused())
		case "g":
			if m.recording {
				m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			NextTheme()
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		now := time.Time(msg)
		if !m.lastTick.IsZero() {
			if dt := now.Sub(m.lastTick).Seconds(); dt > 0 {
				m.fps = 0.9*m.fps + 0.1/dt
			}
		}
		m.lastTick = now

		if m.running {
			m.step()
		}
		if m.recording {
			m.frames = append(m.frames, RenderFrame(sim.Snapshot(m.sim.Solver()), m.cfg.Window.Width, m.cfg.Window.Height, gifScale))
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.pointer = pointer{active: true, world: m.screenToWorld(msg.X, msg.Y)}
		case tea.MouseButtonRight:
			m.pointer = pointer{active: true, push: true, world: m.screenToWorld(msg.X, msg.Y)}
		}
	case tea.MouseActionMotion:
		if m.pointer.active {
			m.pointer.world = m.screenToWorld(msg.X, msg.Y)
		}
	case tea.MouseActionRelease:
		m.pointer.active = false
	}
}

// scale is canvas dots per world unit, fitting the whole window.
func (m *Model) scale() float64 {
	dw, dh := m.canvas.Dots()
	return min(float64(dw)/float64(m.cfg.Window.Width), float64(dh)/float64(m.cfg.Window.Height))
}

// screenToWorld maps a terminal cell to the world point under the centre of
// its braille block.
func (m *Model) screenToWorld(col, row int) r2.Vec {
	dotX := float64((col-canvasLeft)*2) + 1
	dotY := float64((row-canvasTop)*4) + 2
	s := m.scale()
	return r2.Vec{X: dotX / s, Y: dotY / s}
}

func (m *Model) resize(w, h int) {
	height := max(h-2*canvasTop, 10)
	width := min(2*height, max(w-2*canvasLeft-statsWidth-2, 10))
	if width == m.width && height == m.height {
		return
	}
	m.width, m.height = width, height
	m.canvas = NewCanvas(width, height)
}

func (m *Model) input() sim.Input {
	if !m.pointer.active {
		return sim.Input{}
	}
	p := m.pointer.world
	if m.pointer.push {
		return sim.Input{Push: &p}
	}
	return sim.Input{Pull: &p}
}

// step advances one frame and records the history shown in the panel.
func (m *Model) step() {
	if err := m.sim.Step(m.input(), true); err != nil {
		m.logger.Error("step failed", "err", err)
		m.err = err
		m.running = false
		return
	}
	if err := m.sim.Solver().Validate(); err != nil {
		m.logger.Error("invalid state", "err", err)
		m.err = err
		m.running = false
	}

	m.energyHistory = appendCapped(m.energyHistory, metrics.KineticEnergy(m.sim.Solver()))
	m.contactHistory = appendCapped(m.contactHistory, float64(m.sim.Solver().Stats().Contacts))
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// reset rebuilds the solver from the configuration.
func (m *Model) reset() {
	s, err := sim.FromConfig(m.cfg, m.seed)
	if err != nil {
		m.logger.Error("reset failed", "err", err)
		m.err = err
		return
	}
	s.SetLogger(m.logger)
	s.Solver().SetLogger(m.logger)
	m.sim = s
	m.err = nil
	m.pointer = pointer{}
	m.energyHistory = m.energyHistory[:0]
	m.contactHistory = m.contactHistory[:0]
	m.logger.Info("reset", "preset", m.name, "seed", m.seed)
}

func (m *Model) draw() {
	m.canvas.Clear()
	solver := m.sim.Solver()
	s := m.scale()

	center, radius := solver.Boundary()
	m.canvas.DrawCircle(int(center.X*s), int(center.Y*s), int(radius*s), CurrentTheme.Wall)

	mono := parseRGBA(string(CurrentTheme.Primary))
	for _, p := range solver.Objects() {
		clr := p.Color
		if CurrentTheme.Mono {
			clr = mono
		}
		m.canvas.FillCircle(int(p.Position.X*s), int(p.Position.Y*s), p.Radius*s, clr)
	}

	if m.pointer.active {
		px, py := int(m.pointer.world.X*s), int(m.pointer.world.Y*s)
		m.canvas.DrawCircle(px, py, int(solver.Config().MouseRadius*s), CurrentTheme.Pointer)
		m.canvas.DrawLine(px-1, py, px+1, py, CurrentTheme.Pointer)
		m.canvas.DrawLine(px, py-1, px, py+1, CurrentTheme.Pointer)
	}
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	f, err := os.Create(gifFile)
	if err != nil {
		m.logger.Error("create gif", "err", err)
		return
	}
	defer f.Close()
	if err := EncodeGIF(f, m.frames, 2); err != nil {
		m.logger.Error("encode gif", "err", err)
		return
	}
	m.logger.Info("saved recording", "file", gifFile, "frames", len(m.frames))
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.Render())

	solver := m.sim.Solver()
	stats := solver.Stats()
	maxObjects := m.cfg.Spawn.MaxObjects

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.name), CurrentTheme.Primary, CurrentTheme.Secondary) + "\n\n")

	switch {
	case m.err != nil:
		s.WriteString(StatusRecording.Render("ERROR") + "\n" + Subtle.Render(m.err.Error()) + "\n\n")
	case m.recording:
		s.WriteString(StatusRecording.Render(fmt.Sprintf("● REC %d", len(m.frames))) + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	fill := 0.0
	if maxObjects > 0 {
		fill = float64(solver.ObjectsCount()) / float64(maxObjects)
	}
	spawning := "on"
	if m.sim.Emitter().Paused() {
		spawning = "off"
	}

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", solver.Time()))
	row("Objects", fmt.Sprintf("%d / %d", solver.ObjectsCount(), maxObjects))
	s.WriteString(ProgressBar(fill, 28) + "\n")
	row("Contacts", fmt.Sprintf("%d", stats.Contacts))
	row("Overlap", fmt.Sprintf("%.3f", stats.MaxPenetration))
	row("Overflow", fmt.Sprintf("%d", stats.Overflow))
	row("FPS", fmt.Sprintf("%.0f", m.fps))
	row("Spawning", spawning)
	row("Theme", CurrentTheme.Name)

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(SparklineChart(m.contactHistory, 30) + "\n" + Subtle.Render("contacts") + "\n")

	s.WriteString(helpStyle.Render("\n" + Separator(30) + "\nSP:Pause R:Reset Q:Quit\nT:Theme  G:Record ?:Help\nLMB:Pull RMB:Push S:Spawn"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  .        - Step one frame (paused)  ║
║  R        - Reset simulation         ║
║  S        - Toggle spawning          ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q / Esc  - Quit                     ║
║  Left     - Pull particles           ║
║  Right    - Push particles           ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

func parseRGBA(hex string) color.RGBA {
	c := parseHex(hex)
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// RunLive opens the live view in the alternate screen with mouse tracking.
func RunLive(cfg *config.Config, name string, seed int64, logger *log.Logger) error {
	m, err := NewModel(cfg, name, seed, logger)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
