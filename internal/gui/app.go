package gui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/sim"
)

// Theme Colors (Monochrome Hyper-Minimalist)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)    // Deep Black
	ColAccent  = rl.NewColor(180, 180, 180, 255) // Soft White
	ColSelect  = rl.NewColor(255, 255, 255, 255) // Bright White
	ColText    = rl.NewColor(140, 140, 140, 255) // Neutral Gray
	ColTextDim = rl.NewColor(60, 60, 60, 255)    // Dark Gray (Subtle)
	ColWall    = rl.NewColor(90, 90, 90, 255)
)

const maxTelemetry = 200

// App is the raylib front end. World units map 1:1 to window pixels, so
// resizing the window resizes the solver grid.
type App struct {
	cfg       *config.Config
	name      string
	seed      int64
	sim       *sim.Simulator
	running   bool
	inMenu    bool
	quit      bool
	presets   []string
	selected  int
	telemetry []float64 // kinetic energy per frame
	cursor    r2.Vec
	cursorOn  bool
	font      rl.Font
	logger    *log.Logger
}

// initWindow opens a resizable window of the configured size at 60 FPS and
// disables the default exit key.
func initWindow(w, h int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(w), int32(h), "verletsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont loads Liberation Mono when installed and the raylib default
// otherwise.
func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	if font.Texture.ID == 0 {
		return rl.GetFontDefault()
	}
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func newApp(cfg *config.Config, name string, seed int64, interactive bool, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &App{
		cfg:       cfg,
		name:      name,
		seed:      seed,
		inMenu:    interactive,
		running:   !interactive,
		presets:   config.ListPresets(),
		telemetry: make([]float64, 0, maxTelemetry),
		font:      loadFont(),
		logger:    logger,
	}
	if !interactive {
		if err := a.load(cfg, name); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Run opens a window on cfg and blocks until it is closed.
func Run(cfg *config.Config, name string, seed int64, logger *log.Logger) error {
	initWindow(cfg.Window.Width, cfg.Window.Height)
	defer rl.CloseWindow()
	a, err := newApp(cfg, name, seed, false, logger)
	if err != nil {
		return err
	}
	return a.RunLoop()
}

// RunInteractive opens a window on the preset menu.
func RunInteractive(seed int64, logger *log.Logger) error {
	cfg := config.DefaultConfig()
	initWindow(cfg.Window.Width, cfg.Window.Height)
	defer rl.CloseWindow()
	a, err := newApp(cfg, "default", seed, true, logger)
	if err != nil {
		return err
	}
	return a.RunLoop()
}

func (a *App) RunLoop() error {
	for !a.quit && !rl.WindowShouldClose() {
		if err := a.Update(); err != nil {
			return err
		}
		a.Draw()
	}
	return nil
}

func (a *App) load(cfg *config.Config, name string) error {
	s, err := sim.FromConfig(cfg, a.seed)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	s.SetLogger(a.logger)
	s.Solver().SetLogger(a.logger)

	a.cfg, a.name, a.sim = cfg, name, s
	a.telemetry = a.telemetry[:0]
	a.logger.Info("loaded preset", "preset", name, "seed", a.seed)
	return nil
}

func (a *App) Update() error {
	if rl.IsKeyPressed(rl.KeyQ) {
		a.quit = true
		return nil
	}

	if a.inMenu {
		return a.updateMenu()
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.inMenu = true
		a.running = false
		return nil
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.running = !a.running
	}
	if rl.IsKeyPressed(rl.KeyR) {
		return a.load(a.cfg, a.name)
	}
	if rl.IsKeyPressed(rl.KeyS) {
		e := a.sim.Emitter()
		e.SetPaused(!e.Paused())
	}

	in := a.input()
	if a.running || rl.IsKeyPressed(rl.KeyPeriod) {
		return a.step(in)
	}
	return nil
}

func (a *App) updateMenu() error {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.selected = (a.selected + 1) % len(a.presets)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.selected--
		if a.selected < 0 {
			a.selected = len(a.presets) - 1
		}
	}
	if rl.IsKeyPressed(rl.KeyEscape) && a.sim != nil {
		a.inMenu = false
		return nil
	}

	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		name := a.presets[a.selected]
		if err := a.load(config.GetPreset(name), name); err != nil {
			return err
		}
		a.inMenu = false
		a.running = true
	}
	return nil
}

// input reads the pointer: left button pulls, right button pushes.
func (a *App) input() sim.Input {
	mouse := rl.GetMousePosition()
	a.cursor = r2.Vec{X: float64(mouse.X), Y: float64(mouse.Y)}
	a.cursorOn = false

	in := sim.Input{Window: physics.Size{Width: rl.GetScreenWidth(), Height: rl.GetScreenHeight()}}
	p := a.cursor
	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		in.Pull = &p
		a.cursorOn = true
	} else if rl.IsMouseButtonDown(rl.MouseRightButton) {
		in.Push = &p
		a.cursorOn = true
	}
	return in
}

func (a *App) step(in sim.Input) error {
	if err := a.sim.Step(in, true); err != nil {
		return err
	}
	if err := a.sim.Solver().Validate(); err != nil {
		a.logger.Error("invalid state", "err", err)
		a.running = false
		return err
	}

	a.telemetry = append(a.telemetry, metrics.KineticEnergy(a.sim.Solver()))
	if len(a.telemetry) > maxTelemetry {
		a.telemetry = a.telemetry[1:]
	}
	return nil
}
