package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/verletsim/internal/config"
)

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.inMenu {
		a.drawMenu()
	} else {
		a.drawSim()
		a.drawHUD()
	}

	rl.EndDrawing()
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) drawSim() {
	solver := a.sim.Solver()

	center, radius := solver.Boundary()
	rl.DrawCircleLines(int32(center.X), int32(center.Y), float32(radius), ColWall)

	for _, p := range solver.Objects() {
		pos := rl.NewVector2(float32(p.Position.X), float32(p.Position.Y))
		rl.DrawCircleV(pos, float32(p.Radius), rl.NewColor(p.Color.R, p.Color.G, p.Color.B, 255))
	}

	if a.cursorOn {
		r := float32(solver.Config().MouseRadius)
		rl.DrawCircleLines(int32(a.cursor.X), int32(a.cursor.Y), r, rl.NewColor(255, 255, 255, 100))
		rl.DrawCircleLines(int32(a.cursor.X), int32(a.cursor.Y), 4, rl.NewColor(255, 255, 255, 180))
	}
}

func (a *App) drawHUD() {
	solver := a.sim.Solver()
	stats := solver.Stats()
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()

	a.drawText("verletsim", 20, 20, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.name), 160, 24, 16, ColText)

	status := "RUNNING"
	col := ColSelect
	if !a.running {
		status = "PAUSED"
		col = ColTextDim
	}
	a.drawText(status, w-110, 20, 16, col)

	y := 60
	for _, line := range []string{
		fmt.Sprintf("objects  %d / %d", solver.ObjectsCount(), a.cfg.Spawn.MaxObjects),
		fmt.Sprintf("time     %.2fs", solver.Time()),
		fmt.Sprintf("contacts %d", stats.Contacts),
		fmt.Sprintf("overlap  %.3f", stats.MaxPenetration),
	} {
		a.drawText(line, 20, y, 14, ColText)
		y += 18
	}
	if stats.Overflow > 0 {
		a.drawText(fmt.Sprintf("overflow %d", stats.Overflow), 20, y, 14, rl.Red)
	}

	a.drawTelemetry(20, h-90)

	a.drawText("[SPACE] PAUSE  [.] STEP  [R] RESET  [S] SPAWN  [ESC] MENU  [Q] QUIT", 20, h-24, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), w-80, h-24, 14, ColTextDim)
}

// drawTelemetry plots recent kinetic energy as a strip normalised to its
// own range.
func (a *App) drawTelemetry(rectX, rectY int) {
	if len(a.telemetry) < 2 {
		return
	}

	width, height := 300, 50

	minVal, maxVal := a.telemetry[0], a.telemetry[0]
	for _, v := range a.telemetry {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.telemetry))
	for i, val := range a.telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("KE: %.2e", a.telemetry[len(a.telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}

func (a *App) drawMenu() {
	h := rl.GetScreenHeight()
	a.drawText("verletsim", 50, 50, 40, ColSelect)
	a.drawText("Select Preset", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.presets {
		desc := config.Presets[name].Description
		if i == a.selected {
			a.drawText(fmt.Sprintf("> %-10s %s", name, desc), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %-10s %s", name, desc), 50, y, 20, ColText)
		}
		y += 28
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 50, h-30, 14, ColTextDim)
}
