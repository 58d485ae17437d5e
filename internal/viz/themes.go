package viz

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the TUI and the boundary ring.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Muted     lipgloss.Color
	Wall      color.RGBA
	Pointer   color.RGBA
	// Mono draws every particle in Primary instead of its own color.
	Mono bool
}

var (
	ThemeRainbow = Theme{
		Name:      "rainbow",
		Primary:   lipgloss.Color("#ff00ff"),
		Secondary: lipgloss.Color("#00ffff"),
		Accent:    lipgloss.Color("#ffff00"),
		Muted:     lipgloss.Color("#666666"),
		Wall:      color.RGBA{R: 90, G: 90, B: 110, A: 255},
		Pointer:   color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#88ff88"),
		Muted:     lipgloss.Color("#005500"),
		Wall:      color.RGBA{G: 120, A: 255},
		Pointer:   color.RGBA{R: 136, G: 255, B: 136, A: 255},
		Mono:      true,
	}

	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#0077be"),
		Secondary: lipgloss.Color("#00a8cc"),
		Accent:    lipgloss.Color("#ffd700"),
		Muted:     lipgloss.Color("#4488aa"),
		Wall:      color.RGBA{R: 0, G: 119, B: 190, A: 255},
		Pointer:   color.RGBA{R: 255, G: 215, A: 255},
	}

	ThemeSunset = Theme{
		Name:      "sunset",
		Primary:   lipgloss.Color("#ff6b6b"),
		Secondary: lipgloss.Color("#feca57"),
		Accent:    lipgloss.Color("#ff9ff3"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Wall:      color.RGBA{R: 139, G: 107, B: 140, A: 255},
		Pointer:   color.RGBA{R: 254, G: 202, B: 87, A: 255},
	}

	CurrentTheme = ThemeRainbow

	Themes = []Theme{
		ThemeRainbow,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, or the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeRainbow
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = ThemeRainbow
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
