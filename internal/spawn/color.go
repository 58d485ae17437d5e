package spawn

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Rainbow cycles each channel through sin², a third of a turn apart.
func Rainbow(t float64) color.RGBA {
	c := colorful.Color{
		R: sq(math.Sin(t)),
		G: sq(math.Sin(t + 2*math.Pi/3)),
		B: sq(math.Sin(t + 4*math.Pi/3)),
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func sq(v float64) float64 { return v * v }
