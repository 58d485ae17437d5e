package viz

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"

	"github.com/san-kum/verletsim/internal/sim"
)

// RenderFrame rasterises a snapshot at scale pixels per world unit onto a
// Plan 9 palette image of the given world size.
func RenderFrame(f sim.Frame, worldW, worldH int, scale float64) *image.Paletted {
	w, h := int(float64(worldW)*scale), int(float64(worldH)*scale)
	img := image.NewPaletted(image.Rect(0, 0, max(w, 1), max(h, 1)), palette.Plan9)
	bg := uint8(img.Palette.Index(color.Black))
	for i := range img.Pix {
		img.Pix[i] = bg
	}

	wall := img.Palette.Index(CurrentTheme.Wall)
	cx, cy, r := float64(f.CenterX)*scale, float64(f.CenterY)*scale, float64(f.Boundary)*scale
	ring(img, cx, cy, r, uint8(wall))

	for _, p := range f.Particles {
		idx := uint8(img.Palette.Index(unpack(p.Color)))
		disk(img, float64(p.X)*scale, float64(p.Y)*scale, float64(p.Radius)*scale, idx)
	}
	return img
}

// EncodeGIF writes frames as a looping animation, delay in 100ths of a
// second per frame.
func EncodeGIF(w io.Writer, frames []*image.Paletted, delay int) error {
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, &anim)
}

func unpack(c uint32) color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
}

func disk(img *image.Paletted, cx, cy, r float64, idx uint8) {
	r = max(r, 0.5)
	b := img.Bounds()
	for y := int(cy - r); y <= int(cy+r); y++ {
		for x := int(cx - r); x <= int(cx+r); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(b) {
				img.SetColorIndex(x, y, idx)
			}
		}
	}
}

func ring(img *image.Paletted, cx, cy, r float64, idx uint8) {
	b := img.Bounds()
	inner, outer := (r-1)*(r-1), r*r
	for y := int(cy - r); y <= int(cy+r); y++ {
		for x := int(cx - r); x <= int(cx+r); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			d := dx*dx + dy*dy
			if d >= inner && d <= outer && image.Pt(x, y).In(b) {
				img.SetColorIndex(x, y, idx)
			}
		}
	}
}
