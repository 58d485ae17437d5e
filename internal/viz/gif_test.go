package viz

import (
	"bytes"
	"image"
	"image/gif"
	"testing"

	"github.com/san-kum/verletsim/internal/sim"
)

func TestRenderFrame(t *testing.T) {
	f := sim.Frame{
		CenterX: 100, CenterY: 100, Boundary: 90,
		Particles: []sim.ParticleSnapshot{{X: 100, Y: 100, Radius: 10, Color: 0xff0000}},
	}

	img := RenderFrame(f, 200, 200, 0.5)
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("unexpected bounds %v", b)
	}

	r, g, b, _ := img.At(50, 50).RGBA()
	if r>>8 < 200 || g>>8 > 60 || b>>8 > 60 {
		t.Errorf("particle centre not red: %d %d %d", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := img.At(2, 2).RGBA(); r|g|b != 0 {
		t.Error("background should be black")
	}
}

func TestEncodeGIF(t *testing.T) {
	f := sim.Frame{CenterX: 50, CenterY: 50, Boundary: 40}
	frames := []*image.Paletted{RenderFrame(f, 100, 100, 1), RenderFrame(f, 100, 100, 1)}

	var buf bytes.Buffer
	if err := EncodeGIF(&buf, frames, 2); err != nil {
		t.Fatalf("EncodeGIF failed: %v", err)
	}
	anim, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(anim.Image) != 2 || anim.Delay[0] != 2 {
		t.Errorf("unexpected animation: %d frames, delay %v", len(anim.Image), anim.Delay)
	}
}
