package texture

import (
	"image"
	"image/color"
	"testing"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{8192, 4096, 4096, 4096, 2048},
		{4096, 8192, 4096, 2048, 4096},
		{2048, 1024, 4096, 2048, 1024},
		{8192, 4096, 0, 8192, 4096},
		{10000, 1, 100, 100, 1},
	}
	for _, tt := range tests {
		gotW, gotH := FitSize(tt.w, tt.h, tt.max)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("FitSize(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}

func TestToRGBAKeepsOriginImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if ToRGBA(src) != src {
		t.Error("expected an origin-based RGBA image to be returned without copying")
	}
}

func TestToRGBAConvertsAndRebases(t *testing.T) {
	src := image.NewGray(image.Rect(2, 3, 6, 5))
	src.SetGray(2, 3, color.Gray{Y: 200})

	got := ToRGBA(src)
	if got.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("expected rebased 4x2 bounds, got %v", got.Bounds())
	}
	if c := got.RGBAAt(0, 0); c.R != 200 || c.G != 200 || c.B != 200 || c.A != 255 {
		t.Errorf("expected grey 200 at origin, got %v", c)
	}
}

func TestFitScalesDown(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	got := Fit(src, 16)
	if got.Bounds().Dx() != 16 || got.Bounds().Dy() != 8 {
		t.Fatalf("expected 16x8, got %v", got.Bounds())
	}
	if c := got.RGBAAt(8, 4); c != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("expected uniform colour to survive scaling, got %v", c)
	}
}
