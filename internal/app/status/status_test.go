package status

import (
	"testing"
	"time"

	"github.com/Faultbox/earthview/internal/globe"
)

func TestLoadingTitle(t *testing.T) {
	tests := []struct {
		name string
		p    globe.LoadProgress
		want string
	}{
		{
			name: "count only",
			p:    globe.LoadProgress{Done: 1, Count: 4},
			want: "earthview - loading textures 1/4 (25%)",
		},
		{
			name: "with sizes",
			p:    globe.LoadProgress{Done: 1, Count: 2, Sized: 2, Loaded: 1 << 20, Total: 4 << 20},
			want: "earthview - loading textures 1/2 (25%) 1.0/4.0 MB",
		},
		{
			name: "with failures",
			p:    globe.LoadProgress{Done: 2, Failed: 1, Count: 2},
			want: "earthview - loading textures 2/2 (100%), 1 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoadingTitle("earthview", tt.p); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIndicatorSkipsUnchangedTitles(t *testing.T) {
	var titles []string
	ind := NewIndicator("earthview", func(s string) { titles = append(titles, s) })

	p := globe.LoadProgress{Done: 0, Count: 2}
	ind.Update(p)
	ind.Update(p)
	p.Done = 2
	ind.Update(p)
	ind.Remove()

	want := []string{
		"earthview - loading textures 0/2 (0%)",
		"earthview - loading textures 2/2 (100%)",
		"earthview",
	}
	if len(titles) != len(want) {
		t.Fatalf("expected %d titles, got %v", len(want), titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("title %d: got %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestFPSCounter(t *testing.T) {
	var c FPSCounter
	t0 := time.Unix(0, 0)

	for i := 0; i < 60; i++ {
		if c.Tick(t0.Add(time.Duration(i) * time.Second / 60)) {
			t.Fatalf("sample reported early at frame %d", i)
		}
	}
	if !c.Tick(t0.Add(time.Second)) {
		t.Fatal("expected a sample after one second")
	}
	if c.FPS() != 61 {
		t.Errorf("expected 61 fps, got %d", c.FPS())
	}
	if FPSTitle("earthview", c.FPS()) != "earthview - 61 fps" {
		t.Errorf("unexpected title %q", FPSTitle("earthview", c.FPS()))
	}
}
