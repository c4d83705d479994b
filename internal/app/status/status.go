// Package status formats the window title, which doubles as the loading
// progress indicator and the FPS readout.
package status

import (
	"fmt"
	"time"

	"github.com/Faultbox/earthview/internal/globe"
)

// Indicator shows texture loading progress through a title setter.
type Indicator struct {
	base string
	set  func(string)
	last string
}

// NewIndicator creates an indicator that writes titles with set.
func NewIndicator(base string, set func(string)) *Indicator {
	return &Indicator{base: base, set: set}
}

// Update shows p.
func (i *Indicator) Update(p globe.LoadProgress) { i.show(LoadingTitle(i.base, p)) }

// Remove restores the plain title.
func (i *Indicator) Remove() { i.show(i.base) }

func (i *Indicator) show(title string) {
	if title == i.last {
		return
	}
	i.last = title
	i.set(title)
}

// LoadingTitle formats a title such as
// "earthview - loading textures 3/7 (42%) 12.0/28.5 MB".
func LoadingTitle(base string, p globe.LoadProgress) string {
	s := fmt.Sprintf("%s - loading textures %d/%d (%.0f%%)", base, p.Done, p.Count, p.Fraction()*100)
	if p.Total > 0 {
		s += fmt.Sprintf(" %.1f/%.1f MB", megabytes(p.Loaded), megabytes(p.Total))
	}
	if p.Failed > 0 {
		s += fmt.Sprintf(", %d failed", p.Failed)
	}
	return s
}

func megabytes(n int64) float64 { return float64(n) / (1 << 20) }

// FPSCounter counts frames over one-second windows.
type FPSCounter struct {
	frames int
	start  time.Time
	fps    int
}

// Tick records a frame at now and reports whether a new one-second sample
// is available.
func (c *FPSCounter) Tick(now time.Time) bool {
	if c.start.IsZero() {
		c.start = now
	}
	c.frames++
	elapsed := now.Sub(c.start)
	if elapsed < time.Second {
		return false
	}
	c.fps = int(float64(c.frames) / elapsed.Seconds())
	c.frames = 0
	c.start = now
	return true
}

// FPS returns the last sample.
func (c *FPSCounter) FPS() int { return c.fps }

// FPSTitle formats the title shown once loading has finished.
func FPSTitle(base string, fps int) string {
	return fmt.Sprintf("%s - %d fps", base, fps)
}
