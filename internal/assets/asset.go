// Package assets fetches and decodes texture images for the globe.
package assets

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/h2non/filetype/types"
)

// State is the load state of a TextureAsset.
type State int

const (
	StateRequested State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "requested"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TextureAsset tracks one texture image from request to decoded pixels.
//
// Everything except the byte counters belongs to the render thread. The
// counters are written by the fetch goroutine while bytes stream in.
type TextureAsset struct {
	URI      string
	FileType types.Type
	Image    *image.RGBA
	Err      error

	// NeedsUpload is set whenever Image changes and cleared by the renderer
	// after it copies the pixels to the GPU.
	NeedsUpload bool

	state  State
	total  atomic.Int64
	loaded atomic.Int64
}

// NewTextureAsset creates an asset in the requested state.
func NewTextureAsset(uri string) *TextureAsset {
	return &TextureAsset{URI: uri, FileType: types.Unknown}
}

// State returns the current load state.
func (a *TextureAsset) State() State { return a.state }

// Ready reports whether the decoded image is attached.
func (a *TextureAsset) Ready() bool { return a.state == StateReady }

// Failed reports whether the fetch ended in an error.
func (a *TextureAsset) Failed() bool { return a.state == StateFailed }

// Done reports whether the asset reached a terminal state.
func (a *TextureAsset) Done() bool { return a.state == StateReady || a.state == StateFailed }

// MarkLoading records that a fetch has been issued.
func (a *TextureAsset) MarkLoading() {
	if a.state == StateRequested {
		a.state = StateLoading
	}
}

// Attach stores the decoded texture and flags it for upload.
func (a *TextureAsset) Attach(d *Decoded) {
	a.Image = d.Image
	a.FileType = d.Type
	a.Err = nil
	a.NeedsUpload = true
	a.total.Store(d.Bytes)
	a.loaded.Store(d.Bytes)
	a.state = StateReady
}

// Fail records a fetch error. The asset never becomes ready afterwards.
func (a *TextureAsset) Fail(err error) {
	a.Err = err
	a.state = StateFailed
}

// Bytes returns the loaded and total byte counts. Total is 0 before the
// response arrives and -1 when the source does not report a size.
func (a *TextureAsset) Bytes() (loaded, total int64) {
	return a.loaded.Load(), a.total.Load()
}

func (a *TextureAsset) setTotal(n int64) { a.total.Store(n) }

func (a *TextureAsset) addLoaded(n int64) { a.loaded.Add(n) }
