package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, 32, 16)

	d, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.Type.Extension != "png" || d.Type.MIME.Value != "image/png" {
		t.Errorf("expected png type tag, got %+v", d.Type)
	}
	if d.Image.Bounds().Dx() != 32 || d.Image.Bounds().Dy() != 16 {
		t.Errorf("expected 32x16, got %v", d.Image.Bounds())
	}
	if d.Bytes != int64(len(data)) {
		t.Errorf("expected %d source bytes, got %d", len(data), d.Bytes)
	}
}

func TestDecodeScalesToMaxEdge(t *testing.T) {
	d, err := Decode(encodePNG(t, 64, 32), 16)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.Image.Bounds().Dx() != 16 || d.Image.Bounds().Dy() != 8 {
		t.Errorf("expected 16x8 after fitting, got %v", d.Image.Bounds())
	}
}

func TestDecodeRejectsNonImages(t *testing.T) {
	for name, data := range map[string][]byte{
		"text":  []byte("<html>not found</html>"),
		"empty": nil,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data, 0)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func newImageServer(t *testing.T, files map[string][]byte, hits *atomic.Int32, gate <-chan struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchOverHTTP(t *testing.T) {
	data := encodePNG(t, 8, 8)
	var hits atomic.Int32
	srv := newImageServer(t, map[string][]byte{"/images/earth_2K.png": data}, &hits, nil)

	src, err := NewSource(srv.URL+"/images", nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, ok := src.(*HTTPSource); !ok {
		t.Fatalf("expected HTTPSource, got %T", src)
	}

	f := NewFetcher(src, Options{})
	asset := NewTextureAsset("earth_2K.png")
	d, err := f.Fetch(context.Background(), asset)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	loaded, total := asset.Bytes()
	if loaded != int64(len(data)) || total != int64(len(data)) {
		t.Errorf("expected %d/%d bytes, got %d/%d", len(data), len(data), loaded, total)
	}
	if asset.State() != StateRequested {
		t.Errorf("Fetch must not change asset state, got %v", asset.State())
	}

	asset.Attach(d)
	if !asset.Ready() || !asset.NeedsUpload || asset.Image == nil {
		t.Errorf("expected attached asset to be ready and flagged for upload")
	}
}

func TestFetchNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := newImageServer(t, nil, &hits, nil)
	src, _ := NewHTTPSource(srv.URL, nil)

	_, err := NewFetcher(src, Options{}).Fetch(context.Background(), NewTextureAsset("missing_8K.jpg"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	var hits atomic.Int32
	gate := make(chan struct{}) // never released
	srv := newImageServer(t, map[string][]byte{"/slow.png": encodePNG(t, 2, 2)}, &hits, gate)
	src, _ := NewHTTPSource(srv.URL, nil)

	f := NewFetcher(src, Options{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := f.Fetch(context.Background(), NewTextureAsset("slow.png"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("timeout took too long: %v", time.Since(start))
	}
}

func TestFetchCallerCancel(t *testing.T) {
	var hits atomic.Int32
	gate := make(chan struct{})
	defer close(gate)
	srv := newImageServer(t, map[string][]byte{"/a.png": encodePNG(t, 2, 2)}, &hits, gate)
	src, _ := NewHTTPSource(srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher(src, Options{}).Fetch(ctx, NewTextureAsset("a.png"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchSharesConcurrentRequests(t *testing.T) {
	var hits atomic.Int32
	gate := make(chan struct{})
	srv := newImageServer(t, map[string][]byte{"/clouds_4K.png": encodePNG(t, 4, 4)}, &hits, gate)
	src, _ := NewHTTPSource(srv.URL, nil)
	f := NewFetcher(src, Options{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.Fetch(context.Background(), NewTextureAsset("clouds_4K.png"))
		}(i)
	}

	deadline := time.Now().Add(5 * time.Second)
	for hits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("fetch %d: %v", i, err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected one download, server saw %d", n)
	}
}

func TestFetchUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newImageServer(t, map[string][]byte{"/stars_4K.png": encodePNG(t, 4, 4)}, &hits, nil)
	src, _ := NewHTTPSource(srv.URL, nil)
	cache := NewCache()
	f := NewFetcher(src, Options{Cache: cache})

	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), NewTextureAsset("stars_4K.png")); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}

	if n := hits.Load(); n != 1 {
		t.Errorf("expected one download, server saw %d", n)
	}
	cacheHits, misses := cache.Stats()
	if cacheHits != 2 || misses != 1 {
		t.Errorf("expected 2 hits / 1 miss, got %d / %d", cacheHits, misses)
	}
}

func TestFetchFromDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "borders_4K.png"), encodePNG(t, 8, 4), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	src, err := NewSource(dir, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	f := NewFetcher(src, Options{})

	d, err := f.Fetch(context.Background(), NewTextureAsset("borders_4K.png"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if d.Image.Bounds().Dx() != 8 {
		t.Errorf("expected width 8, got %d", d.Image.Bounds().Dx())
	}

	_, err = f.Fetch(context.Background(), NewTextureAsset("nope.png"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing file, got %v", err)
	}
}

func TestNewSourceFileURL(t *testing.T) {
	src, err := NewSource("file:///srv/earth", nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	ds, ok := src.(*DirSource)
	if !ok {
		t.Fatalf("expected DirSource, got %T", src)
	}
	if ds.root != filepath.FromSlash("/srv/earth") {
		t.Errorf("unexpected root %q", ds.root)
	}
}

func TestHTTPSourceResolve(t *testing.T) {
	src, err := NewHTTPSource("https://cdn.example.com/earth", nil)
	if err != nil {
		t.Fatalf("NewHTTPSource: %v", err)
	}
	got, err := src.Resolve("earth_no_clouds_8K.jpg")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := "https://cdn.example.com/earth/earth_no_clouds_8K.jpg"; got != want {
		t.Errorf("Resolve = %s, want %s", got, want)
	}
}

func TestTextureAssetFail(t *testing.T) {
	a := NewTextureAsset("x.png")
	a.MarkLoading()
	if a.State() != StateLoading {
		t.Fatalf("expected loading, got %v", a.State())
	}
	a.Fail(ErrNotFound)
	if !a.Failed() || !a.Done() || a.Ready() {
		t.Errorf("expected failed terminal state, got %v", a.State())
	}
}

// delayedSource serves the same image after a fixed delay per open.
type delayedSource struct {
	data  []byte
	delay time.Duration
}

func (s *delayedSource) Open(ctx context.Context, uri string) (io.ReadCloser, int64, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
	return io.NopCloser(bytes.NewReader(s.data)), int64(len(s.data)), nil
}

func TestFetchTimeoutExcludesQueueing(t *testing.T) {
	src := &delayedSource{data: encodePNG(t, 2, 2), delay: 150 * time.Millisecond}
	f := NewFetcher(src, Options{MaxConcurrent: 1, Timeout: 200 * time.Millisecond})

	uris := []string{"earth_no_clouds_2K.jpg", "fair_clouds_2K.png", "water_4K.png"}
	errs := make([]error, len(uris))
	var wg sync.WaitGroup
	for i, uri := range uris {
		i, uri := i, uri
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.Fetch(context.Background(), NewTextureAsset(uri))
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("%s: expected queued fetch to get its own timeout, got %v", uris[i], err)
		}
	}
}
