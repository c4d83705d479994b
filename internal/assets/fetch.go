package assets

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/earthview/internal/logger"
)

// Options configures a Fetcher.
type Options struct {
	MaxConcurrent  int           // simultaneous downloads, default 4
	Timeout        time.Duration // per fetch, default 60s
	MaxTextureSize int           // longest edge kept after decode, 0 = unlimited
	Cache          *Cache        // nil creates a private cache
}

// Fetcher downloads and decodes texture assets.
//
// Fetch is safe to call from many goroutines. Requests for the same URI that
// overlap share one download, and finished textures are kept in the cache.
type Fetcher struct {
	source  Source
	cache   *Cache
	group   singleflight.Group
	sem     *semaphore.Weighted
	timeout time.Duration
	maxEdge int
	log     *zap.Logger
}

// NewFetcher creates a fetcher reading from src.
func NewFetcher(src Source, opts Options) *Fetcher {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = NewCache()
	}
	return &Fetcher{
		source:  src,
		cache:   opts.Cache,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		timeout: opts.Timeout,
		maxEdge: opts.MaxTextureSize,
		log:     logger.Named("fetcher"),
	}
}

// Fetch loads asset.URI, updating the asset's byte counters as data arrives.
// It does not change the asset's state; the caller attaches the result.
//
// The download itself is detached from ctx so that a shared request survives
// one caller giving up. Cancelling ctx only stops this caller from waiting.
func (f *Fetcher) Fetch(ctx context.Context, asset *TextureAsset) (*Decoded, error) {
	if d, ok := f.cache.Get(asset.URI); ok {
		asset.setTotal(d.Bytes)
		asset.loaded.Store(d.Bytes)
		return d, nil
	}

	ch := f.group.DoChan(asset.URI, func() (any, error) {
		return f.load(context.WithoutCancel(ctx), asset)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetching %s: %w", asset.URI, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		d := res.Val.(*Decoded)
		if res.Shared {
			asset.setTotal(d.Bytes)
			asset.loaded.Store(d.Bytes)
		}
		return d, nil
	}
}

// load waits for a download slot, then fetches and decodes. The timeout
// covers only the work after the slot is acquired.
func (f *Fetcher) load(ctx context.Context, asset *TextureAsset) (*Decoded, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("fetching %s: waiting for a slot: %w", asset.URI, err)
	}
	defer f.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	rc, size, err := f.source.Open(ctx, asset.URI)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", asset.URI, err)
	}
	defer rc.Close()

	asset.setTotal(size)
	data, err := io.ReadAll(&countingReader{r: rc, asset: asset})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", asset.URI, err)
	}

	d, err := Decode(data, f.maxEdge)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", asset.URI, err)
	}
	f.cache.Set(asset.URI, d)

	b := d.Image.Bounds()
	f.log.Debug("texture fetched",
		zap.String("uri", asset.URI),
		zap.String("type", d.Type.MIME.Value),
		zap.Int64("bytes", d.Bytes),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Duration("elapsed", time.Since(start)))
	return d, nil
}

// countingReader reports streamed bytes to the asset's progress counter.
type countingReader struct {
	r     io.Reader
	asset *TextureAsset
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.asset.addLoaded(int64(n))
	}
	return n, err
}
