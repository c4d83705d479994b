package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a source has no asset at the requested URI.
var ErrNotFound = errors.New("asset not found")

// Source opens raw asset bytes by URI.
type Source interface {
	// Open returns a reader for the asset and its size, or -1 if unknown.
	Open(ctx context.Context, uri string) (io.ReadCloser, int64, error)
}

// NewSource picks a source for base: http(s) URLs are fetched with GET,
// file URLs and plain paths are read from disk.
func NewSource(base string, client *http.Client) (Source, error) {
	switch {
	case strings.HasPrefix(base, "http://"), strings.HasPrefix(base, "https://"):
		return NewHTTPSource(base, client)
	case strings.HasPrefix(base, "file://"):
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing asset base %q: %w", base, err)
		}
		return NewDirSource(filepath.FromSlash(u.Path)), nil
	default:
		return NewDirSource(base), nil
	}
}

// HTTPSource fetches assets relative to a base URL.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource creates a source rooted at base. A nil client uses http.DefaultClient.
func NewHTTPSource(base string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing asset base %q: %w", base, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: u, client: client}, nil
}

// Resolve returns the absolute URL for uri.
func (s *HTTPSource) Resolve(uri string) (string, error) {
	ref, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	return s.base.ResolveReference(ref).String(), nil
}

// Open issues a GET for uri.
func (s *HTTPSource) Open(ctx context.Context, uri string) (io.ReadCloser, int64, error) {
	target, err := s.Resolve(uri)
	if err != nil {
		return nil, 0, fmt.Errorf("resolving %q: %w", uri, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, resp.ContentLength, nil
	case http.StatusNotFound, http.StatusGone:
		resp.Body.Close()
		return nil, 0, fmt.Errorf("GET %s: %w", target, ErrNotFound)
	default:
		resp.Body.Close()
		return nil, 0, fmt.Errorf("GET %s: unexpected status %s", target, resp.Status)
	}
}

// DirSource reads assets from a local directory.
type DirSource struct {
	root string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Open opens uri relative to the root directory.
func (s *DirSource) Open(ctx context.Context, uri string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	path := filepath.Join(s.root, filepath.FromSlash(uri))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("open %s: %w", path, ErrNotFound)
		}
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}
