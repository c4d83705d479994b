package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/earthview/internal/engine/texture"
)

// ErrUnsupportedFormat is returned for bytes that are not a decodable image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decoded is a texture image ready for GPU upload.
type Decoded struct {
	Image *image.RGBA
	Type  types.Type
	Bytes int64 // size of the encoded source
}

// decodable lists the extensions with a registered image decoder.
var decodable = map[string]bool{
	"jpg":  true,
	"png":  true,
	"gif":  true,
	"bmp":  true,
	"tif":  true,
	"webp": true,
}

// Decode sniffs and decodes data into RGBA pixels. Images with an edge
// longer than maxEdge are scaled down to fit; maxEdge <= 0 keeps the size.
func Decode(data []byte, maxEdge int) (*Decoded, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if kind == filetype.Unknown || !decodable[kind.Extension] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind.Extension, err)
	}

	return &Decoded{
		Image: texture.Fit(img, maxEdge),
		Type:  kind,
		Bytes: int64(len(data)),
	}, nil
}
