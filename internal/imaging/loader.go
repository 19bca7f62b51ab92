package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnreadable marks a source path that does not resolve to a decodable
// raster: missing, not a regular file, or not an image.
var ErrUnreadable = errors.New("image not found or unreadable")

// Load reads and decodes a raster file.
//
// Every failure wraps ErrUnreadable so callers can tell an input problem from
// a processing problem with errors.Is.
func Load(path string) (image.Image, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrUnreadable, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrUnreadable, path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrUnreadable, path)
	}
	return img, nil
}

// DefaultCacheSize bounds NewImageCache.
const DefaultCacheSize = 32

// ImageCache keeps decoded images keyed by path for the long-running
// front ends, which are asked about the same file repeatedly. The least
// recently used image is dropped once the cache is full.
//
// ImageCache is safe for concurrent use.
type ImageCache struct {
	images *lru.Cache[string, image.Image]
}

// NewImageCache returns an empty cache holding up to DefaultCacheSize images.
func NewImageCache() *ImageCache {
	return NewImageCacheSize(DefaultCacheSize)
}

// NewImageCacheSize returns an empty cache holding up to size images.
// Sizes below one are raised to one.
func NewImageCacheSize(size int) *ImageCache {
	images, _ := lru.New[string, image.Image](max(size, 1))
	return &ImageCache{images: images}
}

// Load returns the cached image for path, decoding it with Load on a miss.
// Paths are compared as given; a relative and an absolute path to the same
// file are separate entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.images.Get(path); ok {
		return img, nil
	}

	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.images.Add(path, img)
	return img, nil
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int { return c.images.Len() }

// Clear drops every cached image.
func (c *ImageCache) Clear() { c.images.Purge() }

// Evict drops one path. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) { c.images.Remove(path) }

// Encode writes img to w in the format implied by name's extension.
func Encode(w io.Writer, name string, img image.Image) error {
	f, err := imaging.FormatFromFilename(name)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, f)
}

// CanEncode reports whether Encode supports name's extension.
func CanEncode(name string) bool {
	_, err := imaging.FormatFromFilename(name)
	return err == nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// GetDimensions loads path through the cache and reports its size and the
// format implied by its extension ("unknown" when unrecognized).
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = f.String()
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}
