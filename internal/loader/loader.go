// Package loader decodes raster images from disk.
package loader

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lmittmann/ppm"
	_ "github.com/xfmoulet/qoi"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFormat is returned when no registered decoder
	// recognizes the file content. It wraps image.ErrFormat.
	ErrUnsupportedFormat = fmt.Errorf("unsupported image format: %w", image.ErrFormat)

	// ErrEmptyImage is returned for images with zero width or height. It is
	// shared with rgb.Normalize.
	ErrEmptyImage = errors.New("image has zero area")
)

// Image is a decoded input image.
type Image struct {
	Image image.Image
	// Format is the registered decoder name, sniffed from content.
	Format string
	// Size is the file size in bytes.
	Size int64
	Path string
}

// Width returns the image width in pixels.
func (im *Image) Width() int { return im.Image.Bounds().Dx() }

// Height returns the image height in pixels.
func (im *Image) Height() int { return im.Image.Bounds().Dy() }

// Decode opens path and decodes it with whichever registered decoder
// matches its content. The file extension is not consulted. Returned errors
// do not repeat the path; callers attach it.
func Decode(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", unwrapPath(err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", unwrapPath(err))
	}

	img, format, err := image.Decode(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}

	return &Image{
		Image:  img,
		Format: format,
		Size:   info.Size(),
		Path:   path,
	}, nil
}

// unwrapPath strips the operation and path from an *fs.PathError.
func unwrapPath(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

// extensionFormats maps recognized file extensions to decoder names.
var extensionFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".tiff": "tiff",
	".tif":  "tiff",
	".webp": "webp",
	".qoi":  "qoi",
	".ppm":  "ppm",
}

// FormatFromExt returns the decoder name conventionally used for the
// extension of path, or "" when the extension is not recognized.
func FormatFromExt(path string) string {
	return extensionFormats[strings.ToLower(filepath.Ext(path))]
}

// Formats lists, sorted, the decoder names FormatFromExt can return.
func Formats() []string {
	set := map[string]bool{}
	for _, f := range extensionFormats {
		set[f] = true
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
