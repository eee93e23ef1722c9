// Package rgb converts decoded images to packed 8-bit RGB.
package rgb

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/jpegsqueeze/internal/loader"
)

// Buffer holds packed 8-bit RGB samples, row-major with no padding.
type Buffer struct {
	Width, Height int
	// Pix holds Width*Height*3 bytes in R, G, B order.
	Pix []byte
	// AlphaDropped reports whether the source had pixels that were not fully
	// opaque.
	AlphaDropped bool
}

// Normalize converts img to 8-bit RGB. Any color model is accepted: it is
// first converted to non-premultiplied NRGBA, then alpha is discarded
// without compositing. Gray sources expand to three equal channels. A
// zero-area image yields loader.ErrEmptyImage.
func Normalize(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, loader.ErrEmptyImage
	}

	nrgba := imaging.Clone(img)
	buf := &Buffer{
		Width:        w,
		Height:       h,
		Pix:          make([]byte, w*h*3),
		AlphaDropped: HasAlpha(nrgba),
	}
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := buf.Pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dst[3*x+0] = src[4*x+0]
			dst[3*x+1] = src[4*x+1]
			dst[3*x+2] = src[4*x+2]
		}
	}
	return buf, nil
}

// HasAlpha reports whether any pixel has alpha < fully opaque.
func HasAlpha(img image.Image) bool {
	switch src := img.(type) {
	case *image.NRGBA:
		return anyTranslucent(src.Pix, src.Stride, src.Rect.Dx(), src.Rect.Dy())
	case *image.RGBA:
		return anyTranslucent(src.Pix, src.Stride, src.Rect.Dx(), src.Rect.Dy())
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return false
	default:
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				_, _, _, a := img.At(x, y).RGBA()
				if a < 0xffff {
					return true
				}
			}
		}
		return false
	}
}

func anyTranslucent(pix []byte, stride, w, h int) bool {
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for i := 3; i < len(row); i += 4 {
			if row[i] < 0xff {
				return true
			}
		}
	}
	return false
}

// AvgColor returns the mean of each channel.
func (b *Buffer) AvgColor() [3]uint8 {
	count := uint64(b.Width) * uint64(b.Height)
	if count == 0 {
		return [3]uint8{}
	}
	var sum [3]uint64
	for i := 0; i < len(b.Pix); i += 3 {
		sum[0] += uint64(b.Pix[i])
		sum[1] += uint64(b.Pix[i+1])
		sum[2] += uint64(b.Pix[i+2])
	}
	return [3]uint8{
		uint8(sum[0] / count),
		uint8(sum[1] / count),
		uint8(sum[2] / count),
	}
}
