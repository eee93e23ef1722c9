package jpegenc

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
)

// gradient returns w*h RGB samples of a smooth diagonal gradient.
func gradient(w, h int) []byte {
	pix := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix = append(pix,
				uint8(x*255/max(w-1, 1)),
				uint8(y*255/max(h-1, 1)),
				uint8((x+y)*255/max(w+h-2, 1)))
		}
	}
	return pix
}

// busy returns w*h RGB samples with hard edges and texture, so every
// coefficient band carries energy.
func busy(w, h int) []byte {
	pix := make([]byte, 0, w*h*3)
	seed := uint32(1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed = seed*1664525 + 1013904223
			noise := uint8(seed >> 27)
			base := uint8(0)
			if (x/5+y/7)%2 == 0 {
				base = 200
			}
			pix = append(pix, base+noise, uint8(x*3)+noise, uint8(255-y*2)+noise)
		}
	}
	return pix
}

func encodeOrFail(t *testing.T, pix []byte, cfg Config) []byte {
	t.Helper()
	data, err := Encode(pix, cfg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func decodeOrFail(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

// maxDiff returns the largest per-channel difference between pix and img.
func maxDiff(pix []byte, img image.Image) int {
	b := img.Bounds()
	worst := 0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			got := [3]int{int(r >> 8), int(g >> 8), int(bl >> 8)}
			off := (y*b.Dx() + x) * 3
			for c := 0; c < 3; c++ {
				d := got[c] - int(pix[off+c])
				if d < 0 {
					d = -d
				}
				worst = max(worst, d)
			}
		}
	}
	return worst
}

func rgbConfig(w, h, quality int, p Policy) Config {
	return Config{Width: w, Height: h, Quality: quality, ColorSpace: ColorSpaceRGB, Policy: p}
}
