package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lmittmann/ppm"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
)

// testImage is opaque RGBA, the one color model every encoder below,
// ppm included, accepts.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 30), B: 90, A: 255})
		}
	}
	return img
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDecode_Formats(t *testing.T) {
	src := testImage(7, 5)
	encoders := []struct {
		name   string
		file   string
		encode func(*bytes.Buffer) error
	}{
		{"png", "a.png", func(b *bytes.Buffer) error { return png.Encode(b, src) }},
		{"bmp", "a.bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }},
		{"qoi", "a.qoi", func(b *bytes.Buffer) error { return qoi.Encode(b, src) }},
		{"ppm", "a.ppm", func(b *bytes.Buffer) error { return ppm.Encode(b, src) }},
	}
	for _, enc := range encoders {
		t.Run(enc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := enc.encode(&buf); err != nil {
				t.Fatalf("encode: %v", err)
			}
			path := writeFile(t, enc.file, buf.Bytes())

			img, err := Decode(path)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if img.Format != enc.name {
				t.Errorf("format: got %q, want %q", img.Format, enc.name)
			}
			if img.Width() != 7 || img.Height() != 5 {
				t.Errorf("dimensions: got %dx%d", img.Width(), img.Height())
			}
			if img.Size != int64(buf.Len()) {
				t.Errorf("size: got %d, want %d", img.Size, buf.Len())
			}
			if img.Path != path {
				t.Errorf("path: got %q", img.Path)
			}
		})
	}
}

func TestDecode_IgnoresExtension(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(3, 3)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := Decode(writeFile(t, "mislabelled.jpg", buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Format != "png" {
		t.Errorf("format: got %q, want png", img.Format)
	}
}

func TestDecode_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.png")
	_, err := Decode(path)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("got %v, want fs.ErrNotExist", err)
	}
	if strings.Contains(err.Error(), path) {
		t.Errorf("error %q repeats the path", err)
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode(writeFile(t, "notes.txt", []byte("definitely not an image")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
	if !errors.Is(err, image.ErrFormat) {
		t.Errorf("got %v, want image.ErrFormat in chain", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(16, 16)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err := Decode(writeFile(t, "cut.png", buf.Bytes()[:buf.Len()/2]))
	if err == nil {
		t.Fatal("expected error for truncated file")
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("truncated png reported as unsupported: %v", err)
	}
}

func TestDecode_ZeroArea(t *testing.T) {
	_, err := Decode(writeFile(t, "empty.ppm", []byte("P6 0 0 255\n")))
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("got %v, want ErrEmptyImage", err)
	}
}

func TestFormatFromExt(t *testing.T) {
	tests := map[string]string{
		"a.PNG":      "png",
		"b.jpg":      "jpeg",
		"c.tif":      "tiff",
		"dir/d.webp": "webp",
		"e.qoi":      "qoi",
		"f.txt":      "",
		"noext":      "",
	}
	for path, want := range tests {
		if got := FormatFromExt(path); got != want {
			t.Errorf("%s: got %q, want %q", path, got, want)
		}
	}
}

func TestFormats(t *testing.T) {
	want := []string{"bmp", "gif", "jpeg", "png", "ppm", "qoi", "tiff", "webp"}
	if diff := cmp.Diff(want, Formats()); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}
}
