package jpegenc

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"testing"
)

// ─── Configuration ───────────────────────────────────────────────────

func TestNew_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero width", rgbConfig(0, 8, 85, MaxCompression())},
		{"negative height", rgbConfig(8, -1, 85, MaxCompression())},
		{"too wide", rgbConfig(maxDimension+1, 8, 85, MaxCompression())},
		{"quality zero", rgbConfig(8, 8, 0, MaxCompression())},
		{"quality above 100", rgbConfig(8, 8, 101, MaxCompression())},
		{"unknown color space", Config{Width: 8, Height: 8, Quality: 85, Policy: MaxCompression()}},
		{"script without progressive", rgbConfig(8, 8, 85, Policy{ScanScript: SpectralScanScript(3)})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("got %v, want ErrConfig", err)
			}
		})
	}
}

func TestNew_RejectsIncompleteScript(t *testing.T) {
	p := MaxCompression()
	p.ScanScript = ScanScript{{Component: -1}}
	_, err := New(rgbConfig(8, 8, 85, p))
	if !errors.Is(err, ErrScript) {
		t.Fatalf("got %v, want ErrScript", err)
	}
}

// ─── Session lifecycle ───────────────────────────────────────────────

func TestSession_StartTwice(t *testing.T) {
	s, err := New(rgbConfig(4, 4, 85, MaxCompression()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Start(); !errors.Is(err, ErrState) {
		t.Fatalf("second start: got %v, want ErrState", err)
	}
}

func TestCompression_Scanlines(t *testing.T) {
	s, err := New(rgbConfig(4, 3, 85, MaxCompression()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c, err := s.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	pix := gradient(4, 3)

	if _, err := c.WriteScanlines(pix[:5]); !errors.Is(err, ErrScanlines) {
		t.Errorf("partial row: got %v, want ErrScanlines", err)
	}
	n, err := c.WriteScanlines(pix[:24])
	if err != nil || n != 2 {
		t.Fatalf("write two rows: n=%d err=%v", n, err)
	}
	if _, err := c.Finish(); !errors.Is(err, ErrScanlines) {
		t.Errorf("finish with missing row: got %v, want ErrScanlines", err)
	}
	if _, err := c.WriteScanlines(pix); !errors.Is(err, ErrScanlines) {
		t.Errorf("write past height: got %v, want ErrScanlines", err)
	}
	if n, err := c.WriteScanlines(pix[24:]); err != nil || n != 1 {
		t.Fatalf("write last row: n=%d err=%v", n, err)
	}
	if c.Rows() != 3 {
		t.Errorf("rows: got %d, want 3", c.Rows())
	}

	out, err := c.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := c.Finish(); !errors.Is(err, ErrState) {
		t.Errorf("second finish: got %v, want ErrState", err)
	}
	if _, err := c.WriteScanlines(pix[:12]); !errors.Is(err, ErrState) {
		t.Errorf("write after finish: got %v, want ErrState", err)
	}

	st := out.Stats()
	if st.Bytes != len(out.Bytes()) {
		t.Errorf("stats bytes: got %d, want %d", st.Bytes, len(out.Bytes()))
	}
	if !st.Progressive || st.Scans != len(CompressionScanScript(3)) {
		t.Errorf("stats: progressive=%v scans=%d", st.Progressive, st.Scans)
	}
	if st.Subsampling != Subsampling420 {
		t.Errorf("subsampling: got %v", st.Subsampling)
	}
}

// ─── Output properties ───────────────────────────────────────────────

func TestEncode_DecodesWithSameDimensions(t *testing.T) {
	thorough := MaxCompression()
	thorough.Trellis = TrellisThorough
	full := MaxCompression()
	full.ScanOpt = ScanOptFull
	optimized := Baseline()
	optimized.OptimizeCoding = true

	policies := []struct {
		name string
		p    Policy
	}{
		{"max", MaxCompression()},
		{"baseline", Baseline()},
		{"optimized", optimized},
		{"thorough", thorough},
		{"full", full},
	}
	sizes := [][2]int{{1, 1}, {2, 2}, {17, 9}, {37, 23}, {64, 48}}

	for _, pol := range policies {
		for _, sz := range sizes {
			for _, q := range []int{30, 95} {
				w, h := sz[0], sz[1]
				data := encodeOrFail(t, busy(w, h), rgbConfig(w, h, q, pol.p))
				cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
				if err != nil {
					t.Fatalf("%s %dx%d q%d: decode config: %v", pol.name, w, h, q, err)
				}
				if cfg.Width != w || cfg.Height != h {
					t.Errorf("%s q%d: got %dx%d, want %dx%d", pol.name, q, cfg.Width, cfg.Height, w, h)
				}
				decodeOrFail(t, data)
			}
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	pix := busy(40, 30)
	cfg := rgbConfig(40, 30, 85, MaxCompression())
	a := encodeOrFail(t, pix, cfg)
	b := encodeOrFail(t, pix, cfg)
	if !bytes.Equal(a, b) {
		t.Fatal("two encodes of the same input differ")
	}
}

func TestEncode_SizeGrowsWithQuality(t *testing.T) {
	pix := busy(96, 64)
	prev := 0
	var first int
	for _, q := range []int{1, 25, 50, 75, 100} {
		n := len(encodeOrFail(t, pix, rgbConfig(96, 64, q, MaxCompression())))
		if q == 1 {
			first = n
		}
		// Allow a little slack for script and table overhead.
		if n*100 < prev*98 {
			t.Errorf("q=%d: %d bytes, smaller than %d at the previous quality", q, n, prev)
		}
		prev = n
	}
	if prev <= first {
		t.Errorf("q=100 (%d bytes) not larger than q=1 (%d bytes)", prev, first)
	}
}

func TestEncode_BoundedErrorAtFullQuality(t *testing.T) {
	pix := gradient(48, 40)
	img := decodeOrFail(t, encodeOrFail(t, pix, rgbConfig(48, 40, 100, MaxCompression())))
	if d := maxDiff(pix, img); d > 8 {
		t.Errorf("max channel error %d at q=100", d)
	}
}

func TestEncode_SmoothImageAtHighQuality(t *testing.T) {
	pix := gradient(32, 32)
	img := decodeOrFail(t, encodeOrFail(t, pix, rgbConfig(32, 32, 90, MaxCompression())))
	if d := maxDiff(pix, img); d > 10 {
		t.Errorf("max channel error %d at q=90", d)
	}
}

// Four saturated colors in a 2x2 image sit inside one mostly padded block
// per component. Decoded pixels stay within 4 of the source.
func TestEncode_TinyPrimaries(t *testing.T) {
	pix := []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 255,
	}
	for _, p := range []Policy{MaxCompression(), Baseline()} {
		img := decodeOrFail(t, encodeOrFail(t, pix, rgbConfig(2, 2, 90, p)))
		if d := maxDiff(pix, img); d > 4 {
			t.Errorf("trellis %v: max channel error %d at q=90", p.Trellis, d)
		}
	}
}

func TestEncode_Gray(t *testing.T) {
	const w, h = 21, 13
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = uint8(i * 7)
	}
	for _, p := range []Policy{MaxCompression(), Baseline()} {
		data := encodeOrFail(t, pix, Config{Width: w, Height: h, Quality: 90, ColorSpace: ColorSpaceGray, Policy: p})
		img := decodeOrFail(t, data)
		if _, ok := img.(*image.Gray); !ok {
			t.Errorf("decoded %T, want *image.Gray", img)
		}
		if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
			t.Errorf("got %v, want %dx%d", b, w, h)
		}
	}
}

// Progressive scans only reorder how coefficients are sent, so every script
// must decode to exactly the pixels of a sequential encode.
func TestEncode_ScriptsMatchSequential(t *testing.T) {
	const w, h = 45, 27
	pix := busy(w, h)
	for _, q := range []int{40, 92} {
		seq := Baseline()
		seq.Trellis = TrellisDefault
		seq.Deringing = true
		want := decodeOrFail(t, encodeOrFail(t, pix, rgbConfig(w, h, q, seq)))

		for i, script := range candidateScripts(3) {
			p := MaxCompression()
			p.ScanScript = script
			got := decodeOrFail(t, encodeOrFail(t, pix, rgbConfig(w, h, q, p)))
			if !sameImage(got, want) {
				t.Errorf("q=%d script %d: decoded pixels differ from sequential", q, i)
			}
		}
	}
}

func TestEncode_FullScanOptNotLarger(t *testing.T) {
	pix := busy(64, 64)
	fast := encodeOrFail(t, pix, rgbConfig(64, 64, 75, MaxCompression()))
	p := MaxCompression()
	p.ScanOpt = ScanOptFull
	full := encodeOrFail(t, pix, rgbConfig(64, 64, 75, p))
	if len(full) > len(fast) {
		t.Errorf("full scan search %d bytes, fast script %d bytes", len(full), len(fast))
	}
}

func TestEncode_MaxCompressionBeatsBaseline(t *testing.T) {
	pix := busy(64, 64)
	base := encodeOrFail(t, pix, rgbConfig(64, 64, 75, Baseline()))
	small := encodeOrFail(t, pix, rgbConfig(64, 64, 75, MaxCompression()))
	if len(small) >= len(base) {
		t.Errorf("max compression %d bytes, baseline %d bytes", len(small), len(base))
	}
}

func sameImage(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.At(x, y) != b.At(x, y) {
				return false
			}
		}
	}
	return true
}
