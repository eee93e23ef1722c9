package jpegenc

import "testing"

func blocksOf(t *testing.T, pix []byte, w, h int) []block {
	t.Helper()
	f := newFrame(w, h, ColorSpaceRGB, Subsampling444)
	f.transform(f.buildPlanes(pix, ColorSpaceRGB), nil)
	return f.comps[0].dct
}

func TestTrellis_NeverGrowsMagnitudes(t *testing.T) {
	rates := stdRates()
	for _, quality := range []int{10, 50, 85, 100} {
		q := scaleQuant(&flatQuant, quality)
		for i, src := range blocksOf(t, busy(64, 64), 64, 64) {
			var plain, trellis block
			quantizeBlock(&src, &plain, &q)
			trellisQuantize(&src, &trellis, &q, rates[slotLuminance])
			if trellis[0] != plain[0] {
				t.Fatalf("q=%d block %d: DC %d, want %d", quality, i, trellis[0], plain[0])
			}
			for k := 1; k < blockSize; k++ {
				p, r := plain[k], trellis[k]
				if p*r < 0 {
					t.Fatalf("q=%d block %d coef %d: sign flipped %d -> %d", quality, i, k, p, r)
				}
				if abs32(r) > abs32(p) {
					t.Fatalf("q=%d block %d coef %d: grew %d -> %d", quality, i, k, p, r)
				}
			}
		}
	}
}

func TestTrellis_FlatBlockUnchanged(t *testing.T) {
	var src, dst block
	src[0] = 640
	q := scaleQuant(&flatQuant, 75)
	trellisQuantize(&src, &dst, &q, stdRates()[slotLuminance])
	var plain block
	quantizeBlock(&src, &plain, &q)
	if dst != plain {
		t.Errorf("got %v, want %v", dst, plain)
	}
}

func TestTrellis_SmallerOutput(t *testing.T) {
	pix := busy(64, 64)
	plain := MaxCompression()
	plain.Trellis = TrellisOff
	off := encodeOrFail(t, pix, rgbConfig(64, 64, 85, plain))
	on := encodeOrFail(t, pix, rgbConfig(64, 64, 85, MaxCompression()))
	if len(on) >= len(off) {
		t.Errorf("trellis %d bytes, plain rounding %d bytes", len(on), len(off))
	}
}

func TestScaleQuant(t *testing.T) {
	if q := scaleQuant(&flatQuant, 100); q[0] != 1 || q[63] != 1 {
		t.Errorf("q=100: got %d..%d, want all ones", q[0], q[63])
	}
	q := scaleQuant(&flatQuant, 50)
	for i, v := range flatQuant {
		if want := min(v, 255); q[i] != want {
			t.Errorf("q=50 entry %d: got %d, want %d", i, q[i], want)
		}
	}
	if q := scaleQuant(&flatQuant, 1); q[63] != 255 {
		t.Errorf("q=1: last entry %d, want clamp to 255", q[63])
	}
}

func TestFDCT_ConstantBlock(t *testing.T) {
	for _, v := range []int32{0, 128, 255} {
		var b block
		for i := range b {
			b[i] = v
		}
		fdct(&b)
		if want := 64 * (v - centerJSample); b[0] != want {
			t.Errorf("value %d: DC %d, want %d", v, b[0], want)
		}
		for k := 1; k < blockSize; k++ {
			if b[k] != 0 {
				t.Fatalf("value %d: AC %d = %d", v, k, b[k])
			}
		}
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
