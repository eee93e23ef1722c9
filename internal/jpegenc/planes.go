package jpegenc

import "image/color"

// component is one color channel of the frame together with its quantized
// coefficients.
type component struct {
	id    uint8 // component identifier written to SOF and SOS
	h, v  int   // sampling factors
	quant quantIndex
	slot  int // Huffman table slot

	// bw and bh are the dimensions, in blocks, of the MCU-aligned grid.
	bw, bh int
	// nbw and nbh are the dimensions, in blocks, of the area holding real
	// samples. Non-interleaved scans visit only these blocks.
	nbw, nbh int

	// dct holds the forward DCT output and coef the quantized
	// coefficients, both row-major over the bw*bh grid in natural order.
	dct  []block
	coef []block
}

// frame describes the component layout and MCU grid of an image.
type frame struct {
	width, height int
	comps         []component
	hmax, vmax    int
	// mxx and myy are the number of MCUs (Minimum Coded Units) in the image.
	mxx, myy int
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// newFrame lays out the components for the given geometry.
func newFrame(width, height int, cs ColorSpace, sub Subsampling) *frame {
	f := &frame{width: width, height: height}
	if cs == ColorSpaceGray {
		f.comps = []component{{id: 1, h: 1, v: 1, quant: quantIndexLuminance, slot: slotLuminance}}
	} else {
		yh := 2
		if sub == Subsampling444 {
			yh = 1
		}
		f.comps = []component{
			{id: 1, h: yh, v: yh, quant: quantIndexLuminance, slot: slotLuminance},
			{id: 2, h: 1, v: 1, quant: quantIndexChrominance, slot: slotChrominance},
			{id: 3, h: 1, v: 1, quant: quantIndexChrominance, slot: slotChrominance},
		}
	}
	for _, c := range f.comps {
		f.hmax = max(f.hmax, c.h)
		f.vmax = max(f.vmax, c.v)
	}
	f.mxx = ceilDiv(width, 8*f.hmax)
	f.myy = ceilDiv(height, 8*f.vmax)
	for i := range f.comps {
		c := &f.comps[i]
		c.bw = f.mxx * c.h
		c.bh = f.myy * c.v
		c.nbw = ceilDiv(ceilDiv(width*c.h, f.hmax), 8)
		c.nbh = ceilDiv(ceilDiv(height*c.v, f.vmax), 8)
		c.dct = make([]block, c.bw*c.bh)
		c.coef = make([]block, c.bw*c.bh)
	}
	return f
}

// plane is an 8-bit sample plane.
type plane struct {
	pix    []uint8
	stride int
	h      int
}

// loadBlock copies the 8x8 block at block coordinates (bx, by).
func (p *plane) loadBlock(bx, by int, dst *block) {
	off := 8*by*p.stride + 8*bx
	for y := 0; y < 8; y++ {
		row := p.pix[off+y*p.stride : off+y*p.stride+8]
		for x, v := range row {
			dst[8*y+x] = int32(v)
		}
	}
}

// reflect maps i onto [0, n) by half-sample symmetric reflection, so
// padding continues x[n-1], x[n-1], x[n-2] and so on.
func reflect(i, n int) int {
	i %= 2 * n
	if i < n {
		return i
	}
	return 2*n - 1 - i
}

// padIndex returns, for every position of a padded axis of length size,
// the source index it samples from an axis of length n.
func padIndex(size, n int) []int {
	idx := make([]int, size)
	for i := range idx {
		idx[i] = reflect(i, n)
	}
	return idx
}

// buildPlanes converts interleaved samples to one plane per component, each
// covering the full MCU grid. Samples beyond the image edge mirror the image
// back from the edge, which keeps partial blocks free of the isolated
// impulses that plain edge replication creates. Chrominance is box-filtered
// when subsampled.
func (f *frame) buildPlanes(pix []byte, cs ColorSpace) []plane {
	pw := f.mxx * 8 * f.hmax
	ph := f.myy * 8 * f.vmax
	nch := cs.channels()
	rowStride := f.width * nch
	xs := padIndex(pw, f.width)
	ys := padIndex(ph, f.height)

	if cs == ColorSpaceGray {
		y := plane{pix: make([]uint8, pw*ph), stride: pw, h: ph}
		for j := 0; j < ph; j++ {
			src := pix[ys[j]*rowStride:]
			dst := y.pix[j*pw : (j+1)*pw]
			for i := range dst {
				dst[i] = src[xs[i]]
			}
		}
		return []plane{y}
	}

	yp := plane{pix: make([]uint8, pw*ph), stride: pw, h: ph}
	cb := make([]uint8, pw*ph)
	cr := make([]uint8, pw*ph)
	for j := 0; j < ph; j++ {
		src := pix[ys[j]*rowStride:]
		for i := 0; i < pw; i++ {
			s := src[3*xs[i]:]
			yy, u, v := color.RGBToYCbCr(s[0], s[1], s[2])
			yp.pix[j*pw+i] = yy
			cb[j*pw+i] = u
			cr[j*pw+i] = v
		}
	}
	planes := []plane{yp, {pix: cb, stride: pw, h: ph}, {pix: cr, stride: pw, h: ph}}
	if f.hmax == 1 && f.vmax == 1 {
		return planes
	}
	planes[1] = downsample(cb, pw, ph, f.hmax, f.vmax)
	planes[2] = downsample(cr, pw, ph, f.hmax, f.vmax)
	return planes
}

// downsample averages hf x vf groups of samples.
func downsample(src []uint8, w, h, hf, vf int) plane {
	dw, dh := w/hf, h/vf
	n := int32(hf * vf)
	out := plane{pix: make([]uint8, dw*dh), stride: dw, h: dh}
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			var sum int32
			for j := 0; j < vf; j++ {
				row := src[(y*vf+j)*w+x*hf:]
				for i := 0; i < hf; i++ {
					sum += int32(row[i])
				}
			}
			out.pix[y*dw+x] = uint8((sum + n/2) / n)
		}
	}
	return out
}

// transform runs the forward DCT over every block of every component. When
// quant is non-nil, saturated runs are deringed first against each
// component's DC step.
func (f *frame) transform(planes []plane, quant *[nQuantIndex][blockSize]uint16) {
	for ci := range f.comps {
		c := &f.comps[ci]
		p := &planes[ci]
		for by := 0; by < c.bh; by++ {
			for bx := 0; bx < c.bw; bx++ {
				b := &c.dct[by*c.bw+bx]
				p.loadBlock(bx, by, b)
				if quant != nil {
					dering(b, quant[c.quant][0])
				}
				fdct(b)
			}
		}
	}
}
