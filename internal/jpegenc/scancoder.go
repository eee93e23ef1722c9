package jpegenc

// scanEncoder turns the quantized coefficients of a frame into the symbol
// sequence of one scan. It writes to a symbolSink so that the same walk
// feeds both the statistics pass and the output pass.
type scanEncoder struct {
	sink symbolSink
	f    *frame

	// lastDC is the previous DC value per component, after the point
	// transform of the current scan.
	lastDC [maxComponents]int32

	// eobrun is the number of pending all-zero blocks of an AC scan.
	eobrun uint32
	// pending holds the correction bits of the blocks counted in eobrun.
	pending []byte
}

func newScanEncoder(sink symbolSink, f *frame) *scanEncoder {
	return &scanEncoder{sink: sink, f: f}
}

// maxCorrectionBits bounds the correction bits buffered across an EOB run.
const maxCorrectionBits = 1000

// maxEOBRun is the longest run a single EOBn symbol can express.
const maxEOBRun = 0x7fff

// forEachBlock calls fn for every block a scan over comps visits, in coding
// order. Interleaved scans walk MCUs; single-component scans walk the blocks
// that hold real samples, row by row.
func (f *frame) forEachBlock(comps []int, fn func(ci int, b *block)) {
	if len(comps) == 1 {
		ci := comps[0]
		c := &f.comps[ci]
		for by := 0; by < c.nbh; by++ {
			for bx := 0; bx < c.nbw; bx++ {
				fn(ci, &c.coef[by*c.bw+bx])
			}
		}
		return
	}
	for my := 0; my < f.myy; my++ {
		for mx := 0; mx < f.mxx; mx++ {
			for _, ci := range comps {
				c := &f.comps[ci]
				for j := 0; j < c.h*c.v; j++ {
					bx := c.h*mx + j%c.h
					by := c.v*my + j/c.h
					fn(ci, &c.coef[by*c.bw+bx])
				}
			}
		}
	}
}

// emitHuffRLE emits a run length and a value as a Huffman symbol followed by
// the value's additional bits.
func (e *scanEncoder) emitHuffRLE(class tableClass, slot int, runLength, value int32) {
	a, b := value, value
	if a < 0 {
		a, b = -value, value-1
	}
	nBits := nBitsOf(a)
	e.sink.emitHuff(class, slot, uint8(runLength<<4)|uint8(nBits))
	if nBits > 0 {
		e.sink.emitBits(uint32(b)&(1<<nBits-1), nBits)
	}
}

// encodeSequential emits a baseline scan covering every component.
func (e *scanEncoder) encodeSequential() {
	comps := make([]int, len(e.f.comps))
	for i := range comps {
		comps[i] = i
	}
	e.f.forEachBlock(comps, func(ci int, b *block) {
		slot := e.f.comps[ci].slot
		e.emitHuffRLE(dcTable, slot, 0, b[0]-e.lastDC[ci])
		e.lastDC[ci] = b[0]

		runLength := int32(0)
		for zig := 1; zig < blockSize; zig++ {
			ac := b[unzig[zig]]
			if ac == 0 {
				runLength++
				continue
			}
			for runLength > 15 {
				e.sink.emitHuff(acTable, slot, 0xf0)
				runLength -= 16
			}
			e.emitHuffRLE(acTable, slot, runLength, ac)
			runLength = 0
		}
		if runLength > 0 {
			e.sink.emitHuff(acTable, slot, 0x00)
		}
	})
}

// encodeScan emits one scan of a progressive sequence.
func (e *scanEncoder) encodeScan(s ProgressiveScan) {
	comps := scanComponents(s, len(e.f.comps))
	switch {
	case s.isDC() && !s.isRefinement():
		e.encodeDCFirst(comps, s.SuccessiveApproxLow)
	case s.isDC():
		e.encodeDCRefine(comps, s.SuccessiveApproxLow)
	case !s.isRefinement():
		e.encodeACFirst(comps[0], s)
	default:
		e.encodeACRefine(comps[0], s)
	}
}

func (e *scanEncoder) encodeDCFirst(comps []int, al int) {
	e.f.forEachBlock(comps, func(ci int, b *block) {
		// Arithmetic shift, the point transform of the DC coefficient.
		v := b[0] >> al
		e.emitHuffRLE(dcTable, e.f.comps[ci].slot, 0, v-e.lastDC[ci])
		e.lastDC[ci] = v
	})
}

func (e *scanEncoder) encodeDCRefine(comps []int, al int) {
	e.f.forEachBlock(comps, func(_ int, b *block) {
		e.sink.emitBits(uint32(b[0]>>al)&1, 1)
	})
}

// flushEOBRun emits the pending EOB run, if any, followed by the correction
// bits of the blocks it covers.
func (e *scanEncoder) flushEOBRun(slot int) {
	if e.eobrun == 0 {
		return
	}
	nBits := uint32(0)
	for t := e.eobrun >> 1; t != 0; t >>= 1 {
		nBits++
	}
	e.sink.emitHuff(acTable, slot, uint8(nBits<<4))
	if nBits > 0 {
		e.sink.emitBits(e.eobrun&(1<<nBits-1), nBits)
	}
	e.eobrun = 0
	e.emitCorrection(e.pending)
	e.pending = e.pending[:0]
}

func (e *scanEncoder) emitCorrection(bits []byte) {
	for _, b := range bits {
		e.sink.emitBits(uint32(b), 1)
	}
}

func (e *scanEncoder) encodeACFirst(ci int, s ProgressiveScan) {
	slot := e.f.comps[ci].slot
	ss, se, al := s.SpectralStart, s.SpectralEnd, s.SuccessiveApproxLow
	e.f.forEachBlock([]int{ci}, func(_ int, b *block) {
		r := 0
		for k := ss; k <= se; k++ {
			v := b[unzig[k]]
			var bits int32
			if v < 0 {
				v = -v >> al
				bits = ^v
			} else {
				v >>= al
				bits = v
			}
			if v == 0 {
				r++
				continue
			}
			e.flushEOBRun(slot)
			for r > 15 {
				e.sink.emitHuff(acTable, slot, 0xf0)
				r -= 16
			}
			nBits := nBitsOf(v)
			e.sink.emitHuff(acTable, slot, uint8(r<<4)|uint8(nBits))
			e.sink.emitBits(uint32(bits)&(1<<nBits-1), nBits)
			r = 0
		}
		if r > 0 {
			e.eobrun++
			if e.eobrun == maxEOBRun {
				e.flushEOBRun(slot)
			}
		}
	})
	e.flushEOBRun(slot)
}

func (e *scanEncoder) encodeACRefine(ci int, s ProgressiveScan) {
	slot := e.f.comps[ci].slot
	ss, se, al := s.SpectralStart, s.SpectralEnd, s.SuccessiveApproxLow
	var (
		abs       [blockSize]int32
		corrected = make([]byte, 0, blockSize)
	)
	e.f.forEachBlock([]int{ci}, func(_ int, b *block) {
		// eob is the position of the last coefficient that becomes nonzero
		// in this scan.
		eob := 0
		for k := ss; k <= se; k++ {
			v := b[unzig[k]]
			if v < 0 {
				v = -v
			}
			abs[k] = v >> al
			if abs[k] == 1 {
				eob = k
			}
		}

		r := 0
		corrected = corrected[:0]
		for k := ss; k <= se; k++ {
			v := abs[k]
			if v == 0 {
				r++
				continue
			}
			for r > 15 && k <= eob {
				e.flushEOBRun(slot)
				e.sink.emitHuff(acTable, slot, 0xf0)
				r -= 16
				e.emitCorrection(corrected)
				corrected = corrected[:0]
			}
			if v > 1 {
				// Already nonzero: only its next bit is sent.
				corrected = append(corrected, byte(v&1))
				continue
			}
			e.flushEOBRun(slot)
			e.sink.emitHuff(acTable, slot, uint8(r<<4|1))
			sign := uint32(1)
			if b[unzig[k]] < 0 {
				sign = 0
			}
			e.sink.emitBits(sign, 1)
			e.emitCorrection(corrected)
			corrected = corrected[:0]
			r = 0
		}

		if r > 0 || len(corrected) > 0 {
			e.eobrun++
			e.pending = append(e.pending, corrected...)
			if e.eobrun == maxEOBRun || len(e.pending) > maxCorrectionBits-blockSize+1 {
				e.flushEOBRun(slot)
			}
		}
	})
	e.flushEOBRun(slot)
}
