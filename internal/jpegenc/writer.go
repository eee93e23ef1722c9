package jpegenc

import (
	"bytes"
	"fmt"
)

// frameWriter writes the marker segments and scans of one frame.
type frameWriter struct {
	w     *streamWriter
	f     *frame
	quant *[nQuantIndex][blockSize]uint16

	scans  int
	tables int
}

// usedQuant returns the quantization tables referenced by the frame.
func (fw *frameWriter) usedQuant() []quantIndex {
	var seen [nQuantIndex]bool
	var out []quantIndex
	for _, c := range fw.f.comps {
		if !seen[c.quant] {
			seen[c.quant] = true
			out = append(out, c.quant)
		}
	}
	return out
}

// jfifHeader is the APP0 payload: identifier, version 1.01, no density
// units, 1:1 pixel aspect ratio and no thumbnail.
var jfifHeader = []byte{'J', 'F', 'I', 'F', 0, 1, 1, 0, 0, 1, 0, 1, 0, 0}

func (fw *frameWriter) writeHeaders(progressive bool) {
	w := fw.w
	w.writeMarker(soiMarker)

	w.writeMarkerHeader(app0Marker, 2+len(jfifHeader))
	w.write(jfifHeader)

	tables := fw.usedQuant()
	w.writeMarkerHeader(dqtMarker, 2+len(tables)*(1+blockSize))
	for _, qi := range tables {
		w.writeByte(uint8(qi))
		q := &fw.quant[qi]
		for zig := 0; zig < blockSize; zig++ {
			w.writeByte(uint8(q[unzig[zig]]))
		}
	}

	marker := uint8(sof0Marker)
	if progressive {
		marker = sof2Marker
	}
	n := len(fw.f.comps)
	w.writeMarkerHeader(marker, 8+3*n)
	w.buf[0] = 8 // 8-bit color.
	w.buf[1] = uint8(fw.f.height >> 8)
	w.buf[2] = uint8(fw.f.height & 0xff)
	w.buf[3] = uint8(fw.f.width >> 8)
	w.buf[4] = uint8(fw.f.width & 0xff)
	w.buf[5] = uint8(n)
	w.write(w.buf[:6])
	for _, c := range fw.f.comps {
		w.buf[0] = c.id
		w.buf[1] = uint8(c.h<<4 | c.v)
		w.buf[2] = uint8(c.quant)
		w.write(w.buf[:3])
	}
}

// tableRef names one Huffman table of a DHT segment.
type tableRef struct {
	class tableClass
	slot  int
	spec  huffmanSpec
}

func (fw *frameWriter) writeDHT(refs []tableRef) {
	if len(refs) == 0 {
		return
	}
	markerlen := 2
	for _, r := range refs {
		markerlen += 1 + 16 + len(r.spec.value)
	}
	w := fw.w
	w.writeMarkerHeader(dhtMarker, markerlen)
	for _, r := range refs {
		w.writeByte(uint8(r.class)<<4 | uint8(r.slot))
		w.write(r.spec.count[:])
		w.write(r.spec.value)
	}
	fw.tables += len(refs)
}

func (fw *frameWriter) writeSOS(comps []int, ss, se, ah, al int) {
	w := fw.w
	w.writeMarkerHeader(sosMarker, 6+2*len(comps))
	w.writeByte(uint8(len(comps)))
	for _, ci := range comps {
		c := &fw.f.comps[ci]
		w.writeByte(c.id)
		w.writeByte(uint8(c.slot<<4 | c.slot))
	}
	w.writeByte(uint8(ss))
	w.writeByte(uint8(se))
	w.writeByte(uint8(ah<<4 | al))
	fw.scans++
}

// optimalTables builds a table for every table the counted scan used.
func optimalTables(counter *freqCounter) []tableRef {
	var refs []tableRef
	for class := dcTable; class <= acTable; class++ {
		for slot := 0; slot < nSlots; slot++ {
			if counter.used[class][slot] {
				refs = append(refs, tableRef{class, slot, optimalSpec(&counter.freq[class][slot])})
			}
		}
	}
	return refs
}

// stdTables returns the standard tables of every slot the frame uses.
func (fw *frameWriter) stdTables() []tableRef {
	var refs []tableRef
	for class := dcTable; class <= acTable; class++ {
		var seen [nSlots]bool
		for _, c := range fw.f.comps {
			if !seen[c.slot] {
				seen[c.slot] = true
				refs = append(refs, tableRef{class, c.slot, stdHuffmanSpec[class][c.slot]})
			}
		}
	}
	return refs
}

func compileLUTs(refs []tableRef) *[2][nSlots]huffmanLUT {
	var luts [2][nSlots]huffmanLUT
	for _, r := range refs {
		luts[r.class][r.slot].init(r.spec)
	}
	return &luts
}

// writeSequential writes a single baseline scan over every component.
func (fw *frameWriter) writeSequential(optimize bool) {
	var refs []tableRef
	if optimize {
		var counter freqCounter
		newScanEncoder(&counter, fw.f).encodeSequential()
		refs = optimalTables(&counter)
	} else {
		refs = fw.stdTables()
	}
	fw.writeDHT(refs)

	comps := make([]int, len(fw.f.comps))
	for i := range comps {
		comps[i] = i
	}
	fw.writeSOS(comps, 0, blockSize-1, 0, 0)
	newScanEncoder(&bitEmitter{w: fw.w, luts: compileLUTs(refs)}, fw.f).encodeSequential()
	fw.w.padScan()
}

// writeProgressive writes every scan of script, each with its own optimal
// tables.
func (fw *frameWriter) writeProgressive(script ScanScript) {
	for _, s := range script {
		if fw.w.err != nil {
			return
		}
		var counter freqCounter
		newScanEncoder(&counter, fw.f).encodeScan(s)
		refs := optimalTables(&counter)
		fw.writeDHT(refs)

		fw.writeSOS(scanComponents(s, len(fw.f.comps)),
			s.SpectralStart, s.SpectralEnd, s.SuccessiveApproxHigh, s.SuccessiveApproxLow)
		newScanEncoder(&bitEmitter{w: fw.w, luts: compileLUTs(refs)}, fw.f).encodeScan(s)
		fw.w.padScan()
	}
}

// frameResult is an encoded frame and what went into it.
type frameResult struct {
	data   []byte
	scans  int
	tables int
	script ScanScript
}

// writeFrame encodes the quantized frame. script is ignored for sequential
// output.
func writeFrame(f *frame, quant *[nQuantIndex][blockSize]uint16, p Policy, script ScanScript) (*frameResult, error) {
	var buf bytes.Buffer
	fw := &frameWriter{w: newStreamWriter(&buf), f: f, quant: quant}
	fw.writeHeaders(p.Progressive)
	if p.Progressive {
		fw.writeProgressive(script)
	} else {
		fw.writeSequential(p.OptimizeCoding)
	}
	fw.w.writeMarker(eoiMarker)
	if fw.w.err != nil {
		return nil, fmt.Errorf("write frame: %w", fw.w.err)
	}
	return &frameResult{data: buf.Bytes(), scans: fw.scans, tables: fw.tables, script: script}, nil
}

// writeBest encodes the frame with every candidate script and keeps the
// smallest result. Earlier candidates win ties.
func writeBest(f *frame, quant *[nQuantIndex][blockSize]uint16, p Policy, candidates []ScanScript) (*frameResult, error) {
	var best *frameResult
	for _, script := range candidates {
		res, err := writeFrame(f, quant, p, script)
		if err != nil {
			return nil, err
		}
		if best == nil || len(res.data) < len(best.data) {
			best = res
		}
	}
	return best, nil
}
