package jpegenc

import (
	"bytes"
	"fmt"
	"io"
)

// writer is a buffered writer.
type writer interface {
	io.Writer
	io.ByteWriter
}

// streamWriter writes JPEG segments and entropy-coded data. err is the first
// error encountered during writing; all attempted writes after the first
// error become no-ops.
type streamWriter struct {
	w   writer
	err error
	// buf is a scratch buffer.
	buf [16]byte
	// bits and nBits are accumulated bits to write to w.
	bits, nBits uint32
}

func newStreamWriter(buf *bytes.Buffer) *streamWriter {
	return &streamWriter{w: buf}
}

func (e *streamWriter) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *streamWriter) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

// emit emits the least significant nBits bits of bits to the bit-stream.
// The precondition is bits < 1<<nBits && nBits <= 16.
func (e *streamWriter) emit(bits, nBits uint32) {
	nBits += e.nBits
	bits <<= 32 - nBits
	bits |= e.bits
	for nBits >= 8 {
		b := uint8(bits >> 24)
		e.writeByte(b)
		if b == 0xff {
			e.writeByte(0x00)
		}
		bits <<= 8
		nBits -= 8
	}
	e.bits, e.nBits = bits, nBits
}

// padScan pads the last partial byte of a scan with 1 bits and resets the
// bit accumulator, so the next marker starts byte aligned.
func (e *streamWriter) padScan() {
	if e.nBits > 0 {
		n := 8 - e.nBits
		e.emit(1<<n-1, n)
	}
	e.bits, e.nBits = 0, 0
}

// writeMarker writes a marker that carries no payload.
func (e *streamWriter) writeMarker(marker uint8) {
	e.buf[0] = 0xff
	e.buf[1] = marker
	e.write(e.buf[:2])
}

// writeMarkerHeader writes the header for a marker with the given length.
func (e *streamWriter) writeMarkerHeader(marker uint8, markerlen int) {
	e.buf[0] = 0xff
	e.buf[1] = marker
	e.buf[2] = uint8(markerlen >> 8)
	e.buf[3] = uint8(markerlen & 0xff)
	e.write(e.buf[:4])
}

// symbolSink receives the symbols and raw bits produced by a scan coder. The
// same scan coder drives a frequency counter on the first pass and the bit
// emitter on the second, so both passes see an identical symbol sequence.
type symbolSink interface {
	emitHuff(class tableClass, slot int, symbol uint8)
	emitBits(bits, nBits uint32)
}

// freqCounter gathers symbol statistics for optimal table generation.
type freqCounter struct {
	freq [2][nSlots]symbolFreq
	used [2][nSlots]bool
}

func (c *freqCounter) emitHuff(class tableClass, slot int, symbol uint8) {
	c.freq[class][slot][symbol]++
	c.used[class][slot] = true
}

func (c *freqCounter) emitBits(uint32, uint32) {}

// bitEmitter Huffman-codes symbols into a streamWriter.
type bitEmitter struct {
	w    *streamWriter
	luts *[2][nSlots]huffmanLUT
}

func (b *bitEmitter) emitHuff(class tableClass, slot int, symbol uint8) {
	x := b.luts[class][slot][symbol]
	if x == 0 {
		// Every symbol of a scan is counted before its tables are built.
		if b.w.err == nil {
			b.w.err = fmt.Errorf("%w: symbol %#02x has no code in %s table %d", ErrInternal, symbol, class, slot)
		}
		return
	}
	b.w.emit(x&(1<<24-1), x>>24)
}

func (b *bitEmitter) emitBits(bits, nBits uint32) {
	b.w.emit(bits, nBits)
}
