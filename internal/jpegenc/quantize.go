package jpegenc

import "math"

// div returns a/b rounded to the nearest integer, instead of rounded to zero.
func div(a, b int32) int32 {
	if a >= 0 {
		return (a + (b >> 1)) / b
	}
	return -((-a + (b >> 1)) / b)
}

// quantizeBlock rounds every coefficient of src to the nearest step of q.
// src is fdct output, scaled up by 8.
func quantizeBlock(src, dst *block, q *[blockSize]uint16) {
	dst[0] = div(src[0], 8*int32(q[0]))
	for i := 1; i < blockSize; i++ {
		dst[i] = clampAC(div(src[i], 8*int32(q[i])))
	}
}

// maxAC is the largest AC magnitude a baseline Huffman code can carry.
const maxAC = 1<<10 - 1

func clampAC(v int32) int32 {
	if v > maxAC {
		return maxAC
	}
	if v < -maxAC {
		return -maxAC
	}
	return v
}

// Trellis lambda parameters. The Lagrangian weight of a block falls as its
// AC energy rises, so busy blocks, where errors are masked, trade more
// distortion for fewer bits.
const (
	lambdaLogScale1 = 14.75
	lambdaLogScale2 = 16.5
)

// rateModel gives the cost in bits of each AC symbol.
type rateModel [256]float64

// newRateModel builds a rate model from a table's code lengths. Symbols
// without a code are priced as the longest possible code so the search
// avoids them without excluding them.
func newRateModel(spec huffmanSpec) *rateModel {
	var r rateModel
	lengths := spec.codeLengths()
	for sym, l := range lengths {
		if l == 0 {
			r[sym] = 16
		} else {
			r[sym] = float64(l)
		}
	}
	return &r
}

// trellisQuantize quantizes src into dst choosing, for each AC coefficient,
// the value that minimizes bits + lambda*distortion over the whole block.
// Candidates for a coefficient are zero and the largest value of every
// magnitude category up to the rounded value, since within a category the
// largest magnitude costs the same bits as any other and distorts least.
// The DC coefficient is rounded normally.
func trellisQuantize(src, dst *block, q *[blockSize]uint16, rate *rateModel) {
	dst[0] = div(src[0], 8*int32(q[0]))

	var norm float64
	for i := 1; i < blockSize; i++ {
		v := float64(src[i])
		norm += v * v
	}
	norm /= 63
	lambda := math.Exp2(lambdaLogScale1) / (math.Exp2(lambdaLogScale2) + norm)

	const maxCandidates = 16
	var (
		// accCost[i] is the cost of the best coding of zig-zag positions
		// 1..i that ends with a nonzero coefficient at i. Position 0 stands
		// for the start of the block.
		accCost [blockSize]float64
		// accZeroDist[i] is the distortion of zeroing positions 1..i.
		accZeroDist [blockSize]float64
		runStart    [blockSize]int
		bestVal     [blockSize]int32
		nonzero     [blockSize]bool
		candVal     [maxCandidates]int32
		candDist    [maxCandidates]float64
	)

	for i := 1; i < blockSize; i++ {
		z := unzig[i]
		x := src[z]
		if x < 0 {
			x = -x
		}
		qs := 8 * int32(q[z])
		w := lambda / (float64(q[z]) * float64(q[z]))
		fx := float64(x)
		accZeroDist[i] = accZeroDist[i-1] + fx*fx*w

		qval := min((x+qs/2)/qs, maxAC)
		if qval == 0 {
			continue
		}

		n := int(nBitsOf(qval))
		for k := 0; k < n; k++ {
			c := int32(1)<<(k+1) - 1
			if k == n-1 {
				c = qval
			}
			d := fx - float64(c*qs)
			candVal[k] = c
			candDist[k] = d * d * w
		}

		accCost[i] = math.Inf(1)
		for j := 0; j < i; j++ {
			if j != 0 && !nonzero[j] {
				continue
			}
			run := i - 1 - j
			zrl := float64(run>>4) * rate[0xf0]
			run &= 15
			for k := 0; k < n; k++ {
				cost := accCost[j] + zrl + rate[uint8(run<<4|(k+1))] + float64(k+1) +
					candDist[k] + accZeroDist[i-1] - accZeroDist[j]
				if cost < accCost[i] {
					accCost[i] = cost
					runStart[i] = j
					bestVal[i] = candVal[k]
				}
			}
		}
		nonzero[i] = true
	}

	// Pick where the last nonzero coefficient goes; everything after it is
	// covered by one EOB.
	last := 0
	bestCost := accZeroDist[blockSize-1] + rate[0x00]
	for i := 1; i < blockSize; i++ {
		if !nonzero[i] {
			continue
		}
		cost := accCost[i] + accZeroDist[blockSize-1] - accZeroDist[i]
		if i < blockSize-1 {
			cost += rate[0x00]
		}
		if cost < bestCost {
			bestCost = cost
			last = i
		}
	}

	for i := 1; i < blockSize; i++ {
		dst[unzig[i]] = 0
	}
	for i := last; i > 0; i = runStart[i] {
		z := unzig[i]
		if src[z] < 0 {
			dst[z] = -bestVal[i]
		} else {
			dst[z] = bestVal[i]
		}
	}
}

// quantize fills the coefficients of every component according to the
// trellis option. rates is indexed by Huffman slot and may be nil when
// trellis is off.
func (f *frame) quantize(quant *[nQuantIndex][blockSize]uint16, rates *[nSlots]*rateModel) {
	for ci := range f.comps {
		c := &f.comps[ci]
		q := &quant[c.quant]
		for i := range c.dct {
			if rates == nil {
				quantizeBlock(&c.dct[i], &c.coef[i], q)
			} else {
				trellisQuantize(&c.dct[i], &c.coef[i], q, rates[c.slot])
			}
		}
	}
}

// stdRates returns the rate models of the standard AC tables.
func stdRates() *[nSlots]*rateModel {
	return &[nSlots]*rateModel{
		newRateModel(stdHuffmanSpec[acTable][slotLuminance]),
		newRateModel(stdHuffmanSpec[acTable][slotChrominance]),
	}
}

// gatheredRates derives rate models from the AC statistics of the current
// coefficients, as they would be coded in one sequential scan.
func (f *frame) gatheredRates() *[nSlots]*rateModel {
	var counter freqCounter
	enc := newScanEncoder(&counter, f)
	enc.encodeSequential()
	var rates [nSlots]*rateModel
	for slot := range rates {
		if counter.used[acTable][slot] {
			rates[slot] = newRateModel(optimalSpec(&counter.freq[acTable][slot]))
		} else {
			rates[slot] = newRateModel(stdHuffmanSpec[acTable][slot])
		}
	}
	return &rates
}
