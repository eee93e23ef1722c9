package jpegenc

import "math"

// maxShifted is the largest sample value after the level shift.
const maxShifted = 255 - centerJSample

// dering raises runs of saturated samples above the representable range
// before the forward DCT. Decoders clamp at 255, so the overshoot hides the
// ringing that quantization would otherwise leave around hard white edges.
// Runs are found in zig-zag order and reshaped along a Catmull-Rom curve
// that continues the slope of the neighbouring samples. dcq is the DC step
// of the block's quantization table and bounds the overshoot.
func dering(b *block, dcq uint16) {
	var sum, n int32
	for _, v := range b {
		v -= centerJSample
		sum += v
		if v >= maxShifted {
			n++
		}
	}
	if n == 0 || n == blockSize {
		return
	}
	limit := maxShifted + min(31, 2*int32(dcq), (maxShifted*blockSize-sum)/n)

	at := func(k int) int32 { return b[unzig[k]] - centerJSample }
	for k := 0; k < blockSize; k++ {
		if at(k) < maxShifted {
			continue
		}
		start := k
		for k++; k < blockSize && at(k) >= maxShifted; k++ {
		}
		end := k

		f1, f2 := at(max(start-1, 0)), at(max(start-2, 0))
		l1, l2 := at(min(end, blockSize-1)), at(min(end+1, blockSize-1))
		fslope := max(f1-f2, maxShifted-f1)
		lslope := max(l1-l2, maxShifted-l1)
		if start == 0 {
			fslope = lslope
		}
		if end == blockSize {
			lslope = fslope
		}

		length := end - start
		step := 1 / float64(length+1)
		pos := step
		for i := start; i < end; i++ {
			v := int32(math.Ceil(catmullRom(maxShifted-fslope, maxShifted, maxShifted, maxShifted-lslope, pos, length)))
			b[unzig[i]] = min(v, limit) + centerJSample
			pos += step
		}
	}
}

// catmullRom evaluates the Hermite segment between v2 and v3 at t, with
// tangents taken from the outer points and scaled by size.
func catmullRom(v1, v2, v3, v4 int32, t float64, size int) float64 {
	tan1 := float64((v3 - v1) * int32(size))
	tan2 := float64((v4 - v2) * int32(size))
	t2 := t * t
	t3 := t2 * t
	return float64(v2)*(2*t3-3*t2+1) +
		tan1*(t3-2*t2+t) +
		float64(v3)*(-2*t3+3*t2) +
		tan2*(t3-t2)
}
