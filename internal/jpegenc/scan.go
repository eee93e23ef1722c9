package jpegenc

import "fmt"

// ProgressiveScan represents a single scan in a progressive JPEG sequence.
// Each scan encodes a specific subset of the DCT coefficients.
type ProgressiveScan struct {
	// Component specifies which color component to encode:
	// -1 = all components (DC scan), 0 = Y (luminance), 1 = Cb, 2 = Cr
	Component int

	// SpectralStart and SpectralEnd define the range of DCT coefficients (0-63)
	// in zig-zag order. 0,0 = DC only, 1,5 = low frequency AC, 6,63 = high frequency AC.
	SpectralStart, SpectralEnd int

	// SuccessiveApproxHigh and SuccessiveApproxLow control bit-plane refinement.
	// A first scan has high = 0 and sends everything above bit low; a
	// refinement scan has high = low+1 and sends bit low.
	SuccessiveApproxHigh, SuccessiveApproxLow int
}

func (s ProgressiveScan) String() string {
	c := "all"
	if s.Component >= 0 {
		c = fmt.Sprint(s.Component)
	}
	return fmt.Sprintf("comp=%s ss=%d se=%d ah=%d al=%d",
		c, s.SpectralStart, s.SpectralEnd, s.SuccessiveApproxHigh, s.SuccessiveApproxLow)
}

func (s ProgressiveScan) isDC() bool { return s.SpectralStart == 0 }

func (s ProgressiveScan) isRefinement() bool { return s.SuccessiveApproxHigh != 0 }

// ScanScript defines a complete progressive scan sequence.
type ScanScript []ProgressiveScan

// maxAhAl is the largest successive approximation bit position for 8-bit
// samples.
const maxAhAl = 10

// CompressionScanScript returns the script used by ScanOptFast. DC goes in a
// single interleaved scan; luminance AC is split into two bands and sent
// with two bits of successive approximation; chrominance AC is sent whole.
func CompressionScanScript(nComponent int) ScanScript {
	if nComponent == 1 {
		return ScanScript{
			{Component: -1, SpectralStart: 0, SpectralEnd: 0},
			{Component: 0, SpectralStart: 1, SpectralEnd: 8, SuccessiveApproxLow: 2},
			{Component: 0, SpectralStart: 9, SpectralEnd: 63, SuccessiveApproxLow: 2},
			{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 2, SuccessiveApproxLow: 1},
			{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1, SuccessiveApproxLow: 0},
		}
	}
	return ScanScript{
		{Component: -1, SpectralStart: 0, SpectralEnd: 0},
		{Component: 0, SpectralStart: 1, SpectralEnd: 8, SuccessiveApproxLow: 2},
		{Component: 0, SpectralStart: 9, SpectralEnd: 63, SuccessiveApproxLow: 2},
		{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 2, SuccessiveApproxLow: 1},
		{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1, SuccessiveApproxLow: 0},
		{Component: 1, SpectralStart: 1, SpectralEnd: 63},
		{Component: 2, SpectralStart: 1, SpectralEnd: 63},
	}
}

// SimpleScanScript returns the classic successive approximation script:
// DC and low AC first at reduced precision, then refinement of every band.
func SimpleScanScript(nComponent int) ScanScript {
	if nComponent == 1 {
		return ScanScript{
			{Component: -1, SpectralStart: 0, SpectralEnd: 0, SuccessiveApproxLow: 1},
			{Component: 0, SpectralStart: 1, SpectralEnd: 5, SuccessiveApproxLow: 2},
			{Component: 0, SpectralStart: 6, SpectralEnd: 63, SuccessiveApproxLow: 2},
			{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 2, SuccessiveApproxLow: 1},
			{Component: -1, SpectralStart: 0, SpectralEnd: 0, SuccessiveApproxHigh: 1},
			{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1},
		}
	}
	return ScanScript{
		{Component: -1, SpectralStart: 0, SpectralEnd: 0, SuccessiveApproxLow: 1},
		{Component: 0, SpectralStart: 1, SpectralEnd: 5, SuccessiveApproxLow: 2},
		{Component: 2, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxLow: 1},
		{Component: 1, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxLow: 1},
		{Component: 0, SpectralStart: 6, SpectralEnd: 63, SuccessiveApproxLow: 2},
		{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 2, SuccessiveApproxLow: 1},
		{Component: -1, SpectralStart: 0, SpectralEnd: 0, SuccessiveApproxHigh: 1},
		{Component: 2, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1},
		{Component: 1, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1},
		{Component: 0, SpectralStart: 1, SpectralEnd: 63, SuccessiveApproxHigh: 1},
	}
}

// SpectralScanScript returns a script that uses spectral selection only,
// putting more emphasis on getting a viewable image quickly.
func SpectralScanScript(nComponent int) ScanScript {
	if nComponent == 1 {
		return ScanScript{
			{Component: -1, SpectralStart: 0, SpectralEnd: 0},
			{Component: 0, SpectralStart: 1, SpectralEnd: 9},
			{Component: 0, SpectralStart: 10, SpectralEnd: 63},
		}
	}
	return ScanScript{
		// DC scan for all components
		{Component: -1, SpectralStart: 0, SpectralEnd: 0},
		// Very low frequency AC for Y only - fastest recognizable image
		{Component: 0, SpectralStart: 1, SpectralEnd: 2},
		// Slightly more Y detail
		{Component: 0, SpectralStart: 3, SpectralEnd: 9},
		// Add color information
		{Component: 1, SpectralStart: 1, SpectralEnd: 5},
		{Component: 2, SpectralStart: 1, SpectralEnd: 5},
		// Complete the image
		{Component: 0, SpectralStart: 10, SpectralEnd: 63},
		{Component: 1, SpectralStart: 6, SpectralEnd: 63},
		{Component: 2, SpectralStart: 6, SpectralEnd: 63},
	}
}

// candidateScripts are the scripts tried by ScanOptFull, in order of
// preference on ties.
func candidateScripts(nComponent int) []ScanScript {
	return []ScanScript{
		CompressionScanScript(nComponent),
		SimpleScanScript(nComponent),
		SpectralScanScript(nComponent),
	}
}

// ValidateScanScript checks that script is a complete progressive sequence
// for an image with nComponent components: every scan is well formed, DC is
// sent before any AC of a component, refinements continue exactly where the
// previous scan of the same coefficients stopped, and every coefficient of
// every component ends at full precision.
func ValidateScanScript(script ScanScript, nComponent int) error {
	if len(script) == 0 {
		return fmt.Errorf("%w: scan script cannot be empty", ErrScript)
	}

	// lastBitpos[c][k] is the successive approximation low bit of the last
	// scan that covered coefficient k of component c, or -1.
	var lastBitpos [maxComponents][blockSize]int
	for c := range lastBitpos {
		for k := range lastBitpos[c] {
			lastBitpos[c][k] = -1
		}
	}

	for i, scan := range script {
		if scan.Component < -1 || scan.Component >= nComponent {
			return fmt.Errorf("%w: scan %d has invalid component %d (must be -1 to %d)", ErrScript, i, scan.Component, nComponent-1)
		}
		ss, se := scan.SpectralStart, scan.SpectralEnd
		if ss < 0 || ss > 63 {
			return fmt.Errorf("%w: scan %d has invalid spectral start %d (must be 0-63)", ErrScript, i, ss)
		}
		if se < ss || se > 63 {
			return fmt.Errorf("%w: scan %d has invalid spectral end %d (must be %d-63)", ErrScript, i, se, ss)
		}
		ah, al := scan.SuccessiveApproxHigh, scan.SuccessiveApproxLow
		if ah < 0 || ah > maxAhAl || al < 0 || al > maxAhAl {
			return fmt.Errorf("%w: scan %d has successive approximation %d/%d outside 0-%d", ErrScript, i, ah, al, maxAhAl)
		}
		if ah != 0 && ah != al+1 {
			return fmt.Errorf("%w: scan %d refines bit %d after bit %d", ErrScript, i, al, ah)
		}
		if ss == 0 && se != 0 {
			return fmt.Errorf("%w: scan %d mixes DC and AC coefficients", ErrScript, i)
		}
		if ss != 0 && scan.Component == -1 {
			return fmt.Errorf("%w: AC scan %d cannot have component -1 (interleaved AC not allowed)", ErrScript, i)
		}

		comps := scanComponents(scan, nComponent)
		for _, c := range comps {
			if ss > 0 && lastBitpos[c][0] < 0 {
				return fmt.Errorf("%w: scan %d sends AC of component %d before its DC", ErrScript, i, c)
			}
			for k := ss; k <= se; k++ {
				last := lastBitpos[c][k]
				if last < 0 {
					if ah != 0 {
						return fmt.Errorf("%w: scan %d refines coefficient %d of component %d before a first scan", ErrScript, i, k, c)
					}
				} else if ah != last || al != ah-1 {
					return fmt.Errorf("%w: scan %d does not continue coefficient %d of component %d at bit %d", ErrScript, i, k, c, last)
				}
				lastBitpos[c][k] = al
			}
		}
	}

	for c := 0; c < nComponent; c++ {
		for k := 0; k < blockSize; k++ {
			if lastBitpos[c][k] != 0 {
				return fmt.Errorf("%w: coefficient %d of component %d is not sent at full precision", ErrScript, k, c)
			}
		}
	}
	return nil
}

// scanComponents returns the component indexes covered by scan.
func scanComponents(scan ProgressiveScan, nComponent int) []int {
	if scan.Component >= 0 {
		return []int{scan.Component}
	}
	comps := make([]int, nComponent)
	for i := range comps {
		comps[i] = i
	}
	return comps
}
