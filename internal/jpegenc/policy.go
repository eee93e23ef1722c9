package jpegenc

import "fmt"

// ColorSpace is the layout of the samples passed to WriteScanlines.
type ColorSpace int

const (
	// ColorSpaceRGB is 8-bit interleaved R,G,B. It is stored as YCbCr.
	ColorSpaceRGB ColorSpace = iota + 1
	// ColorSpaceGray is 8-bit single-channel luminance.
	ColorSpaceGray
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceRGB:
		return "rgb"
	case ColorSpaceGray:
		return "gray"
	default:
		return fmt.Sprintf("ColorSpace(%d)", int(c))
	}
}

// channels returns the number of interleaved input samples per pixel.
func (c ColorSpace) channels() int {
	if c == ColorSpaceGray {
		return 1
	}
	return 3
}

// ScanOpt selects how the progressive scan script is chosen.
type ScanOpt int

const (
	// ScanOptFast uses a fixed script tuned for compression ratio.
	ScanOptFast ScanOpt = iota
	// ScanOptFull encodes every candidate script and keeps the smallest.
	ScanOptFull
)

func (s ScanOpt) String() string {
	if s == ScanOptFull {
		return "full"
	}
	return "fast"
}

// TrellisOpt selects rate-distortion optimized quantization.
type TrellisOpt int

const (
	// TrellisOff rounds every coefficient to the nearest quantization step.
	TrellisOff TrellisOpt = iota
	// TrellisDefault runs one trellis pass with the standard tables as
	// rate model.
	TrellisDefault
	// TrellisThorough runs a second pass whose rate model is the optimal
	// Huffman code derived from the first pass.
	TrellisThorough
)

func (t TrellisOpt) String() string {
	switch t {
	case TrellisOff:
		return "off"
	case TrellisDefault:
		return "default"
	case TrellisThorough:
		return "thorough"
	default:
		return fmt.Sprintf("TrellisOpt(%d)", int(t))
	}
}

// Policy is the set of compression choices applied to a session.
type Policy struct {
	OptimizeCoding bool
	Progressive    bool
	ScanOpt        ScanOpt
	Trellis        TrellisOpt
	// Deringing lifts saturated runs before the DCT so clipped ringing is
	// hidden at hard edges against white.
	Deringing bool
	// ScanScript overrides the script picked by ScanOpt when non-nil.
	ScanScript ScanScript
}

// MaxCompression returns the policy used for every conversion: optimized
// Huffman tables, progressive scans from the fast script, one trellis pass
// and overshoot deringing. Quality is the only knob left to callers.
func MaxCompression() Policy {
	return Policy{
		OptimizeCoding: true,
		Progressive:    true,
		ScanOpt:        ScanOptFast,
		Trellis:        TrellisDefault,
		Deringing:      true,
	}
}

// Baseline returns a policy equivalent to a plain sequential encoder with
// the standard Huffman tables. It is the reference point for measuring what
// MaxCompression saves.
func Baseline() Policy {
	return Policy{}
}

// fullChromaQuality is the quality from which chroma is no longer
// subsampled.
const fullChromaQuality = 90

// Subsampling is the chroma subsampling of the encoded frame.
type Subsampling int

const (
	Subsampling420 Subsampling = iota
	Subsampling444
)

func (s Subsampling) String() string {
	if s == Subsampling444 {
		return "4:4:4"
	}
	return "4:2:0"
}

func subsamplingFor(quality int) Subsampling {
	if quality >= fullChromaQuality {
		return Subsampling444
	}
	return Subsampling420
}
