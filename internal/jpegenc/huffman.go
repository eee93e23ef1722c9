package jpegenc

import "math"

// tableClass distinguishes DC from AC Huffman tables, matching the Tc field
// of a DHT segment.
type tableClass int

const (
	dcTable tableClass = 0
	acTable tableClass = 1
)

func (c tableClass) String() string {
	if c == dcTable {
		return "DC"
	}
	return "AC"
}

// Table slots. Luminance uses slot 0, both chrominance components slot 1.
const (
	slotLuminance   = 0
	slotChrominance = 1
	nSlots          = 2
)

// huffmanSpec specifies a Huffman encoding.
type huffmanSpec struct {
	// count[i] is the number of codes of length i+1 bits.
	count [16]byte
	// value[i] is the decoded value of the i'th codeword.
	value []byte
}

// stdHuffmanSpec holds the example tables of section K.3, indexed by
// [class][slot]. They are used for sequential scans when coding optimization
// is disabled, and as the rate model for trellis quantization.
//
// The DC tables have 12 decoded values, called categories.
//
// The AC tables have 162 decoded values: bytes that pack a 4-bit Run and a
// 4-bit Size. There are 16 valid Runs and 10 valid Sizes, plus two special R|S
// cases: 0|0 (meaning EOB) and F|0 (meaning ZRL).
var stdHuffmanSpec = [2][nSlots]huffmanSpec{
	{
		// Luminance DC.
		{
			[16]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0},
			[]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		},
		// Chrominance DC.
		{
			[16]byte{0, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
			[]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		},
	},
	{
		// Luminance AC.
		{
			[16]byte{0, 2, 1, 3, 3, 2, 4, 3, 5, 5, 4, 4, 0, 0, 1, 125},
			[]byte{
				0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12,
				0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
				0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08,
				0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
				0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16,
				0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
				0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39,
				0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
				0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59,
				0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
				0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79,
				0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
				0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98,
				0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
				0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6,
				0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
				0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4,
				0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
				0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea,
				0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
				0xf9, 0xfa,
			},
		},
		// Chrominance AC.
		{
			[16]byte{0, 2, 1, 2, 4, 4, 3, 4, 7, 5, 4, 4, 0, 1, 2, 119},
			[]byte{
				0x00, 0x01, 0x02, 0x03, 0x11, 0x04, 0x05, 0x21,
				0x31, 0x06, 0x12, 0x41, 0x51, 0x07, 0x61, 0x71,
				0x13, 0x22, 0x32, 0x81, 0x08, 0x14, 0x42, 0x91,
				0xa1, 0xb1, 0xc1, 0x09, 0x23, 0x33, 0x52, 0xf0,
				0x15, 0x62, 0x72, 0xd1, 0x0a, 0x16, 0x24, 0x34,
				0xe1, 0x25, 0xf1, 0x17, 0x18, 0x19, 0x1a, 0x26,
				0x27, 0x28, 0x29, 0x2a, 0x35, 0x36, 0x37, 0x38,
				0x39, 0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48,
				0x49, 0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58,
				0x59, 0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68,
				0x69, 0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78,
				0x79, 0x7a, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87,
				0x88, 0x89, 0x8a, 0x92, 0x93, 0x94, 0x95, 0x96,
				0x97, 0x98, 0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5,
				0xa6, 0xa7, 0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4,
				0xb5, 0xb6, 0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3,
				0xc4, 0xc5, 0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2,
				0xd3, 0xd4, 0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda,
				0xe2, 0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9,
				0xea, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
				0xf9, 0xfa,
			},
		},
	},
}

// huffmanLUT is a compiled look-up table representation of a huffmanSpec.
// Each value maps to a uint32 of which the 8 most significant bits hold the
// codeword size in bits and the 24 least significant bits hold the codeword.
// The maximum codeword size is 16 bits. Symbols without a code map to 0.
type huffmanLUT [256]uint32

func (h *huffmanLUT) init(s huffmanSpec) {
	*h = huffmanLUT{}
	code, k := uint32(0), 0
	for i := 0; i < len(s.count); i++ {
		nBits := uint32(i+1) << 24
		for j := uint8(0); j < s.count[i]; j++ {
			h[s.value[k]] = nBits | code
			code++
			k++
		}
		code <<= 1
	}
}

// codeLengths returns the codeword length of every symbol. Symbols that
// have no code get length 0.
func (s huffmanSpec) codeLengths() [256]uint8 {
	var lengths [256]uint8
	k := 0
	for i, n := range s.count {
		for j := 0; j < int(n); j++ {
			lengths[s.value[k]] = uint8(i + 1)
			k++
		}
	}
	return lengths
}

// symbolFreq counts how often each symbol of one table is emitted. Index 256
// is reserved for the pseudo-symbol that keeps the all-ones code unused.
type symbolFreq [257]int64

func (f *symbolFreq) empty() bool {
	for _, n := range f[:256] {
		if n != 0 {
			return false
		}
	}
	return true
}

// maxCodeLength bounds the intermediate code lengths of the Huffman tree
// before they are limited to 16 bits. A tree over 257 symbols is at most 256
// levels deep.
const maxCodeLength = 257

// optimalSpec generates a length-limited optimal Huffman code for the given
// symbol frequencies, following the procedure of section K.2: build the
// tree by repeatedly merging the two least frequent nodes, then move codes
// longer than 16 bits up the tree, then drop the reserved pseudo-symbol so
// that no codeword consists entirely of 1 bits.
func optimalSpec(freq *symbolFreq) huffmanSpec {
	f := *freq
	if f.empty() {
		// A table must define at least one code.
		f[0] = 1
	}
	f[256] = 1

	var (
		bits     [maxCodeLength + 1]int
		codesize [257]int
		others   [257]int
	)
	for i := range others {
		others[i] = -1
	}

	for {
		// Find the smallest nonzero frequency; ties go to the larger index.
		c1, v := -1, int64(math.MaxInt64)
		for i := 0; i <= 256; i++ {
			if f[i] != 0 && f[i] <= v {
				v, c1 = f[i], i
			}
		}
		// Find the next smallest nonzero frequency.
		c2, v := -1, int64(math.MaxInt64)
		for i := 0; i <= 256; i++ {
			if f[i] != 0 && f[i] <= v && i != c1 {
				v, c2 = f[i], i
			}
		}
		if c2 < 0 {
			break
		}

		f[c1] += f[c2]
		f[c2] = 0

		codesize[c1]++
		for others[c1] >= 0 {
			c1 = others[c1]
			codesize[c1]++
		}
		others[c1] = c2

		codesize[c2]++
		for others[c2] >= 0 {
			c2 = others[c2]
			codesize[c2]++
		}
	}

	for i := 0; i <= 256; i++ {
		if codesize[i] > 0 {
			bits[codesize[i]]++
		}
	}

	// Limit code lengths to 16 bits. A pair of codes at the deepest level is
	// replaced by one code there and a pair one level below a shorter prefix.
	for i := maxCodeLength; i > 16; i-- {
		for bits[i] > 0 {
			j := i - 2
			for bits[j] == 0 {
				j--
			}
			bits[i] -= 2
			bits[i-1]++
			bits[j+1] += 2
			bits[j]--
		}
	}

	// Remove the reserved code from the longest length.
	i := 16
	for bits[i] == 0 {
		i--
	}
	bits[i]--

	var spec huffmanSpec
	for l := 1; l <= 16; l++ {
		spec.count[l-1] = byte(bits[l])
	}
	// Assign symbols in order of increasing code size, excluding the
	// pseudo-symbol, which is the last of the longest codes.
	for size := 1; size <= maxCodeLength; size++ {
		for sym := 0; sym < 256; sym++ {
			if codesize[sym] == size {
				spec.value = append(spec.value, byte(sym))
			}
		}
	}
	return spec
}
