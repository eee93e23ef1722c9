// Package report describes a finished conversion as JSON.
package report

// Report is the top-level output of --report.
type Report struct {
	Version     int         `json:"version"`
	GeneratedAt string      `json:"generated_at"`
	Input       InputInfo   `json:"input"`
	Output      OutputInfo  `json:"output"`
	Encoder     EncoderInfo `json:"encoder"`
	Stats       Stats       `json:"stats"`
}

// InputInfo holds metadata about the source image.
type InputInfo struct {
	Path     string    `json:"path"`
	Format   string    `json:"format"`
	Size     int64     `json:"size"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	HasAlpha bool      `json:"has_alpha"`
	AvgColor *[3]uint8 `json:"avg_color,omitempty"` // [R,G,B] 0-255
}

// OutputInfo describes the written JPEG.
type OutputInfo struct {
	Path string `json:"path"`
	Size int64  `json:"size"` // bytes on disk
	Hash string `json:"hash"` // xxhash64, 16 hex chars
}

// EncoderInfo records the settings the encoder ran with.
type EncoderInfo struct {
	Quality        int      `json:"quality"`
	Subsampling    string   `json:"subsampling"`
	Progressive    bool     `json:"progressive"`
	OptimizeCoding bool     `json:"optimize_coding"`
	ScanOpt        string   `json:"scan_opt"`
	Trellis        string   `json:"trellis"`
	Scans          int      `json:"scans"`
	HuffmanTables  int      `json:"huffman_tables"`
	Script         []string `json:"script,omitempty"`
}

// Stats holds derived metrics.
type Stats struct {
	// Ratio is output size over input size.
	Ratio      float64 `json:"ratio"`
	SavedBytes int64   `json:"saved_bytes"`
	ElapsedMS  int64   `json:"elapsed_ms"`
}

// SupportedVersion is the current schema version.
const SupportedVersion = 1
