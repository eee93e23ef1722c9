package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AnyUserName/jpegsqueeze/internal/hasher"
)

// New creates an empty report stamped with the current time.
func New() *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// ComputeStats recalculates the derived metrics from input and output sizes.
func (r *Report) ComputeStats(elapsed time.Duration) {
	s := Stats{ElapsedMS: elapsed.Milliseconds()}
	if r.Input.Size > 0 {
		s.Ratio = float64(r.Output.Size) / float64(r.Input.Size)
	}
	s.SavedBytes = r.Input.Size - r.Output.Size
	r.Stats = s
}

// WriteJSON serializes the report to a JSON file.
func WriteJSON(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}

// Validate checks the report fields and that the output file on disk still
// matches the recorded size and hash. A relative output path is resolved
// against baseDir.
func Validate(r *Report, baseDir string) []string {
	var errs []string

	if r.Version != SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}
	if r.Input.Width <= 0 || r.Input.Height <= 0 {
		errs = append(errs, fmt.Sprintf("input: invalid dimensions %dx%d", r.Input.Width, r.Input.Height))
	}
	if r.Encoder.Quality < 1 || r.Encoder.Quality > 100 {
		errs = append(errs, fmt.Sprintf("encoder: quality %d outside 1-100", r.Encoder.Quality))
	}
	if r.Encoder.Scans <= 0 {
		errs = append(errs, "encoder: no scans recorded")
	}
	if r.Output.Hash == "" {
		errs = append(errs, "output: missing hash")
	}
	if r.Output.Path == "" {
		errs = append(errs, "output: missing path")
		return errs
	}

	path := r.Output.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return append(errs, fmt.Sprintf("output: file not found: %s", r.Output.Path))
	}
	defer f.Close()

	info, err := f.Stat()
	if err == nil && info.Size() != r.Output.Size {
		errs = append(errs, fmt.Sprintf("output: size mismatch: report=%d, disk=%d", r.Output.Size, info.Size()))
	}
	sum, err := hasher.ContentHashReader(f, 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("output: hash %s: %v", r.Output.Path, err))
	} else if r.Output.Hash != "" && sum != r.Output.Hash {
		errs = append(errs, fmt.Sprintf("output: hash mismatch: report=%s, disk=%s", r.Output.Hash, sum))
	}
	return errs
}
