// Package convert runs the decode, normalize, encode and write pipeline for
// a single image.
package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/AnyUserName/jpegsqueeze/internal/hasher"
	"github.com/AnyUserName/jpegsqueeze/internal/jpegenc"
	"github.com/AnyUserName/jpegsqueeze/internal/loader"
	"github.com/AnyUserName/jpegsqueeze/internal/rgb"
)

// DefaultQuality is used when no quality is given.
const DefaultQuality = 85

// Options configures one conversion.
type Options struct {
	Input   string
	Output  string
	Quality int
}

// Result describes a finished conversion.
type Result struct {
	InputPath   string
	InputFormat string
	InputSize   int64
	Width       int
	Height      int
	HasAlpha    bool
	AvgColor    [3]uint8

	OutputPath string
	OutputSize int64
	// Hash is the full xxhash64 digest of the output bytes.
	Hash string

	Policy  jpegenc.Policy
	Encoder jpegenc.Stats
	Elapsed time.Duration
}

// Run converts opts.Input to a JPEG at opts.Output. Quality is checked
// before any file is touched, and the output file is only created once
// encoding has succeeded. Every error is an *Error.
func Run(opts Options, logger *zap.Logger) (*Result, error) {
	start := time.Now()

	if opts.Quality < 1 || opts.Quality > 100 {
		return nil, &Error{Stage: StageValidate, Err: ErrQuality}
	}

	img, err := loader.Decode(opts.Input)
	if err != nil {
		return nil, &Error{Stage: StageDecode, Path: opts.Input, Err: err}
	}
	logger.Debug("decoded input",
		zap.String("path", img.Path),
		zap.String("format", img.Format),
		zap.Int64("bytes", img.Size),
		zap.Int("width", img.Width()),
		zap.Int("height", img.Height()))
	if ext := loader.FormatFromExt(opts.Input); ext != "" && ext != img.Format {
		logger.Debug("file extension does not match content",
			zap.String("extension", ext), zap.String("content", img.Format))
	}

	buf, err := rgb.Normalize(img.Image)
	if err != nil {
		return nil, &Error{Stage: StageNormalize, Path: opts.Input, Err: err}
	}
	if buf.AlphaDropped {
		logger.Warn("input has transparency; alpha channel dropped", zap.String("path", opts.Input))
	}

	policy := jpegenc.MaxCompression()
	out, err := encode(buf, opts.Quality, policy)
	if err != nil {
		return nil, &Error{Stage: StageEncode, Path: opts.Input, Err: err}
	}
	data := out.Bytes()
	st := out.Stats()
	logger.Debug("encoded",
		zap.Int("quality", opts.Quality),
		zap.Stringer("subsampling", st.Subsampling),
		zap.Int("scans", st.Scans),
		zap.Int("huffman_tables", st.HuffmanTables),
		zap.Int("bytes", len(data)))

	if err := writeFile(opts.Output, data); err != nil {
		return nil, &Error{Stage: StageWrite, Path: opts.Output, Err: stripPath(err)}
	}
	hash := hasher.ContentHash(data, 0)
	logger.Debug("wrote output",
		zap.String("path", opts.Output),
		zap.String("hash", hash[:hasher.ShortLen]))

	return &Result{
		InputPath:   opts.Input,
		InputFormat: img.Format,
		InputSize:   img.Size,
		Width:       buf.Width,
		Height:      buf.Height,
		HasAlpha:    buf.AlphaDropped,
		AvgColor:    buf.AvgColor(),
		OutputPath:  opts.Output,
		OutputSize:  int64(len(data)),
		Hash:        hash,
		Policy:      policy,
		Encoder:     st,
		Elapsed:     time.Since(start),
	}, nil
}

// encode drives one encoder session over buf.
func encode(buf *rgb.Buffer, quality int, policy jpegenc.Policy) (*jpegenc.Output, error) {
	s, err := jpegenc.New(jpegenc.Config{
		Width:      buf.Width,
		Height:     buf.Height,
		Quality:    quality,
		ColorSpace: jpegenc.ColorSpaceRGB,
		Policy:     policy,
	})
	if err != nil {
		return nil, err
	}
	c, err := s.Start()
	if err != nil {
		return nil, err
	}
	if _, err := c.WriteScanlines(buf.Pix); err != nil {
		return nil, err
	}
	return c.Finish()
}

// writeFile creates or truncates path and writes data. The file is closed
// on every path; a close failure is reported alongside any write failure.
func writeFile(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	_, err = f.Write(data)
	return err
}

// stripPath replaces each *fs.PathError in err with its operation and cause,
// since Error already carries the path.
func stripPath(err error) error {
	errs := multierr.Errors(err)
	for i, e := range errs {
		var pe *fs.PathError
		if errors.As(e, &pe) {
			errs[i] = fmt.Errorf("%s: %w", pe.Op, pe.Err)
		}
	}
	return multierr.Combine(errs...)
}
