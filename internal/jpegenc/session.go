package jpegenc

import (
	"fmt"
	"math"
)

// maxDimension is the largest width or height a JPEG frame header can carry.
const maxDimension = 1<<16 - 1

// Config configures an encoder session.
type Config struct {
	Width, Height int
	// Quality is on the 1-100 scale, 100 being best.
	Quality    int
	ColorSpace ColorSpace
	Policy     Policy
}

// Stats describes what a finished session produced.
type Stats struct {
	Width, Height int
	Quality       int
	Subsampling   Subsampling
	Progressive   bool
	Trellis       TrellisOpt
	// Scans is the number of SOS segments written.
	Scans int
	// HuffmanTables is the number of Huffman tables defined across all DHT
	// segments.
	HuffmanTables int
	// Script is the progressive script used, nil for sequential output.
	Script ScanScript
	Bytes  int
}

func (c *Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 || c.Width > maxDimension || c.Height > maxDimension {
		return fmt.Errorf("%w: dimensions %dx%d outside 1-%d", ErrConfig, c.Width, c.Height, maxDimension)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside 1-100", ErrConfig, c.Quality)
	}
	if c.ColorSpace != ColorSpaceRGB && c.ColorSpace != ColorSpaceGray {
		return fmt.Errorf("%w: unsupported color space %v", ErrConfig, c.ColorSpace)
	}
	if c.Height > math.MaxInt/c.Width/c.ColorSpace.channels() {
		return fmt.Errorf("%w: %dx%d image is too large", ErrConfig, c.Width, c.Height)
	}
	if c.Policy.ScanScript != nil {
		if !c.Policy.Progressive {
			return fmt.Errorf("%w: scan script given for sequential output", ErrConfig)
		}
		if err := ValidateScanScript(c.Policy.ScanScript, c.nComponent()); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) nComponent() int {
	if c.ColorSpace == ColorSpaceGray {
		return 1
	}
	return 3
}

// Session is a configured encoder. It is consumed by Start.
type Session struct {
	cfg     Config
	started bool
}

// New validates cfg and returns a session ready to start.
func New(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Session{cfg: cfg}, nil
}

// Start begins compression. A session can be started once.
func (s *Session) Start() (*Compression, error) {
	if s.started {
		return nil, fmt.Errorf("%w: session already started", ErrState)
	}
	s.started = true
	rowBytes := s.cfg.Width * s.cfg.ColorSpace.channels()
	return &Compression{
		cfg:      s.cfg,
		rowBytes: rowBytes,
		pix:      make([]byte, 0, rowBytes*s.cfg.Height),
	}, nil
}

// Compression accepts scanlines for a started session. It is consumed by
// Finish.
type Compression struct {
	cfg      Config
	rowBytes int
	pix      []byte
	rows     int
	finished bool
}

// WriteScanlines appends whole rows of interleaved samples and returns the
// number of rows consumed.
func (c *Compression) WriteScanlines(p []byte) (int, error) {
	if c.finished {
		return 0, fmt.Errorf("%w: compression already finished", ErrState)
	}
	if len(p)%c.rowBytes != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte rows", ErrScanlines, len(p), c.rowBytes)
	}
	n := len(p) / c.rowBytes
	if c.rows+n > c.cfg.Height {
		return 0, fmt.Errorf("%w: %d rows past a height of %d", ErrScanlines, c.rows+n-c.cfg.Height, c.cfg.Height)
	}
	c.pix = append(c.pix, p...)
	c.rows += n
	return n, nil
}

// Rows returns the number of rows written so far.
func (c *Compression) Rows() int { return c.rows }

// Finish encodes the written rows. Every row of the image must have been
// written.
func (c *Compression) Finish() (*Output, error) {
	if c.finished {
		return nil, fmt.Errorf("%w: compression already finished", ErrState)
	}
	if c.rows != c.cfg.Height {
		return nil, fmt.Errorf("%w: %d of %d rows written", ErrScanlines, c.rows, c.cfg.Height)
	}
	c.finished = true
	pix := c.pix
	c.pix = nil

	res, sub, err := encodeFrame(pix, &c.cfg)
	if err != nil {
		return nil, err
	}
	p := c.cfg.Policy
	return &Output{
		data: res.data,
		stats: Stats{
			Width:         c.cfg.Width,
			Height:        c.cfg.Height,
			Quality:       c.cfg.Quality,
			Subsampling:   sub,
			Progressive:   p.Progressive,
			Trellis:       p.Trellis,
			Scans:         res.scans,
			HuffmanTables: res.tables,
			Script:        res.script,
			Bytes:         len(res.data),
		},
	}, nil
}

// Output is the result of a finished session.
type Output struct {
	data  []byte
	stats Stats
}

// Bytes returns the complete JPEG stream.
func (o *Output) Bytes() []byte { return o.data }

func (o *Output) Stats() Stats { return o.stats }

// encodeFrame runs the whole pipeline over complete pixel data.
func encodeFrame(pix []byte, cfg *Config) (*frameResult, Subsampling, error) {
	sub := subsamplingFor(cfg.Quality)
	if cfg.ColorSpace == ColorSpaceGray {
		sub = Subsampling444
	}
	var quant [nQuantIndex][blockSize]uint16
	for i := range quant {
		quant[i] = scaleQuant(&flatQuant, cfg.Quality)
	}

	p := cfg.Policy
	f := newFrame(cfg.Width, cfg.Height, cfg.ColorSpace, sub)
	if p.Deringing {
		f.transform(f.buildPlanes(pix, cfg.ColorSpace), &quant)
	} else {
		f.transform(f.buildPlanes(pix, cfg.ColorSpace), nil)
	}

	switch p.Trellis {
	case TrellisOff:
		f.quantize(&quant, nil)
	case TrellisDefault:
		f.quantize(&quant, stdRates())
	case TrellisThorough:
		f.quantize(&quant, stdRates())
		f.quantize(&quant, f.gatheredRates())
	default:
		return nil, sub, fmt.Errorf("%w: unknown trellis option %v", ErrConfig, p.Trellis)
	}

	if !p.Progressive {
		res, err := writeFrame(f, &quant, p, nil)
		return res, sub, err
	}
	n := len(f.comps)
	var (
		res *frameResult
		err error
	)
	switch {
	case p.ScanScript != nil:
		res, err = writeFrame(f, &quant, p, p.ScanScript)
	case p.ScanOpt == ScanOptFull:
		res, err = writeBest(f, &quant, p, candidateScripts(n))
	default:
		res, err = writeFrame(f, &quant, p, CompressionScanScript(n))
	}
	return res, sub, err
}

// Encode runs a full session over pix, which holds every row of the image.
func Encode(pix []byte, cfg Config) ([]byte, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	c, err := s.Start()
	if err != nil {
		return nil, err
	}
	if _, err := c.WriteScanlines(pix); err != nil {
		return nil, err
	}
	out, err := c.Finish()
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
