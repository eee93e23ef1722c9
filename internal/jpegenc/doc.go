// Package jpegenc is a size-optimizing baseline and progressive JPEG encoder.
//
// An encode runs as a session with three single-use handles:
//
//	s, err := jpegenc.New(jpegenc.Config{Width: w, Height: h, Quality: 85,
//		ColorSpace: jpegenc.ColorSpaceRGB, Policy: jpegenc.MaxCompression()})
//	c, err := s.Start()
//	_, err = c.WriteScanlines(pix)
//	out, err := c.Finish()
//	data := out.Bytes()
//
// MaxCompression trades encode time for size: coefficients are chosen by
// trellis quantization, scans follow a progressive script and every scan
// carries Huffman tables built from its own statistics.
package jpegenc
