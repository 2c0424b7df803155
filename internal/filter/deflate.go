package filter

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// deflateDecoder wraps klauspost/compress's flate reader for formats that
// set the COMPRESSED attribute but have no bespoke codec of their own.
// Unlike the bitstream filters above it is not incremental at the byte
// level — flate framing requires the whole compressed unit — so it
// buffers input across Transform calls and decodes it on the first
// zero-length call that follows. filter.Stream feeds the raw bytes in 4 KiB
// chunks and makes that zero-length call once the raw view is exhausted;
// the buffer is emptied once decoded, so later zero-length calls emit
// nothing.
type deflateDecoder struct {
	buf []byte
}

func newDeflateDecoder() *deflateDecoder { return new(deflateDecoder) }

func (d *deflateDecoder) Reset(inputHint int64) { d.buf = d.buf[:0] }

func (d *deflateDecoder) Transform(out, in []byte) ([]byte, int, error) {
	d.buf = append(d.buf, in...)
	if len(in) > 0 || len(d.buf) == 0 {
		return out, len(in), nil
	}
	r := flate.NewReader(bytes.NewReader(d.buf))
	defer r.Close()
	decoded, err := io.ReadAll(r)
	if err != nil {
		return out, 0, err
	}
	out = append(out, decoded...)
	d.buf = d.buf[:0]
	return out, 0, nil
}

type deflateEncoder struct {
	buf []byte
}

func newDeflateEncoder() *deflateEncoder { return new(deflateEncoder) }

func (e *deflateEncoder) Reset(inputHint int64) { e.buf = e.buf[:0] }

func (e *deflateEncoder) Transform(out, in []byte) ([]byte, int, error) {
	e.buf = append(e.buf, in...)
	if len(in) > 0 {
		return out, len(in), nil
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return out, 0, err
	}
	if _, err := w.Write(e.buf); err != nil {
		return out, 0, err
	}
	if err := w.Close(); err != nil {
		return out, 0, err
	}
	out = append(out, buf.Bytes()...)
	return out, 0, nil
}
