package filter

import (
	"io"

	"golang.org/x/xerrors"
)

// Stream glues a (decode, encode) Pair to an underlying raw stream,
// presenting transformed bytes to the caller while storing the raw,
// untransformed bytes in the backing view. Because most of these filters
// only run forward, a Seek that moves backward resets the filter from the
// origin and re-decodes everything up to the new position — the same
// restriction the original archive engine documents for filtered streams.
type Stream struct {
	raw    io.ReadWriteSeeker
	pair   Pair
	decode Filter

	pos       int64 // logical (decoded) position
	rawBuf    []byte
	outBuf    []byte
	outOffset int // how much of outBuf has already been delivered
}

// NewStream wraps raw with the named filter pair for reading. Writing
// through a filtered Stream is not supported in this module — formats that
// need to author compressed entries do so via the Encode side directly
// when constructing a new archive, matching the original engine where
// filtered streams are primarily a read-side convenience.
func NewStream(raw io.ReadWriteSeeker, pair Pair) (*Stream, error) {
	if pair.Decode == nil {
		return nil, xerrors.Errorf("filter: %s has no decoder", pair.Name)
	}
	s := &Stream{raw: raw, pair: pair, decode: pair.Decode()}
	s.decode.Reset(-1)
	return s, nil
}

// Seek implements io.Seeker over the decoded logical stream. Forward seeks
// from the current position just skip decoded bytes; backward seeks
// restart the filter from the origin.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	default:
		return 0, xerrors.Errorf("filter: seek: unsupported whence %d", whence)
	}
	if target < 0 {
		return 0, xerrors.Errorf("filter: seek: negative position %d", target)
	}
	if target < s.pos {
		if _, err := s.raw.Seek(0, io.SeekStart); err != nil {
			return 0, xerrors.Errorf("filter: seek: %w", err)
		}
		s.decode.Reset(-1)
		s.pos = 0
		s.outBuf = s.outBuf[:0]
		s.outOffset = 0
	}
	skip := target - s.pos
	buf := make([]byte, 64*1024)
	for skip > 0 {
		n := int64(len(buf))
		if skip < n {
			n = skip
		}
		read, err := s.Read(buf[:n])
		skip -= int64(read)
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		if read == 0 {
			break
		}
	}
	return s.pos, nil
}

// Read decodes and returns logical bytes starting at the current position.
func (s *Stream) Read(p []byte) (int, error) {
	for s.outOffset >= len(s.outBuf) {
		s.outBuf = s.outBuf[:0]
		s.outOffset = 0
		chunk := make([]byte, 4096)
		n, rerr := s.raw.Read(chunk)
		var err error
		s.outBuf, _, err = s.decode.Transform(s.outBuf, chunk[:n])
		if err != nil {
			return 0, xerrors.Errorf("filter: %s: %w", s.pair.Name, err)
		}
		if n == 0 {
			if len(s.outBuf) == 0 {
				if rerr == io.EOF || rerr == nil {
					return 0, io.EOF
				}
				return 0, rerr
			}
			break
		}
	}
	n := copy(p, s.outBuf[s.outOffset:])
	s.outOffset += n
	s.pos += int64(n)
	return n, nil
}
