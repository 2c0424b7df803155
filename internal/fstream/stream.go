// Package fstream implements the segmented backing stream a FAT archive is
// built on: a rope-like list of segments over an underlying io.ReaderAt that
// supports Insert and Remove in O(1) amortized time without touching the
// tail of the stream until Flush is called.
package fstream

import (
	"io"

	"golang.org/x/xerrors"
)

// segment is either a span of the underlying stream [lo, hi) or an
// in-memory buffer holding bytes not yet committed to the underlying stream.
type segment struct {
	mem    []byte // non-nil for an in-memory segment
	lo, hi int64  // underlying span when mem == nil
}

func (s *segment) len() int64 {
	if s.mem != nil {
		return int64(len(s.mem))
	}
	return s.hi - s.lo
}

// Stream is a sparse edit buffer over an underlying seekable byte store.
// The zero value is not usable; use New.
type Stream struct {
	under io.ReaderAt
	segs  []segment
	pos   int64
}

// New wraps r, whose current logical content is the first size bytes
// readable through ReaderAt. The returned Stream starts at position 0.
func New(r io.ReaderAt, size int64) *Stream {
	s := &Stream{under: r}
	if size > 0 {
		s.segs = []segment{{lo: 0, hi: size}}
	}
	return s
}

// Size returns the sum of segment lengths, i.e. the stream's current
// logical length.
func (s *Stream) Size() int64 {
	var n int64
	for i := range s.segs {
		n += s.segs[i].len()
	}
	return n
}

// Seek implements io.Seeker relative to the logical (post-edit) stream.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		abs = s.Size() + offset
	default:
		return 0, xerrors.Errorf("fstream: seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, xerrors.Errorf("fstream: seek: negative position %d", abs)
	}
	s.pos = abs
	return abs, nil
}

// Pos returns the current cursor position.
func (s *Stream) Pos() int64 { return s.pos }

// locate returns the index of the segment containing byte offset pos and
// the offset within that segment, splitting segments at segs boundaries as
// a side effect is NOT performed here (see split for that).
func (s *Stream) locate(pos int64) (idx int, segOff int64) {
	var base int64
	for i := range s.segs {
		l := s.segs[i].len()
		if pos < base+l {
			return i, pos - base
		}
		base += l
	}
	return len(s.segs), 0
}

// split ensures a segment boundary exists exactly at pos (0 <= pos <=
// Size()), returning the index of the segment that starts at pos.
func (s *Stream) split(pos int64) int {
	idx, off := s.locate(pos)
	if idx >= len(s.segs) {
		return idx
	}
	if off == 0 {
		return idx
	}
	seg := s.segs[idx]
	var left, right segment
	if seg.mem != nil {
		left = segment{mem: seg.mem[:off]}
		right = segment{mem: seg.mem[off:]}
	} else {
		left = segment{lo: seg.lo, hi: seg.lo + off}
		right = segment{lo: seg.lo + off, hi: seg.hi}
	}
	s.segs = append(s.segs, segment{})
	copy(s.segs[idx+2:], s.segs[idx+1:])
	s.segs[idx] = left
	s.segs[idx+1] = right
	return idx + 1
}

// Read implements io.Reader from the current cursor position, advancing it.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.readAt(s.pos, p)
	s.pos += int64(n)
	return n, err
}

// readAt is the shared implementation behind Read and ReadAt: it reads
// starting at pos using only its own local position, touching neither
// s.pos nor any other call's state, so concurrent readers (registry.Detect
// probes every registered format's Detect concurrently against one shared
// Stream) never race on a cursor the way sharing s.pos across calls would.
func (s *Stream) readAt(pos int64, p []byte) (int, error) {
	if pos >= s.Size() {
		return 0, io.EOF
	}
	idx, off := s.locate(pos)
	n := 0
	for n < len(p) && idx < len(s.segs) {
		seg := s.segs[idx]
		avail := seg.len() - off
		want := int64(len(p) - n)
		if want > avail {
			want = avail
		}
		if want == 0 {
			idx++
			off = 0
			continue
		}
		if seg.mem != nil {
			copy(p[n:n+int(want)], seg.mem[off:off+want])
		} else {
			if _, err := s.under.ReadAt(p[n:n+int(want)], seg.lo+off); err != nil && err != io.EOF {
				return n, xerrors.Errorf("fstream: read: %w", err)
			}
		}
		n += int(want)
		off += want
		if off >= seg.len() {
			idx++
			off = 0
		}
	}
	return n, nil
}

// Write implements io.Writer at the current cursor position. Writing past
// the end of an in-memory segment overwrites into the next segment(s);
// writing past the logical end of the stream is an error — callers grow the
// stream with Insert first, matching the FAT engine's insert-then-fill
// protocol.
func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.writeAt(s.pos, p)
	s.pos += int64(n)
	return n, err
}

// writeAt is the shared implementation behind Write and WriteAt, taking an
// explicit position instead of touching s.pos (see readAt).
func (s *Stream) writeAt(pos int64, p []byte) (int, error) {
	if pos+int64(len(p)) > s.Size() {
		return 0, xerrors.Errorf("fstream: write: would extend past end of stream, use Insert first")
	}
	n := 0
	for n < len(p) {
		idx := s.split(pos)
		// idx now starts exactly at pos; split it again at the write end
		// within this segment so we only ever touch whole segments.
		seg := s.segs[idx]
		remaining := int64(len(p) - n)
		if remaining < seg.len() {
			s.split(pos + remaining)
			seg = s.segs[idx]
		}
		buf := make([]byte, seg.len())
		copy(buf, p[n:int64(n)+seg.len()])
		s.segs[idx] = segment{mem: buf}
		n += len(buf)
		pos += int64(len(buf))
	}
	return n, nil
}

// Insert splices n zero-filled bytes into the stream at the current cursor
// position without moving the cursor past them; the cursor ends up at the
// start of the inserted region, matching the archive engine's expectation
// that it can Insert then Write to fill the new space.
func (s *Stream) Insert(n int64) error {
	if n < 0 {
		return xerrors.Errorf("fstream: insert: negative length %d", n)
	}
	if n == 0 {
		return nil
	}
	idx := s.split(s.pos)
	buf := make([]byte, n)
	s.segs = append(s.segs, segment{})
	copy(s.segs[idx+1:], s.segs[idx:])
	s.segs[idx] = segment{mem: buf}
	return nil
}

// Remove deletes n bytes starting at the current cursor position. The
// cursor does not move.
func (s *Stream) Remove(n int64) error {
	if n < 0 {
		return xerrors.Errorf("fstream: remove: negative length %d", n)
	}
	if n == 0 {
		return nil
	}
	if s.pos+n > s.Size() {
		return xerrors.Errorf("fstream: remove: range exceeds stream size")
	}
	start := s.split(s.pos)
	end := s.split(s.pos + n)
	s.segs = append(s.segs[:start], s.segs[end:]...)
	return nil
}

// WriteTo linearizes the segment list into w in one left-to-right pass —
// the only point at which bytes that haven't moved are actually re-read
// from the underlying stream and written out. It satisfies io.WriterTo.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var total int64
	buf := make([]byte, 64*1024)
	for i := range s.segs {
		seg := s.segs[i]
		if seg.mem != nil {
			n, err := w.Write(seg.mem)
			total += int64(n)
			if err != nil {
				return total, xerrors.Errorf("fstream: flush: %w", err)
			}
			continue
		}
		remaining := seg.hi - seg.lo
		off := seg.lo
		for remaining > 0 {
			chunk := int64(len(buf))
			if remaining < chunk {
				chunk = remaining
			}
			nr, err := s.under.ReadAt(buf[:chunk], off)
			if err != nil && err != io.EOF {
				return total, xerrors.Errorf("fstream: flush: reading underlying stream: %w", err)
			}
			nw, err := w.Write(buf[:nr])
			total += int64(nw)
			if err != nil {
				return total, xerrors.Errorf("fstream: flush: %w", err)
			}
			off += int64(nr)
			remaining -= int64(nr)
			if nr == 0 {
				break
			}
		}
	}
	return total, nil
}

// ReadAt implements io.ReaderAt against the logical (post-edit) stream,
// independent of the cursor, so an fsview.View can address it directly and
// concurrent callers (multiple formats' Detect probing one shared Stream)
// never interfere with each other.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, xerrors.Errorf("fstream: read: negative position %d", off)
	}
	return s.readAt(off, p)
}

// WriteAt implements io.WriterAt against the logical (post-edit) stream,
// independent of the cursor.
func (s *Stream) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, xerrors.Errorf("fstream: write: negative position %d", off)
	}
	return s.writeAt(off, p)
}

// ReadAll reads the entire logical content regardless of the cursor, for
// callers that just want the bytes (e.g. tests). It does not move the
// cursor.
func (s *Stream) ReadAll() ([]byte, error) {
	saved := s.pos
	defer func() { s.pos = saved }()
	s.pos = 0
	buf := make([]byte, s.Size())
	if _, err := io.ReadFull(s, buf); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
