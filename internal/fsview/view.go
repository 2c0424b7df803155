// Package fsview implements bounded, relocatable views into a backing
// stream. A View is what a format adapter hands back to a caller reading or
// writing one archive entry's bytes: it behaves like a regular seekable
// stream but is clamped to [Offset, Offset+Size) of the underlying stream
// and is kept in sync when the engine shifts bytes around during
// insert/remove/resize of other entries.
package fsview

import (
	"io"

	"golang.org/x/xerrors"
)

// Backing is the subset of *fstream.Stream a View needs. Kept as an
// interface so tests can supply a fake without depending on fstream.
type Backing interface {
	io.ReaderAt
	io.WriterAt
	Size() int64
}

// TruncateFunc is called when a View's Truncate grows or shrinks the
// underlying entry; it is the engine's hook to run resize() bookkeeping
// (updating the FAT entry's size field, shifting subsequent entries).
type TruncateFunc func(v *View, newSize int64) error

// View is a relocatable window into a Backing stream.
type View struct {
	backing  Backing
	offset   int64
	size     int64
	pos      int64
	truncate TruncateFunc
	closed   bool
}

// New returns a View over backing spanning [offset, offset+size).
func New(backing Backing, offset, size int64, truncate TruncateFunc) *View {
	return &View{backing: backing, offset: offset, size: size, truncate: truncate}
}

// Offset returns the view's current start within the backing stream.
func (v *View) Offset() int64 { return v.offset }

// Size returns the view's current length.
func (v *View) Size() int64 { return v.size }

// Relocate updates the view's window, e.g. after the engine has shifted
// bytes for an earlier entry's insert/remove. It does not move any bytes
// itself — it is purely bookkeeping, called by the engine once the shift
// has already happened in the backing stream.
func (v *View) Relocate(offset, size int64) {
	v.offset = offset
	v.size = size
	if v.pos > v.size {
		v.pos = v.size
	}
}

// Seek implements io.Seeker relative to the view's own [0, Size()) range.
func (v *View) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = v.pos + offset
	case io.SeekEnd:
		abs = v.size + offset
	default:
		return 0, xerrors.Errorf("fsview: seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, xerrors.Errorf("fsview: seek: negative position %d", abs)
	}
	v.pos = abs
	return abs, nil
}

// Read implements io.Reader, clamped to the view's bounds.
func (v *View) Read(p []byte) (int, error) {
	if v.closed {
		return 0, xerrors.Errorf("fsview: read: view closed")
	}
	if v.pos >= v.size {
		return 0, io.EOF
	}
	max := v.size - v.pos
	if int64(len(p)) > max {
		p = p[:max]
	}
	n, err := v.backing.ReadAt(p, v.offset+v.pos)
	v.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// Write implements io.Writer, clamped to the view's bounds. A write that
// would extend past the current size invokes the view's TruncateFunc to
// grow it first, the same as an explicit call to Truncate, so a caller can
// grow an entry simply by seeking past its end and writing. A view with no
// TruncateFunc (not resizable) rejects an over-length write instead.
func (v *View) Write(p []byte) (int, error) {
	if v.closed {
		return 0, xerrors.Errorf("fsview: write: view closed")
	}
	need := v.pos + int64(len(p))
	if need > v.size {
		if v.truncate == nil {
			return 0, xerrors.Errorf("fsview: write: would extend past view bound, view is not resizable")
		}
		if err := v.truncate(v, need); err != nil {
			return 0, xerrors.Errorf("fsview: write: growing view: %w", err)
		}
	}
	n, err := v.backing.WriteAt(p, v.offset+v.pos)
	v.pos += int64(n)
	return n, err
}

// Truncate resizes the view to newSize via the engine's registered
// TruncateFunc, which shifts subsequent entries as needed. If no
// TruncateFunc was supplied the view is read-only with respect to resizing.
func (v *View) Truncate(newSize int64) error {
	if v.truncate == nil {
		return xerrors.Errorf("fsview: truncate: view is not resizable")
	}
	if newSize < 0 {
		return xerrors.Errorf("fsview: truncate: negative size %d", newSize)
	}
	if err := v.truncate(v, newSize); err != nil {
		return xerrors.Errorf("fsview: truncate: %w", err)
	}
	return nil
}

// Close marks the view as no longer in use. The engine's open-view
// registry drops closed views on its next shift pass instead of tracking
// liveness with a weak pointer, since Go's weak-pointer support postdates
// this module's baseline.
func (v *View) Close() error {
	v.closed = true
	return nil
}

// Closed reports whether Close has been called, so the engine's registry
// can prune dead entries during its shift pass.
func (v *View) Closed() bool { return v.closed }
