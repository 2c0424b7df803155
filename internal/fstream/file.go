package fstream

import (
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"golang.org/x/xerrors"
)

// FileStream is a Stream backed by an on-disk file, opened for random
// access reads and flushed atomically via renameio so a crash mid-flush
// never leaves a half-written archive in place.
type FileStream struct {
	*Stream
	path string
	f    *os.File
}

// OpenFile opens path and wraps it in a FileStream. The file is kept open
// for the lifetime of the FileStream to serve ReadAt calls for segments
// that are still spans of the original file.
func OpenFile(path string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("fstream: open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, xerrors.Errorf("fstream: stat %s: %w", path, err)
	}
	return &FileStream{
		Stream: New(f, fi.Size()),
		path:   path,
		f:      f,
	}, nil
}

// Flush linearizes the current segment list and atomically replaces the
// backing file with it, the way cmd/distri's image-pack step writes a new
// SquashFS image next to the old one and swaps it into place: a
// renameio.TempFile in the same directory, written in full, then
// CloseAtomicallyReplace (which fsyncs and renames on our behalf).
func (fs *FileStream) Flush() error {
	dir := filepath.Dir(fs.path)
	t, err := renameio.TempFile(dir, fs.path)
	if err != nil {
		return xerrors.Errorf("fstream: flush %s: %w", fs.path, err)
	}
	defer t.Cleanup()

	if _, err := fs.Stream.WriteTo(t); err != nil {
		return xerrors.Errorf("fstream: flush %s: %w", fs.path, err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return xerrors.Errorf("fstream: flush %s: %w", fs.path, err)
	}

	// Re-open so subsequent reads of still-underlying spans see the file we
	// just wrote rather than the (now possibly unlinked) old inode.
	nf, err := os.Open(fs.path)
	if err != nil {
		return xerrors.Errorf("fstream: reopen %s after flush: %w", fs.path, err)
	}
	old := fs.f
	fi, err := nf.Stat()
	if err != nil {
		nf.Close()
		return xerrors.Errorf("fstream: stat %s after flush: %w", fs.path, err)
	}
	fs.f = nf
	fs.Stream = New(nf, fi.Size())
	old.Close()
	return nil
}

// Close releases the underlying file descriptor without flushing.
func (fs *FileStream) Close() error {
	if fs.f == nil {
		return nil
	}
	err := fs.f.Close()
	fs.f = nil
	return err
}
