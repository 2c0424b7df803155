// Package fatarchive reads and edits retro-game FAT-style archives: flat
// file tables (GRP, DAT-Sango, EPF, RES, POD, DAT-Hugo, DAT-Mystic,
// roads.lzs) that store a list of member files and their locations inline
// in the archive itself, the way a boot-sector FAT locates files on a
// floppy. Unlike container formats with their own compression (zip, tar,
// squashfs), a FAT archive's per-file bytes are usually stored verbatim or
// behind a small per-file filter (run-length, a stream cipher, a
// dictionary decoder) rather than behind one archive-wide codec.
package fatarchive

import (
	"github.com/retroglyph/fatarchive/internal/fatfs"
)

// Kind mirrors fatfs.Kind, the error classification every operation in
// this package returns through the standard error interface (match it with
// errors.Is against the Err* sentinels below).
type Kind = fatfs.Kind

// Error kind sentinels, usable with errors.Is.
var (
	ErrIo                   = fatfs.ErrIo
	ErrTruncated            = fatfs.ErrTruncated
	ErrCorruptHeader        = fatfs.ErrCorruptHeader
	ErrFilenameTooLong      = fatfs.ErrFilenameTooLong
	ErrUnsupportedOperation = fatfs.ErrUnsupportedOperation
	ErrDuplicateName        = fatfs.ErrDuplicateName
	ErrFilterChange         = fatfs.ErrFilterChange
	ErrNotFound             = fatfs.ErrNotFound
)

// Attr mirrors fatfs.Attr, the bitmask of attribute flags an Entry may
// carry.
type Attr = fatfs.Attr

const (
	AttrCompressed = fatfs.AttrCompressed
	AttrFolder     = fatfs.AttrFolder
	AttrEncrypted  = fatfs.AttrEncrypted
)

// Entry mirrors fatfs.Entry, one member file's metadata.
type Entry = fatfs.Entry

// Stat mirrors fatfs.Stat, the summary counts Archive.Stat returns.
type Stat = fatfs.Stat

// Archive is an open FAT archive bound to a backing byte store, with the
// generic structural operations (§4.E of the design) layered over
// whichever concrete format (§4.F) it was opened as.
type Archive struct {
	inner *fatfs.Archive
	kind  string
}

// Backing is what Open needs from its caller: random access reads/writes
// plus splice support, exactly what *internal/fstream.Stream and
// *internal/fstream.FileStream provide.
type Backing = fatfs.Backing

// Open parses backing as an archive of the named kind (one of the Types()
// identifiers) using that format's registered FatFormat hooks.
func Open(backing Backing, kind string) (*Archive, error) {
	format, err := lookupFormat(kind)
	if err != nil {
		return nil, err
	}
	inner, err := fatfs.Open(backing, format)
	if err != nil {
		return nil, err
	}
	return &Archive{inner: inner, kind: kind}, nil
}

// Kind returns the format identifier the archive was opened as.
func (a *Archive) Kind() string { return a.kind }

// IsValid reports whether the archive's header passed validation at open
// time.
func (a *Archive) IsValid() bool { return a.inner.IsValid() }

// List returns the archive's entry table in index order.
func (a *Archive) List() []Entry { return a.inner.List() }

// Find returns the index of the entry named name, or -1.
func (a *Archive) Find(name string) int { return a.inner.Find(name) }

// SupportedAttributes reports which Attr bits this archive's format
// understands.
func (a *Archive) SupportedAttributes() Attr { return a.inner.SupportedAttributes() }

// Stat summarizes the archive's entry table.
func (a *Archive) Stat() Stat { return a.inner.Stat() }

// OpenEntry opens entries[idx]'s bytes for reading, decoding through its
// filter (if any) transparently. The result also implements io.Writer when
// entries[idx] carries no filter; type-assert for it (growing an
// unfiltered entry this way resizes it, the same as calling ResizeFile).
func (a *Archive) OpenEntry(idx int) (ReadSeeker, error) { return a.inner.OpenEntry(idx) }

// OpenFolder opens the nested entries under entries[idx], for the one
// format (POD) whose entries can themselves be folders.
func (a *Archive) OpenFolder(idx int) ([]Entry, error) { return a.inner.OpenFolder(idx) }

// InsertFile adds a new entry named name at position idx, with data as its
// stored (pre-filter) bytes.
func (a *Archive) InsertFile(idx int, name string, data []byte) error {
	return a.inner.InsertFile(idx, Entry{Name: name}, data)
}

// RemoveFile deletes entries[idx].
func (a *Archive) RemoveFile(idx int) error { return a.inner.RemoveFile(idx) }

// RenameFile changes entries[idx]'s name.
func (a *Archive) RenameFile(idx int, newName string) error {
	return a.inner.RenameFile(idx, newName)
}

// MoveFile repositions entries[from] to index to.
func (a *Archive) MoveFile(from, to int) error { return a.inner.MoveFile(from, to) }

// ResizeFile changes entries[idx]'s stored size.
func (a *Archive) ResizeFile(idx int, newSize int64) error {
	return a.inner.ResizeFile(idx, newSize)
}

// Flush writes the entry table and any pending structural changes back to
// the backing store.
func (a *Archive) Flush() error { return a.inner.Flush() }

// ReadSeeker is the interface OpenEntry returns: a plain io.ReadSeeker,
// named here so callers don't need to import io just to spell the return
// type of OpenEntry.
type ReadSeeker interface {
	Read(p []byte) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
}
