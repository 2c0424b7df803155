// Package res implements Stellar 7's RES archive: no central FAT at all.
// Every entry carries its own 8-byte inline header — a fixed 4-character
// name with no terminator, then a u32le size — immediately before its
// data, and the next entry's header follows right after. Reading the
// archive means walking it sequentially; there is nothing to "shrink" or
// "grow" in a header region, since every entry's header moves along with
// its data as one indivisible span.
package res

import (
	"io"
	"strings"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/xerrors"
)

const (
	nameLen   = 4
	sizeLen   = 4
	entryHdr  = nameLen + sizeLen
	maxFilename = nameLen
)

func init() {
	fatarchive.RegisterFormat("res", Format{})
}

// Format implements fatfs.FatFormat for RES archives.
type Format struct{}

func (Format) Name() string                   { return "res" }
func (Format) MaxFilenameLen() int             { return maxFilename }
func (Format) SupportedAttributes() fatfs.Attr { return 0 }
func (Format) Layout() fatfs.HeaderLayout      { return fatfs.HeaderAtStart }

func validName(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}

// scan walks the archive sequentially from offset 0, returning the
// decoded entries and whether the scan consumed the file exactly (no
// trailing garbage, no truncated final header).
func scan(r io.ReaderAt, size int64) (entries []fatfs.Entry, clean bool, err error) {
	var offset int64
	for offset < size {
		if size-offset < entryHdr {
			return entries, false, nil
		}
		var hdr [entryHdr]byte
		if _, err := r.ReadAt(hdr[:], offset); err != nil && err != io.EOF {
			return nil, false, err
		}
		if !validName(hdr[:nameLen]) {
			return entries, false, nil
		}
		fsize := int64(hdr[4]) | int64(hdr[5])<<8 | int64(hdr[6])<<16 | int64(hdr[7])<<24
		if fsize < 0 || offset+entryHdr+fsize > size {
			return entries, false, nil
		}
		entries = append(entries, fatfs.Entry{
			Name:       strings.TrimRight(string(hdr[:nameLen]), " "),
			Offset:     offset,
			HeaderLen:  entryHdr,
			StoredSize: fsize,
			RealSize:   fsize,
			Valid:      true,
		})
		offset += entryHdr + fsize
	}
	return entries, offset == size, nil
}

func (Format) Detect(r io.ReaderAt, size int64) (fatfs.Confidence, error) {
	_, clean, err := scan(r, size)
	if err != nil {
		return fatfs.DefinitelyNo, xerrors.Errorf("res: detect: %w", err)
	}
	if !clean {
		return fatfs.DefinitelyNo, nil
	}
	return fatfs.DefinitelyYes, nil
}

func (Format) ParseHeader(r io.ReaderAt, size int64) ([]fatfs.Entry, int64, error) {
	entries, clean, err := scan(r, size)
	if err != nil {
		return nil, 0, xerrors.Errorf("res: parse header: %w", err)
	}
	if !clean {
		return nil, 0, &fatfs.Error{Kind: fatfs.CorruptHeader, Op: "res.ParseHeader"}
	}
	return entries, 0, nil
}

func putName(dst []byte, name string) {
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, name)
}

func (Format) WriteHeader(backing io.WriterAt, entries []fatfs.Entry) error {
	for _, e := range entries {
		var hdr [entryHdr]byte
		putName(hdr[:nameLen], e.Name)
		sz := uint32(e.StoredSize)
		hdr[4] = byte(sz)
		hdr[5] = byte(sz >> 8)
		hdr[6] = byte(sz >> 16)
		hdr[7] = byte(sz >> 24)
		if _, err := backing.WriteAt(hdr[:], e.Offset); err != nil {
			return xerrors.Errorf("res: write header: %w", err)
		}
	}
	return nil
}

func (Format) PreInsert(entries []fatfs.Entry, idx int, newEntry *fatfs.Entry) (int64, error) {
	if len(newEntry.Name) > maxFilename {
		return 0, &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "res.PreInsert"}
	}
	newEntry.HeaderLen = entryHdr
	return 0, nil // no separate FAT region to grow: the inline header travels with the entry's own span
}

func (Format) PreRemove(entries []fatfs.Entry, idx int) (int64, error) {
	return 0, nil
}

func (Format) PreRename(entries []fatfs.Entry, idx int, newName string) error {
	if len(newName) > maxFilename {
		return &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "res.PreRename"}
	}
	return nil
}

func (Format) PreMove(entries []fatfs.Entry, from, to int) error { return nil }

func (Format) PreResize(entries []fatfs.Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}
