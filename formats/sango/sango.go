// Package sango implements Sango Fighter's DAT archive: no filenames, no
// per-file size field at all. A 4-byte file count sits at the very start,
// followed by count+1 little-endian u32 offsets — one per file plus a
// trailing sentinel equal to the offset one past the last file's data —
// and a file's size is derived by subtracting consecutive offsets rather
// than stored directly. File data follows the offset table.
package sango

import (
	"encoding/binary"
	"io"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/xerrors"
)

const (
	countLen     = 4
	entryLen     = 4
	firstOffset  = countLen // offset table starts right after the count field
)

func init() {
	fatarchive.RegisterFormat("sango", Format{})
}

// Format implements fatfs.FatFormat for DAT-Sango archives.
type Format struct{}

func (Format) Name() string                    { return "sango" }
func (Format) MaxFilenameLen() int              { return 0 } // nameless format
func (Format) SupportedAttributes() fatfs.Attr  { return 0 }
func (Format) Layout() fatfs.HeaderLayout       { return fatfs.HeaderAtStart }

func readOffsets(r io.ReaderAt, size int64) (count uint32, offsets []uint32, err error) {
	if size < countLen {
		return 0, nil, nil
	}
	var countBuf [countLen]byte
	if _, err := r.ReadAt(countBuf[:], 0); err != nil && err != io.EOF {
		return 0, nil, err
	}
	count = binary.LittleEndian.Uint32(countBuf[:])
	tableLen := int64(count+1) * entryLen
	if firstOffset+tableLen > size {
		return count, nil, nil
	}
	offsets = make([]uint32, count+1)
	buf := make([]byte, tableLen)
	if _, err := r.ReadAt(buf, firstOffset); err != nil && err != io.EOF {
		return 0, nil, err
	}
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(buf[i*entryLen:])
	}
	return count, offsets, nil
}

func (f Format) Detect(r io.ReaderAt, size int64) (fatfs.Confidence, error) {
	count, offsets, err := readOffsets(r, size)
	if err != nil {
		return fatfs.DefinitelyNo, xerrors.Errorf("sango: detect: %w", err)
	}
	if offsets == nil {
		return fatfs.DefinitelyNo, nil
	}
	headerLen := int64(firstOffset) + int64(count+1)*entryLen
	prev := uint32(headerLen)
	for _, off := range offsets {
		if off < prev || int64(off) > size {
			return fatfs.DefinitelyNo, nil
		}
		prev = off
	}
	if int64(offsets[len(offsets)-1]) != size {
		// Many legitimate DAT-Sango files pad or trail slightly; we can't
		// ever be fully sure with no signature, only ever PossiblyYes.
		return fatfs.PossiblyYes, nil
	}
	return fatfs.PossiblyYes, nil
}

func (f Format) ParseHeader(r io.ReaderAt, size int64) ([]fatfs.Entry, int64, error) {
	count, offsets, err := readOffsets(r, size)
	if err != nil {
		return nil, 0, xerrors.Errorf("sango: parse header: %w", err)
	}
	if offsets == nil {
		return nil, 0, &fatfs.Error{Kind: fatfs.Truncated, Op: "sango.ParseHeader"}
	}
	headerLen := int64(firstOffset) + int64(count+1)*entryLen
	entries := make([]fatfs.Entry, count)
	for i := uint32(0); i < count; i++ {
		start := int64(offsets[i])
		end := int64(offsets[i+1])
		valid := end >= start && end <= size
		sz := end - start
		if !valid {
			sz = 0
		}
		entries[i] = fatfs.Entry{
			Offset:     start,
			StoredSize: sz,
			RealSize:   sz,
			Valid:      valid,
		}
	}
	return entries, headerLen, nil
}

func (Format) WriteHeader(backing io.WriterAt, entries []fatfs.Entry) error {
	count := uint32(len(entries))
	var countBuf [countLen]byte
	binary.LittleEndian.PutUint32(countBuf[:], count)
	if _, err := backing.WriteAt(countBuf[:], 0); err != nil {
		return xerrors.Errorf("sango: write header: %w", err)
	}
	buf := make([]byte, (count+1)*entryLen)
	off := firstOffset + int64(count+1)*entryLen // headerLen; stays put when entries is empty
	for i, e := range entries {
		binary.LittleEndian.PutUint32(buf[i*entryLen:], uint32(e.Offset))
		off = e.Offset + e.StoredSize
	}
	binary.LittleEndian.PutUint32(buf[int(count)*entryLen:], uint32(off))
	if _, err := backing.WriteAt(buf, firstOffset); err != nil {
		return xerrors.Errorf("sango: write header: %w", err)
	}
	return nil
}

func (Format) PreInsert(entries []fatfs.Entry, idx int, newEntry *fatfs.Entry) (int64, error) {
	if newEntry.Name != "" {
		return 0, &fatfs.Error{Kind: fatfs.UnsupportedOperation, Op: "sango.PreInsert"}
	}
	return entryLen, nil // one new offset slot; the trailing sentinel already existed
}

func (Format) PreRemove(entries []fatfs.Entry, idx int) (int64, error) {
	return entryLen, nil
}

func (Format) PreRename(entries []fatfs.Entry, idx int, newName string) error {
	return &fatfs.Error{Kind: fatfs.UnsupportedOperation, Op: "sango.PreRename"}
}

func (Format) PreMove(entries []fatfs.Entry, from, to int) error { return nil }

func (Format) PreResize(entries []fatfs.Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}
