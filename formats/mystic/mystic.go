// Package mystic implements the DAT archive used by Mystic Towers: a
// trailing FAT (one 25-byte record per file — name[13], offset u32le, size
// u32le, modtime u32le — followed by a 4-byte count at the very end of the
// file). The original tool tracked files written but not yet folded into
// the FAT as "uncommitted"; this adapter always keeps the FAT consistent
// with the entry table after every structural call instead, so there is
// no separate commit step to model.
package mystic

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/xerrors"
)

const (
	countLen  = 4
	recordLen = 13 + 4 + 4 + 4
	maxName   = 13
)

func init() {
	fatarchive.RegisterFormat("mystic", Format{})
}

// Format implements fatfs.FatFormat for DAT-Mystic archives.
type Format struct{}

func (Format) Name() string                   { return "mystic" }
func (Format) MaxFilenameLen() int             { return maxName }
func (Format) SupportedAttributes() fatfs.Attr { return 0 }
func (Format) Layout() fatfs.HeaderLayout      { return fatfs.HeaderAtEnd }

func readTrailer(r io.ReaderAt, size int64) (count uint32, headerLen int64, entries []fatfs.Entry, err error) {
	if size < countLen {
		return 0, 0, nil, nil
	}
	var countBuf [countLen]byte
	if _, err := r.ReadAt(countBuf[:], size-countLen); err != nil && err != io.EOF {
		return 0, 0, nil, err
	}
	count = binary.LittleEndian.Uint32(countBuf[:])
	headerLen = int64(count)*recordLen + countLen
	if headerLen > size {
		return count, headerLen, nil, nil
	}
	fatStart := size - headerLen
	entries = make([]fatfs.Entry, count)
	for i := uint32(0); i < count; i++ {
		var rec [recordLen]byte
		if _, err := r.ReadAt(rec[:], fatStart+int64(i)*recordLen); err != nil && err != io.EOF {
			return 0, 0, nil, err
		}
		name := string(bytes.TrimRight(rec[:maxName], "\x00"))
		offset := binary.LittleEndian.Uint32(rec[13:17])
		fsize := binary.LittleEndian.Uint32(rec[17:21])
		mtime := binary.LittleEndian.Uint32(rec[21:25])
		entries[i] = fatfs.Entry{
			Name:       name,
			Offset:     int64(offset),
			StoredSize: int64(fsize),
			RealSize:   int64(fsize),
			ModTime:    time.Unix(int64(mtime), 0),
			Valid:      int64(offset)+int64(fsize) <= fatStart,
		}
	}
	return count, headerLen, entries, nil
}

func (Format) Detect(r io.ReaderAt, size int64) (fatfs.Confidence, error) {
	_, headerLen, entries, err := readTrailer(r, size)
	if err != nil {
		return fatfs.DefinitelyNo, xerrors.Errorf("mystic: detect: %w", err)
	}
	if entries == nil || headerLen > size {
		return fatfs.DefinitelyNo, nil
	}
	for _, e := range entries {
		if !e.Valid {
			return fatfs.DefinitelyNo, nil
		}
	}
	return fatfs.PossiblyYes, nil
}

func (f Format) ParseHeader(r io.ReaderAt, size int64) ([]fatfs.Entry, int64, error) {
	_, headerLen, entries, err := readTrailer(r, size)
	if err != nil {
		return nil, 0, xerrors.Errorf("mystic: parse header: %w", err)
	}
	if entries == nil {
		return nil, 0, &fatfs.Error{Kind: fatfs.CorruptHeader, Op: "mystic.ParseHeader"}
	}
	return entries, headerLen, nil
}

func (Format) WriteHeader(backing io.WriterAt, entries []fatfs.Entry) error {
	fatStart := int64(0)
	for range entries {
		fatStart += recordLen
	}
	// fatStart only totals the records' length; the records and the count
	// below are written at the absolute offset mysticFATOffset derives from
	// the entries' own extents.
	for i, e := range entries {
		var rec [recordLen]byte
		copy(rec[:maxName], e.Name)
		binary.LittleEndian.PutUint32(rec[13:17], uint32(e.Offset))
		binary.LittleEndian.PutUint32(rec[17:21], uint32(e.StoredSize))
		binary.LittleEndian.PutUint32(rec[21:25], uint32(e.ModTime.Unix()))
		if _, err := backing.WriteAt(rec[:], mysticFATOffset(entries)+int64(i)*recordLen); err != nil {
			return xerrors.Errorf("mystic: write header: record %d: %w", i, err)
		}
	}
	var countBuf [countLen]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(entries)))
	if _, err := backing.WriteAt(countBuf[:], mysticFATOffset(entries)+int64(len(entries))*recordLen); err != nil {
		return xerrors.Errorf("mystic: write header: count: %w", err)
	}
	return nil
}

// mysticFATOffset recomputes the FAT's absolute start from the entries'
// own data: the highest (offset+size) among entries is where file data
// ends and the FAT begins, since Layout() == HeaderAtEnd means the engine
// always keeps the FAT immediately after the last byte of file data.
func mysticFATOffset(entries []fatfs.Entry) int64 {
	var end int64
	for _, e := range entries {
		if e.Offset+e.StoredSize > end {
			end = e.Offset + e.StoredSize
		}
	}
	return end
}

func (Format) PreInsert(entries []fatfs.Entry, idx int, newEntry *fatfs.Entry) (int64, error) {
	if len(newEntry.Name) > maxName {
		return 0, &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "mystic.PreInsert"}
	}
	if newEntry.ModTime.IsZero() {
		newEntry.ModTime = time.Unix(0, 0)
	}
	return recordLen, nil
}

func (Format) PreRemove(entries []fatfs.Entry, idx int) (int64, error) {
	return recordLen, nil
}

func (Format) PreRename(entries []fatfs.Entry, idx int, newName string) error {
	if len(newName) > maxName {
		return &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "mystic.PreRename"}
	}
	return nil
}

func (Format) PreMove(entries []fatfs.Entry, from, to int) error { return nil }

func (Format) PreResize(entries []fatfs.Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}
