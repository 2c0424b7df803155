// Package hugo implements the DAT archive used by the Hugo adventure game
// series: a file count, then one 22-byte record per file (name[13], offset
// u32le, size u32le, type u8), then file data. The original engine keeps
// this format's FAT in a stream separate from the file data stream; this
// module's single-backing-stream model folds both into one file, the
// common case for how these archives actually ship.
package hugo

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/xerrors"
)

const (
	countLen  = 4
	recordLen = 13 + 4 + 4 + 1
	maxName   = 13
)

func init() {
	fatarchive.RegisterFormat("hugo", Format{})
}

// Format implements fatfs.FatFormat for DAT-Hugo archives.
type Format struct{}

func (Format) Name() string                   { return "hugo" }
func (Format) MaxFilenameLen() int             { return maxName }
func (Format) SupportedAttributes() fatfs.Attr { return 0 }
func (Format) Layout() fatfs.HeaderLayout      { return fatfs.HeaderAtStart }

func readRecords(r io.ReaderAt, size int64) (headerLen int64, entries []fatfs.Entry, err error) {
	if size < countLen {
		return 0, nil, nil
	}
	var countBuf [countLen]byte
	if _, err := r.ReadAt(countBuf[:], 0); err != nil && err != io.EOF {
		return 0, nil, err
	}
	count := binary.LittleEndian.Uint32(countBuf[:])
	headerLen = countLen + int64(count)*recordLen
	if headerLen > size {
		return headerLen, nil, nil
	}
	entries = make([]fatfs.Entry, count)
	for i := uint32(0); i < count; i++ {
		var rec [recordLen]byte
		if _, err := r.ReadAt(rec[:], countLen+int64(i)*recordLen); err != nil && err != io.EOF {
			return 0, nil, err
		}
		name := string(bytes.TrimRight(rec[:maxName], "\x00"))
		offset := binary.LittleEndian.Uint32(rec[13:17])
		fsize := binary.LittleEndian.Uint32(rec[17:21])
		entries[i] = fatfs.Entry{
			Name:       name,
			Offset:     int64(offset),
			StoredSize: int64(fsize),
			RealSize:   int64(fsize),
			Type:       string(rec[21]),
			Valid:      int64(offset)+int64(fsize) <= size,
		}
	}
	return headerLen, entries, nil
}

func (Format) Detect(r io.ReaderAt, size int64) (fatfs.Confidence, error) {
	headerLen, entries, err := readRecords(r, size)
	if err != nil {
		return fatfs.DefinitelyNo, xerrors.Errorf("hugo: detect: %w", err)
	}
	if entries == nil || headerLen > size {
		return fatfs.DefinitelyNo, nil
	}
	for _, e := range entries {
		if e.Offset < headerLen || !e.Valid {
			return fatfs.DefinitelyNo, nil
		}
	}
	return fatfs.PossiblyYes, nil
}

func (f Format) ParseHeader(r io.ReaderAt, size int64) ([]fatfs.Entry, int64, error) {
	headerLen, entries, err := readRecords(r, size)
	if err != nil {
		return nil, 0, xerrors.Errorf("hugo: parse header: %w", err)
	}
	if entries == nil {
		return nil, 0, &fatfs.Error{Kind: fatfs.CorruptHeader, Op: "hugo.ParseHeader"}
	}
	return entries, headerLen, nil
}

func (Format) WriteHeader(backing io.WriterAt, entries []fatfs.Entry) error {
	var countBuf [countLen]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(entries)))
	if _, err := backing.WriteAt(countBuf[:], 0); err != nil {
		return xerrors.Errorf("hugo: write header: %w", err)
	}
	for i, e := range entries {
		var rec [recordLen]byte
		copy(rec[:maxName], e.Name)
		binary.LittleEndian.PutUint32(rec[13:17], uint32(e.Offset))
		binary.LittleEndian.PutUint32(rec[17:21], uint32(e.StoredSize))
		if len(e.Type) > 0 {
			rec[21] = e.Type[0]
		}
		if _, err := backing.WriteAt(rec[:], countLen+int64(i)*recordLen); err != nil {
			return xerrors.Errorf("hugo: write header: record %d: %w", i, err)
		}
	}
	return nil
}

func (Format) PreInsert(entries []fatfs.Entry, idx int, newEntry *fatfs.Entry) (int64, error) {
	if len(newEntry.Name) > maxName {
		return 0, &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "hugo.PreInsert"}
	}
	return recordLen, nil
}

func (Format) PreRemove(entries []fatfs.Entry, idx int) (int64, error) {
	return recordLen, nil
}

func (Format) PreRename(entries []fatfs.Entry, idx int, newName string) error {
	if len(newName) > maxName {
		return &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "hugo.PreRename"}
	}
	return nil
}

func (Format) PreMove(entries []fatfs.Entry, from, to int) error { return nil }

func (Format) PreResize(entries []fatfs.Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}
