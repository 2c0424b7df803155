// Package grp implements Duke Nukem 3D's GRP archive format: a signature,
// a file count, then one fixed 16-byte record per file (name, size), with
// every file's data following immediately after the record table in the
// same order. GRP has no filters, no folders, and never shrinks or grows
// its record width — the simplest of the eight formats, and the one this
// module's other adapters are styled after.
package grp

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/xerrors"
)

const (
	signature    = "KenSilverman"
	sigLen       = 12
	countLen     = 4
	recordLen    = 12 + 4 // name[12] + size uint32le
	maxFilename  = 12
	headerPrefix = sigLen + countLen
)

func init() {
	fatarchive.RegisterFormat("grp", Format{})
}

// Format implements fatfs.FatFormat for GRP archives.
type Format struct{}

func (Format) Name() string             { return "grp" }
func (Format) MaxFilenameLen() int       { return maxFilename }
func (Format) SupportedAttributes() fatfs.Attr { return 0 }
func (Format) Layout() fatfs.HeaderLayout      { return fatfs.HeaderAtStart }

func (Format) Detect(r io.ReaderAt, size int64) (fatfs.Confidence, error) {
	if size < headerPrefix {
		return fatfs.DefinitelyNo, nil
	}
	var sig [sigLen]byte
	if _, err := r.ReadAt(sig[:], 0); err != nil && err != io.EOF {
		return fatfs.DefinitelyNo, xerrors.Errorf("grp: detect: %w", err)
	}
	if string(sig[:]) != signature {
		return fatfs.DefinitelyNo, nil
	}
	var countBuf [countLen]byte
	if _, err := r.ReadAt(countBuf[:], sigLen); err != nil && err != io.EOF {
		return fatfs.DefinitelyNo, xerrors.Errorf("grp: detect: %w", err)
	}
	count := binary.LittleEndian.Uint32(countBuf[:])
	want := headerPrefix + int64(count)*recordLen
	if want > size {
		return fatfs.DefinitelyNo, nil
	}
	return fatfs.DefinitelyYes, nil
}

func (f Format) ParseHeader(r io.ReaderAt, size int64) ([]fatfs.Entry, int64, error) {
	conf, err := f.Detect(r, size)
	if err != nil {
		return nil, 0, err
	}
	if conf == fatfs.DefinitelyNo {
		return nil, 0, &fatfs.Error{Kind: fatfs.CorruptHeader, Op: "grp.ParseHeader"}
	}
	var countBuf [countLen]byte
	if _, err := r.ReadAt(countBuf[:], sigLen); err != nil && err != io.EOF {
		return nil, 0, xerrors.Errorf("grp: parse header: %w", err)
	}
	count := int(binary.LittleEndian.Uint32(countBuf[:]))
	headerLen := int64(headerPrefix + count*recordLen)

	entries := make([]fatfs.Entry, count)
	offset := headerLen
	for i := 0; i < count; i++ {
		var rec [recordLen]byte
		if _, err := r.ReadAt(rec[:], int64(headerPrefix+i*recordLen)); err != nil && err != io.EOF {
			return nil, 0, xerrors.Errorf("grp: parse header: record %d: %w", i, err)
		}
		name := string(bytes.TrimRight(rec[:12], "\x00"))
		size := binary.LittleEndian.Uint32(rec[12:16])
		entries[i] = fatfs.Entry{
			Name:       name,
			Offset:     offset,
			StoredSize: int64(size),
			RealSize:   int64(size),
			Valid:      true,
		}
		offset += int64(size)
	}
	return entries, headerLen, nil
}

func (Format) WriteHeader(backing io.WriterAt, entries []fatfs.Entry) error {
	if _, err := backing.WriteAt([]byte(signature), 0); err != nil {
		return xerrors.Errorf("grp: write header: %w", err)
	}
	var countBuf [countLen]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(entries)))
	if _, err := backing.WriteAt(countBuf[:], sigLen); err != nil {
		return xerrors.Errorf("grp: write header: %w", err)
	}
	for i, e := range entries {
		var rec [recordLen]byte
		copy(rec[:12], e.Name)
		binary.LittleEndian.PutUint32(rec[12:16], uint32(e.StoredSize))
		if _, err := backing.WriteAt(rec[:], int64(headerPrefix+i*recordLen)); err != nil {
			return xerrors.Errorf("grp: write header: record %d: %w", i, err)
		}
	}
	return nil
}

func (Format) PreInsert(entries []fatfs.Entry, idx int, newEntry *fatfs.Entry) (int64, error) {
	if len(newEntry.Name) > maxFilename {
		return 0, &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "grp.PreInsert"}
	}
	return recordLen, nil
}

func (Format) PreRemove(entries []fatfs.Entry, idx int) (int64, error) {
	return recordLen, nil
}

func (Format) PreRename(entries []fatfs.Entry, idx int, newName string) error {
	if len(newName) > maxFilename {
		return &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "grp.PreRename"}
	}
	return nil
}

func (Format) PreMove(entries []fatfs.Entry, from, to int) error { return nil }

func (Format) PreResize(entries []fatfs.Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}
