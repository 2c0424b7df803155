// Package roads implements SkyRoads' roads.lzs archive: a head FAT of
// 4-byte records (u16le absolute data offset, u16le decompressed length)
// with no signature and no explicit count — the first record's offset
// field doubles as the FAT's own length, since the FAT always ends
// exactly where the first file's data begins. A zero-length archive (no
// records, no data) is itself a valid, if empty, instance.
package roads

import (
	"encoding/binary"
	"io"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/xerrors"
)

const fatEntry = 4

func init() {
	fatarchive.RegisterFormat("roads", Format{})
}

// Format implements fatfs.FatFormat for roads.lzs archives.
type Format struct{}

func (Format) Name() string                   { return "roads" }
func (Format) MaxFilenameLen() int             { return 0 } // nameless
func (Format) SupportedAttributes() fatfs.Attr { return fatfs.AttrCompressed }
func (Format) Layout() fatfs.HeaderLayout      { return fatfs.HeaderAtStart }

func scan(r io.ReaderAt, size int64) (headerLen int64, entries []fatfs.Entry, err error) {
	if size == 0 {
		return 0, nil, nil
	}
	if size < fatEntry {
		return 0, nil, nil
	}
	var first [fatEntry]byte
	if _, err := r.ReadAt(first[:], 0); err != nil && err != io.EOF {
		return 0, nil, err
	}
	firstOffset := int64(binary.LittleEndian.Uint16(first[0:2]))
	if firstOffset < fatEntry || firstOffset > size || firstOffset%fatEntry != 0 {
		return 0, nil, nil
	}
	count := firstOffset / fatEntry
	buf := make([]byte, firstOffset)
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return 0, nil, err
	}
	offsets := make([]int64, count)
	declens := make([]int64, count)
	for i := int64(0); i < count; i++ {
		offsets[i] = int64(binary.LittleEndian.Uint16(buf[i*fatEntry:]))
		declens[i] = int64(binary.LittleEndian.Uint16(buf[i*fatEntry+2:]))
	}
	for i := int64(0); i < count; i++ {
		if offsets[i] < firstOffset || offsets[i] > size {
			return 0, nil, nil
		}
		if i > 0 && offsets[i] < offsets[i-1] {
			return 0, nil, nil
		}
	}
	entries = make([]fatfs.Entry, count)
	for i := int64(0); i < count; i++ {
		var stored int64
		if i+1 < count {
			stored = offsets[i+1] - offsets[i]
		} else {
			stored = size - offsets[i]
		}
		e := fatfs.Entry{
			Offset:     offsets[i],
			StoredSize: stored,
			RealSize:   declens[i],
			Valid:      true,
		}
		if stored != declens[i] {
			e.Attrs |= fatfs.AttrCompressed
			e.Filter = "lzs-skyroads"
		}
		entries[i] = e
	}
	return firstOffset, entries, nil
}

func (Format) Detect(r io.ReaderAt, size int64) (fatfs.Confidence, error) {
	if size == 0 {
		return fatfs.DefinitelyYes, nil
	}
	headerLen, entries, err := scan(r, size)
	if err != nil {
		return fatfs.DefinitelyNo, xerrors.Errorf("roads: detect: %w", err)
	}
	if entries == nil && headerLen == 0 {
		return fatfs.DefinitelyNo, nil
	}
	return fatfs.PossiblyYes, nil
}

func (f Format) ParseHeader(r io.ReaderAt, size int64) ([]fatfs.Entry, int64, error) {
	if size == 0 {
		return nil, 0, nil
	}
	headerLen, entries, err := scan(r, size)
	if err != nil {
		return nil, 0, xerrors.Errorf("roads: parse header: %w", err)
	}
	if entries == nil {
		return nil, 0, &fatfs.Error{Kind: fatfs.CorruptHeader, Op: "roads.ParseHeader"}
	}
	return entries, headerLen, nil
}

func (Format) WriteHeader(backing io.WriterAt, entries []fatfs.Entry) error {
	buf := make([]byte, len(entries)*fatEntry)
	for i, e := range entries {
		binary.LittleEndian.PutUint16(buf[i*fatEntry:], uint16(e.Offset))
		binary.LittleEndian.PutUint16(buf[i*fatEntry+2:], uint16(e.RealSize))
	}
	if len(buf) == 0 {
		return nil
	}
	if _, err := backing.WriteAt(buf, 0); err != nil {
		return xerrors.Errorf("roads: write header: %w", err)
	}
	return nil
}

func (Format) PreInsert(entries []fatfs.Entry, idx int, newEntry *fatfs.Entry) (int64, error) {
	if newEntry.Name != "" {
		return 0, &fatfs.Error{Kind: fatfs.UnsupportedOperation, Op: "roads.PreInsert"}
	}
	return fatEntry, nil
}

func (Format) PreRemove(entries []fatfs.Entry, idx int) (int64, error) {
	return fatEntry, nil
}

func (Format) PreRename(entries []fatfs.Entry, idx int, newName string) error {
	return &fatfs.Error{Kind: fatfs.UnsupportedOperation, Op: "roads.PreRename"}
}

func (Format) PreMove(entries []fatfs.Entry, from, to int) error { return nil }

func (Format) PreResize(entries []fatfs.Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}
