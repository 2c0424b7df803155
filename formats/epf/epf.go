// Package epf implements The Lion King's EPF archive: an 11-byte prologue
// ("EPFS" signature, a pointer to the FAT, a file count) followed by every
// file's raw bytes back to back, with the FAT trailing at the end. EPF's
// FAT entries carry no offset field at all — a file's position is implicit
// in its index, derived by summing the compressed sizes of every entry
// before it — so renumbering entries (insert/remove/move) is enough to
// keep the archive consistent with no per-entry offset bookkeeping.
package epf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/xerrors"
)

const (
	signature  = "EPFS"
	prologue   = 11
	fatEntry   = 22 // name[13] + flags u8 + compressedSize u32le + decompressedSize u32le
	maxName    = 13
	eaCompress = 0x01
)

func init() {
	fatarchive.RegisterFormat("epf", Format{})
}

// Format implements fatfs.FatFormat for EPF archives.
type Format struct{}

func (Format) Name() string      { return "epf" }
func (Format) MaxFilenameLen() int { return maxName }
func (Format) SupportedAttributes() fatfs.Attr {
	return fatfs.AttrCompressed
}
func (Format) Layout() fatfs.HeaderLayout { return fatfs.HeaderAtEnd }

type prologueFields struct {
	fatOffset uint32
	count     uint16
}

func readPrologue(r io.ReaderAt, size int64) (prologueFields, bool, error) {
	if size < prologue {
		return prologueFields{}, false, nil
	}
	var buf [prologue]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil && err != io.EOF {
		return prologueFields{}, false, err
	}
	if string(buf[:4]) != signature {
		return prologueFields{}, false, nil
	}
	return prologueFields{
		fatOffset: binary.LittleEndian.Uint32(buf[4:8]),
		count:     binary.LittleEndian.Uint16(buf[9:11]),
	}, true, nil
}

func (f Format) Detect(r io.ReaderAt, size int64) (fatfs.Confidence, error) {
	p, ok, err := readPrologue(r, size)
	if err != nil {
		return fatfs.DefinitelyNo, xerrors.Errorf("epf: detect: %w", err)
	}
	if !ok {
		return fatfs.DefinitelyNo, nil
	}
	if int64(p.fatOffset)+int64(p.count)*fatEntry > size {
		return fatfs.DefinitelyNo, nil
	}
	return fatfs.DefinitelyYes, nil
}

func (f Format) ParseHeader(r io.ReaderAt, size int64) ([]fatfs.Entry, int64, error) {
	p, ok, err := readPrologue(r, size)
	if err != nil {
		return nil, 0, xerrors.Errorf("epf: parse header: %w", err)
	}
	if !ok {
		return nil, 0, &fatfs.Error{Kind: fatfs.CorruptHeader, Op: "epf.ParseHeader"}
	}
	headerLen := int64(p.count) * fatEntry
	fatStart := int64(p.fatOffset)

	entries := make([]fatfs.Entry, p.count)
	offset := int64(prologue)
	for i := 0; i < int(p.count); i++ {
		var rec [fatEntry]byte
		if _, err := r.ReadAt(rec[:], fatStart+int64(i)*fatEntry); err != nil && err != io.EOF {
			return nil, 0, xerrors.Errorf("epf: parse header: record %d: %w", i, err)
		}
		name := string(bytes.TrimRight(rec[:maxName], "\x00"))
		flags := rec[13]
		compressed := binary.LittleEndian.Uint32(rec[14:18])
		decompressed := binary.LittleEndian.Uint32(rec[18:22])

		e := fatfs.Entry{
			Name:       name,
			Offset:     offset,
			StoredSize: int64(compressed),
			RealSize:   int64(decompressed),
			Valid:      true,
		}
		if flags&eaCompress != 0 {
			e.Attrs |= fatfs.AttrCompressed
			e.Filter = "lzw-epfs"
		}
		entries[i] = e
		offset += int64(compressed)
	}
	return entries, headerLen, nil
}

func (Format) WriteHeader(backing io.WriterAt, entries []fatfs.Entry) error {
	fatOffset := int64(prologue)
	for _, e := range entries {
		fatOffset += e.StoredSize
	}

	var pro [prologue]byte
	copy(pro[:4], signature)
	binary.LittleEndian.PutUint32(pro[4:8], uint32(fatOffset))
	binary.LittleEndian.PutUint16(pro[9:11], uint16(len(entries)))
	if _, err := backing.WriteAt(pro[:], 0); err != nil {
		return xerrors.Errorf("epf: write header: %w", err)
	}

	for i, e := range entries {
		var rec [fatEntry]byte
		copy(rec[:maxName], e.Name)
		if e.Attrs&fatfs.AttrCompressed != 0 {
			rec[13] = eaCompress
		}
		binary.LittleEndian.PutUint32(rec[14:18], uint32(e.StoredSize))
		binary.LittleEndian.PutUint32(rec[18:22], uint32(e.RealSize))
		if _, err := backing.WriteAt(rec[:], fatOffset+int64(i)*fatEntry); err != nil {
			return xerrors.Errorf("epf: write header: record %d: %w", i, err)
		}
	}
	return nil
}

func (Format) PreInsert(entries []fatfs.Entry, idx int, newEntry *fatfs.Entry) (int64, error) {
	if len(newEntry.Name) > maxName {
		return 0, &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "epf.PreInsert"}
	}
	return fatEntry, nil
}

func (Format) PreRemove(entries []fatfs.Entry, idx int) (int64, error) {
	return fatEntry, nil
}

func (Format) PreRename(entries []fatfs.Entry, idx int, newName string) error {
	if len(newName) > maxName {
		return &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "epf.PreRename"}
	}
	return nil
}

func (Format) PreMove(entries []fatfs.Entry, from, to int) error { return nil }

func (Format) PreResize(entries []fatfs.Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}
