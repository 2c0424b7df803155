// Package pod implements Terminal Velocity's POD archive: a file count,
// then one 44-byte record per file (name[32], size u32le, offset u32le,
// modtime u32le unix timestamp), then file data. POD names can contain a
// path separator ("cockpit/gauge.pcx"); this adapter synthesizes a FOLDER
// entry for every unique parent directory path it encounters so callers can
// walk the archive as a tree instead of a flat name list, backed by
// OpenFolder.
package pod

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"time"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/xerrors"
)

const (
	countLen  = 4
	recordLen = 32 + 4 + 4 + 4
	maxName   = 32
)

func init() {
	fatarchive.RegisterFormat("pod", Format{})
}

// Format implements fatfs.FatFormat for POD archives.
type Format struct{}

func (Format) Name() string                   { return "pod" }
func (Format) MaxFilenameLen() int             { return maxName }
func (Format) SupportedAttributes() fatfs.Attr { return fatfs.AttrFolder }
func (Format) Layout() fatfs.HeaderLayout      { return fatfs.HeaderAtStart }

// folderChildren is stashed in Entry.Extra for synthesized AttrFolder
// entries: the indices, among the flat entries the engine sees, of this
// folder's immediate children.
type folderChildren struct {
	indices []int
}

func readRecords(r io.ReaderAt, size int64) (count uint32, headerLen int64, entries []fatfs.Entry, err error) {
	if size < countLen {
		return 0, 0, nil, nil
	}
	var countBuf [countLen]byte
	if _, err := r.ReadAt(countBuf[:], 0); err != nil && err != io.EOF {
		return 0, 0, nil, err
	}
	count = binary.LittleEndian.Uint32(countBuf[:])
	headerLen = countLen + int64(count)*recordLen
	if headerLen > size {
		return count, headerLen, nil, nil
	}
	entries = make([]fatfs.Entry, count)
	for i := uint32(0); i < count; i++ {
		var rec [recordLen]byte
		if _, err := r.ReadAt(rec[:], countLen+int64(i)*recordLen); err != nil && err != io.EOF {
			return 0, 0, nil, err
		}
		name := string(bytes.TrimRight(rec[:maxName], "\x00"))
		fsize := binary.LittleEndian.Uint32(rec[32:36])
		offset := binary.LittleEndian.Uint32(rec[36:40])
		mtime := binary.LittleEndian.Uint32(rec[40:44])
		entries[i] = fatfs.Entry{
			Name:       name,
			Offset:     int64(offset),
			StoredSize: int64(fsize),
			RealSize:   int64(fsize),
			ModTime:    time.Unix(int64(mtime), 0),
			Valid:      int64(offset)+int64(fsize) <= size,
		}
	}
	return count, headerLen, entries, nil
}

func (Format) Detect(r io.ReaderAt, size int64) (fatfs.Confidence, error) {
	_, headerLen, entries, err := readRecords(r, size)
	if err != nil {
		return fatfs.DefinitelyNo, xerrors.Errorf("pod: detect: %w", err)
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

// buildFolders walks flat, path-bearing entries and synthesizes a FOLDER
// entry per unique directory prefix, returning the merged entry list (all
// synthesized folders first within their parent's position, then the flat
// files) and recording each folder's children in Entry.Extra.
func buildFolders(flat []fatfs.Entry) []fatfs.Entry {
	type folder struct {
		idx      int
		path     string
		children []int
	}
	var folders []folder
	folderIndex := map[string]int{}

	ensureFolder := func(path string) int {
		if i, ok := folderIndex[path]; ok {
			return i
		}
		folders = append(folders, folder{path: path})
		i := len(folders) - 1
		folderIndex[path] = i
		return i
	}

	for i, e := range flat {
		dir := ""
		if slash := strings.LastIndexAny(e.Name, "/\\"); slash >= 0 {
			dir = strings.ReplaceAll(e.Name[:slash], "\\", "/")
		}
		if dir == "" {
			continue
		}
		fi := ensureFolder(dir)
		folders[fi].children = append(folders[fi].children, i)
	}

	if len(folders) == 0 {
		out := make([]fatfs.Entry, len(flat))
		copy(out, flat)
		return out
	}

	out := make([]fatfs.Entry, 0, len(flat)+len(folders))
	for _, f := range folders {
		// children were counted within flat, which follows the folders in out
		children := make([]int, len(f.children))
		for j, c := range f.children {
			children[j] = c + len(folders)
		}
		out = append(out, fatfs.Entry{
			Name:  f.path,
			Attrs: fatfs.AttrFolder,
			Valid: true,
			Extra: folderChildren{indices: children},
		})
	}
	out = append(out, flat...)
	return out
}

func (f Format) ParseHeader(r io.ReaderAt, size int64) ([]fatfs.Entry, int64, error) {
	_, headerLen, flat, err := readRecords(r, size)
	if err != nil {
		return nil, 0, xerrors.Errorf("pod: parse header: %w", err)
	}
	if flat == nil {
		return nil, 0, &fatfs.Error{Kind: fatfs.CorruptHeader, Op: "pod.ParseHeader"}
	}
	return buildFolders(flat), headerLen, nil
}

// OpenFolder implements fatfs.FolderOpener.
func (Format) OpenFolder(entries []fatfs.Entry, idx int) ([]fatfs.Entry, error) {
	fc, ok := entries[idx].Extra.(folderChildren)
	if !ok {
		return nil, &fatfs.Error{Kind: fatfs.UnsupportedOperation, Op: "pod.OpenFolder"}
	}
	out := make([]fatfs.Entry, 0, len(fc.indices))
	for _, i := range fc.indices {
		if i >= 0 && i < len(entries) {
			out = append(out, entries[i])
		}
	}
	return out, nil
}

func (Format) WriteHeader(backing io.WriterAt, entries []fatfs.Entry) error {
	var flat []fatfs.Entry
	for _, e := range entries {
		if e.Attrs&fatfs.AttrFolder != 0 {
			continue // synthesized, not stored on disk
		}
		flat = append(flat, e)
	}
	var countBuf [countLen]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(flat)))
	if _, err := backing.WriteAt(countBuf[:], 0); err != nil {
		return xerrors.Errorf("pod: write header: %w", err)
	}
	for i, e := range flat {
		var rec [recordLen]byte
		copy(rec[:maxName], e.Name)
		binary.LittleEndian.PutUint32(rec[32:36], uint32(e.StoredSize))
		binary.LittleEndian.PutUint32(rec[36:40], uint32(e.Offset))
		binary.LittleEndian.PutUint32(rec[40:44], uint32(e.ModTime.Unix()))
		if _, err := backing.WriteAt(rec[:], countLen+int64(i)*recordLen); err != nil {
			return xerrors.Errorf("pod: write header: record %d: %w", i, err)
		}
	}
	return nil
}

func (Format) PreInsert(entries []fatfs.Entry, idx int, newEntry *fatfs.Entry) (int64, error) {
	if len(newEntry.Name) > maxName {
		return 0, &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "pod.PreInsert"}
	}
	if newEntry.ModTime.IsZero() {
		newEntry.ModTime = time.Unix(0, 0)
	}
	return recordLen, nil
}

func (Format) PreRemove(entries []fatfs.Entry, idx int) (int64, error) {
	if entries[idx].Attrs&fatfs.AttrFolder != 0 {
		return 0, &fatfs.Error{Kind: fatfs.UnsupportedOperation, Op: "pod.PreRemove"}
	}
	return recordLen, nil
}

func (Format) PreRename(entries []fatfs.Entry, idx int, newName string) error {
	if len(newName) > maxName {
		return &fatfs.Error{Kind: fatfs.FilenameTooLong, Op: "pod.PreRename"}
	}
	return nil
}

func (Format) PreMove(entries []fatfs.Entry, from, to int) error { return nil }

func (Format) PreResize(entries []fatfs.Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}
