package fatfs

import (
	"io"
	"sort"

	"github.com/retroglyph/fatarchive/internal/filter"
	"github.com/retroglyph/fatarchive/internal/fsview"
)

// Backing is what the engine needs from its underlying byte store: random
// access reads/writes plus the ability to splice bytes in and out, which
// *fstream.Stream provides.
type Backing interface {
	io.ReaderAt
	io.WriterAt
	Seek(offset int64, whence int) (int64, error)
	Insert(n int64) error
	Remove(n int64) error
	Size() int64
}

// Archive is an open FAT-style archive: a format's parsed entry table
// bound to a backing stream, with the generic insert/remove/rename/move/
// resize machinery layered on top of whatever the format's hooks expose.
type Archive struct {
	format  FatFormat
	backing Backing

	entries   []Entry
	headerLen int64
	valid     bool

	openViews []*trackedView
}

type trackedView struct {
	entryIndex int
	view       *fsview.View
}

// Open parses an archive from backing using format's hooks. It does not
// sniff the format — callers pick the format via the root package's
// registry (§4.G) before calling Open.
func Open(backing Backing, format FatFormat) (*Archive, error) {
	entries, headerLen, err := format.ParseHeader(backing, backing.Size())
	if err != nil {
		return nil, wrap("fatfs.Open", err)
	}
	for i := range entries {
		entries[i].Index = i
	}
	a := &Archive{
		format:    format,
		backing:   backing,
		entries:   entries,
		headerLen: headerLen,
		valid:     true,
	}
	return a, nil
}

// IsValid reports whether the archive's header passed validation at open
// time.
func (a *Archive) IsValid() bool { return a.valid }

// List returns a copy of the archive's entry table, in index order.
func (a *Archive) List() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Find returns the index of the entry named name, or -1.
func (a *Archive) Find(name string) int {
	for i := range a.entries {
		if a.entries[i].Name == name {
			return i
		}
	}
	return -1
}

// SupportedAttributes reports which Attr bits this archive's format
// understands.
func (a *Archive) SupportedAttributes() Attr { return a.format.SupportedAttributes() }

// Stat summarizes the archive's entry table.
type Stat struct {
	Count       int
	StoredBytes int64
	RealBytes   int64
}

func (a *Archive) Stat() Stat {
	var s Stat
	s.Count = len(a.entries)
	for i := range a.entries {
		s.StoredBytes += a.entries[i].StoredSize
		s.RealBytes += a.entries[i].RealSize
	}
	return s
}

// OpenEntry opens a view onto entries[idx]'s bytes, applying its filter if
// one is set. The returned io.ReadSeeker is a readWriteSeekerView wrapping
// a *fsview.View when no filter is set, or a *filter.Stream over one when
// Entry.Filter != "". Only the
// unfiltered case also implements io.Writer (type-assert for it, the way
// Flush checks backing for an optional Flush method below): a filter's
// encoded bytes generally aren't the same length as its decoded bytes, so
// writing through a filtered entry at an arbitrary decoded offset has no
// coherent mapping back to raw bytes. Formats author compressed entries by
// running a filter's Encode side over whole buffers up front, via
// InsertFile, rather than through this stream.
func (a *Archive) OpenEntry(idx int) (io.ReadSeeker, error) {
	if idx < 0 || idx >= len(a.entries) {
		return nil, wrap("fatfs.OpenEntry", newErr("OpenEntry", NotFound, nil))
	}
	e := &a.entries[idx]
	if !e.Valid {
		return nil, wrap("fatfs.OpenEntry", newErr("OpenEntry", CorruptHeader, nil))
	}
	v := fsview.New(a.backing, e.Offset+e.HeaderLen, e.StoredSize, a.truncateFunc(idx))
	a.openViews = append(a.openViews, &trackedView{entryIndex: idx, view: v})

	if e.Filter == "" {
		return readWriteSeekerView{v}, nil
	}
	pair, err := filter.Lookup(e.Filter)
	if err != nil {
		return nil, wrap("fatfs.OpenEntry", err)
	}
	fs, err := filter.NewStream(readWriteSeekerView{v}, pair)
	if err != nil {
		return nil, wrap("fatfs.OpenEntry", err)
	}
	return fs, nil
}

// OpenFolder opens the nested entries under entries[idx], for formats that
// implement FolderOpener.
func (a *Archive) OpenFolder(idx int) ([]Entry, error) {
	fo, ok := a.format.(FolderOpener)
	if !ok {
		return nil, wrap("fatfs.OpenFolder", newErr("OpenFolder", UnsupportedOperation, nil))
	}
	if idx < 0 || idx >= len(a.entries) || a.entries[idx].Attrs&AttrFolder == 0 {
		return nil, wrap("fatfs.OpenFolder", newErr("OpenFolder", NotFound, nil))
	}
	out, err := fo.OpenFolder(a.entries, idx)
	if err != nil {
		return nil, wrap("fatfs.OpenFolder", err)
	}
	return out, nil
}

// Flush serializes the entry table via the format's WriteHeader, then
// flushes the backing stream itself if it supports it (file-backed streams
// do, via renameio).
func (a *Archive) Flush() error {
	if err := a.format.WriteHeader(a.backing, a.entries); err != nil {
		return wrap("fatfs.Flush", err)
	}
	if f, ok := a.backing.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return wrap("fatfs.Flush", err)
		}
	}
	return nil
}

// truncateFunc returns the fsview.TruncateFunc bound to entries[idx],
// implementing ResizeFile's on-demand-via-view path.
func (a *Archive) truncateFunc(idx int) fsview.TruncateFunc {
	return func(v *fsview.View, newSize int64) error {
		return a.resizeEntry(idx, newSize)
	}
}

// pruneClosedViews drops tracked views the caller has already Close()d,
// standing in for the original's weak_ptr-based cleanOpenSubstreams: Go
// has no portable pre-1.24 weak pointer, so views unregister themselves
// explicitly instead of being discovered dead via a stale weak reference.
func (a *Archive) pruneClosedViews() {
	live := a.openViews[:0]
	for _, tv := range a.openViews {
		if !tv.view.Closed() {
			live = append(live, tv)
		}
	}
	a.openViews = live
}

// relocateOpenViews updates every tracked view whose entry index is >= from
// to match its entry's current Offset/StoredSize, after a shift has moved
// bytes underneath it.
func (a *Archive) relocateOpenViews(from int) {
	a.pruneClosedViews()
	for _, tv := range a.openViews {
		if tv.entryIndex < from || tv.entryIndex >= len(a.entries) {
			continue
		}
		e := a.entries[tv.entryIndex]
		tv.view.Relocate(e.Offset+e.HeaderLen, e.StoredSize)
	}
}

// sortedByOffset returns entry indices ordered by their on-disk Offset,
// which need not match the caller-visible Index order (the format's
// logical/name order, not necessarily its disk order).
func (a *Archive) sortedByOffset() []int {
	idx := make([]int, len(a.entries))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return a.entries[idx[i]].Offset < a.entries[idx[j]].Offset
	})
	return idx
}

// readWriteSeekerView adapts *fsview.View (Read/Write/Seek/Truncate) to
// exactly io.ReadWriteSeeker, since filter.NewStream only needs that much.
type readWriteSeekerView struct{ v *fsview.View }

func (r readWriteSeekerView) Read(p []byte) (int, error)  { return r.v.Read(p) }
func (r readWriteSeekerView) Write(p []byte) (int, error) { return r.v.Write(p) }
func (r readWriteSeekerView) Seek(offset int64, whence int) (int64, error) {
	return r.v.Seek(offset, whence)
}
