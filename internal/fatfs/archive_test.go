package fatfs

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// fakeFormat is a minimal head-FAT format used only to exercise the
// generic engine: a 4-byte entry count, then one 16-byte record per entry
// (name[8], offset uint32, size uint32).
type fakeFormat struct{}

const fakeEntryLen = 16

func (fakeFormat) Name() string               { return "fake" }
func (fakeFormat) MaxFilenameLen() int         { return 8 }
func (fakeFormat) SupportedAttributes() Attr   { return 0 }
func (fakeFormat) Layout() HeaderLayout        { return HeaderAtStart }
func (fakeFormat) Detect(io.ReaderAt, int64) (Confidence, error) { return PossiblyYes, nil }

func (fakeFormat) ParseHeader(r io.ReaderAt, size int64) ([]Entry, int64, error) {
	var countBuf [4]byte
	if _, err := r.ReadAt(countBuf[:], 0); err != nil && err != io.EOF {
		return nil, 0, err
	}
	count := int(binary.LittleEndian.Uint32(countBuf[:]))
	headerLen := int64(4 + count*fakeEntryLen)
	entries := make([]Entry, count)
	for i := 0; i < count; i++ {
		var rec [fakeEntryLen]byte
		if _, err := r.ReadAt(rec[:], 4+int64(i*fakeEntryLen)); err != nil && err != io.EOF {
			return nil, 0, err
		}
		name := bytes.TrimRight(rec[:8], "\x00")
		offset := binary.LittleEndian.Uint32(rec[8:12])
		fsize := binary.LittleEndian.Uint32(rec[12:16])
		entries[i] = Entry{
			Name:       string(name),
			Offset:     int64(offset),
			StoredSize: int64(fsize),
			RealSize:   int64(fsize),
			Valid:      true,
		}
	}
	return entries, headerLen, nil
}

func (fakeFormat) WriteHeader(backing io.WriterAt, entries []Entry) error {
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(entries)))
	if _, err := backing.WriteAt(countBuf[:], 0); err != nil {
		return err
	}
	for i, e := range entries {
		var rec [fakeEntryLen]byte
		copy(rec[:8], e.Name)
		binary.LittleEndian.PutUint32(rec[8:12], uint32(e.Offset))
		binary.LittleEndian.PutUint32(rec[12:16], uint32(e.StoredSize))
		if _, err := backing.WriteAt(rec[:], 4+int64(i*fakeEntryLen)); err != nil {
			return err
		}
	}
	return nil
}

func (fakeFormat) PreInsert(entries []Entry, idx int, newEntry *Entry) (int64, error) {
	return fakeEntryLen, nil
}

func (fakeFormat) PreRemove(entries []Entry, idx int) (int64, error) {
	return fakeEntryLen, nil
}

func (fakeFormat) PreRename(entries []Entry, idx int, newName string) error { return nil }

func (fakeFormat) PreMove(entries []Entry, from, to int) error { return nil }

func (fakeFormat) PreResize(entries []Entry, idx int, newStoredSize int64) (int64, error) {
	return 0, nil
}

// fakeBacking is an in-memory Backing for tests, avoiding a dependency on
// internal/fstream so this package's tests don't create an import cycle.
type fakeBacking struct {
	buf []byte
	pos int64
}

func newFakeBacking(initial []byte) *fakeBacking {
	b := make([]byte, len(initial))
	copy(b, initial)
	return &fakeBacking{buf: b}
}

func (f *fakeBacking) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *fakeBacking) WriteAt(p []byte, off int64) (int, error) {
	need := off + int64(len(p))
	if need > int64(len(f.buf)) {
		grown := make([]byte, need)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[off:], p)
	return len(p), nil
}

func (f *fakeBacking) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	case io.SeekEnd:
		f.pos = int64(len(f.buf)) + offset
	}
	return f.pos, nil
}

func (f *fakeBacking) Insert(n int64) error {
	gap := make([]byte, n)
	buf := make([]byte, 0, int64(len(f.buf))+n)
	buf = append(buf, f.buf[:f.pos]...)
	buf = append(buf, gap...)
	buf = append(buf, f.buf[f.pos:]...)
	f.buf = buf
	return nil
}

func (f *fakeBacking) Remove(n int64) error {
	buf := make([]byte, 0, int64(len(f.buf))-n)
	buf = append(buf, f.buf[:f.pos]...)
	buf = append(buf, f.buf[f.pos+n:]...)
	f.buf = buf
	return nil
}

func (f *fakeBacking) Size() int64 { return int64(len(f.buf)) }

func emptyFakeArchive(t *testing.T) (*Archive, *fakeBacking) {
	t.Helper()
	b := newFakeBacking([]byte{0, 0, 0, 0})
	a, err := Open(b, fakeFormat{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return a, b
}

func TestInsertThenList(t *testing.T) {
	a, _ := emptyFakeArchive(t)
	if err := a.InsertFile(0, Entry{Name: "one"}, []byte("hello")); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	if err := a.InsertFile(1, Entry{Name: "two"}, []byte("world!")); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	entries := a.List()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Name != "one" || entries[1].Name != "two" {
		t.Fatalf("unexpected names: %+v", entries)
	}

	v, err := a.OpenEntry(0)
	if err != nil {
		t.Fatalf("OpenEntry: %v", err)
	}
	got := make([]byte, 5)
	if _, err := io.ReadFull(v, got); err != nil {
		t.Fatalf("read entry 0: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}

	v2, err := a.OpenEntry(1)
	if err != nil {
		t.Fatalf("OpenEntry: %v", err)
	}
	got2 := make([]byte, 6)
	if _, err := io.ReadFull(v2, got2); err != nil {
		t.Fatalf("read entry 1: %v", err)
	}
	if string(got2) != "world!" {
		t.Fatalf("got %q", got2)
	}
}

func TestInsertMiddleShiftsSubsequentOffsets(t *testing.T) {
	a, _ := emptyFakeArchive(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(a.InsertFile(0, Entry{Name: "a"}, []byte("AAAA")))
	must(a.InsertFile(1, Entry{Name: "c"}, []byte("CCCC")))
	must(a.InsertFile(1, Entry{Name: "b"}, []byte("BB")))

	names := []string{}
	for _, e := range a.List() {
		names = append(names, e.Name)
	}
	if names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("unexpected order: %v", names)
	}

	for i, want := range []string{"AAAA", "BB", "CCCC"} {
		v, err := a.OpenEntry(i)
		must(err)
		got := make([]byte, len(want))
		if _, err := io.ReadFull(v, got); err != nil {
			t.Fatalf("read entry %d: %v", i, err)
		}
		if string(got) != want {
			t.Fatalf("entry %d: got %q, want %q", i, got, want)
		}
	}
}

func TestRemoveFile(t *testing.T) {
	a, _ := emptyFakeArchive(t)
	if err := a.InsertFile(0, Entry{Name: "a"}, []byte("AAAA")); err != nil {
		t.Fatal(err)
	}
	if err := a.InsertFile(1, Entry{Name: "b"}, []byte("BB")); err != nil {
		t.Fatal(err)
	}
	if err := a.RemoveFile(0); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	entries := a.List()
	if len(entries) != 1 || entries[0].Name != "b" {
		t.Fatalf("unexpected entries after remove: %+v", entries)
	}
	v, err := a.OpenEntry(0)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 2)
	if _, err := io.ReadFull(v, got); err != nil {
		t.Fatal(err)
	}
	if string(got) != "BB" {
		t.Fatalf("got %q", got)
	}
}

func TestRenameFile(t *testing.T) {
	a, _ := emptyFakeArchive(t)
	if err := a.InsertFile(0, Entry{Name: "old"}, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := a.RenameFile(0, "new"); err != nil {
		t.Fatalf("RenameFile: %v", err)
	}
	if a.List()[0].Name != "new" {
		t.Fatalf("rename did not apply")
	}
}

func TestRenameFileTooLong(t *testing.T) {
	a, _ := emptyFakeArchive(t)
	if err := a.InsertFile(0, Entry{Name: "short"}, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := a.RenameFile(0, "waytoolongname"); err == nil {
		t.Fatal("expected FilenameTooLong error")
	}
}

func TestMoveFilePreservesBytes(t *testing.T) {
	a, _ := emptyFakeArchive(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(a.InsertFile(0, Entry{Name: "a"}, []byte("AAAA")))
	must(a.InsertFile(1, Entry{Name: "b"}, []byte("BB")))
	must(a.InsertFile(2, Entry{Name: "c"}, []byte("CCCCCC")))

	if err := a.MoveFile(0, 2); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	names := []string{}
	for _, e := range a.List() {
		names = append(names, e.Name)
	}
	if names[0] != "b" || names[1] != "a" || names[2] != "c" {
		t.Fatalf("unexpected order after move: %v", names)
	}

	want := map[string]string{"a": "AAAA", "b": "BB", "c": "CCCCCC"}
	for i, e := range a.List() {
		v, err := a.OpenEntry(i)
		if err != nil {
			t.Fatal(err)
		}
		got := make([]byte, e.StoredSize)
		if _, err := io.ReadFull(v, got); err != nil {
			t.Fatal(err)
		}
		if string(got) != want[e.Name] {
			t.Fatalf("entry %q: got %q, want %q", e.Name, got, want[e.Name])
		}
	}
}

func TestResizeFileGrowPadsWithZeros(t *testing.T) {
	a, _ := emptyFakeArchive(t)
	if err := a.InsertFile(0, Entry{Name: "a"}, []byte("AAAA")); err != nil {
		t.Fatal(err)
	}
	if err := a.InsertFile(1, Entry{Name: "b"}, []byte("BB")); err != nil {
		t.Fatal(err)
	}
	if err := a.ResizeFile(0, 6); err != nil {
		t.Fatalf("ResizeFile: %v", err)
	}
	v, err := a.OpenEntry(0)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 6)
	if _, err := io.ReadFull(v, got); err != nil {
		t.Fatal(err)
	}
	if string(got[:4]) != "AAAA" || got[4] != 0 || got[5] != 0 {
		t.Fatalf("got %v", got)
	}

	v2, err := a.OpenEntry(1)
	if err != nil {
		t.Fatal(err)
	}
	got2 := make([]byte, 2)
	if _, err := io.ReadFull(v2, got2); err != nil {
		t.Fatal(err)
	}
	if string(got2) != "BB" {
		t.Fatalf("entry b corrupted by resizing a: got %q", got2)
	}
}

func TestFlushRoundTrip(t *testing.T) {
	a, b := emptyFakeArchive(t)
	if err := a.InsertFile(0, Entry{Name: "a"}, []byte("AAAA")); err != nil {
		t.Fatal(err)
	}
	if err := a.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	a2, err := Open(b, fakeFormat{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	entries := a2.List()
	if len(entries) != 1 || entries[0].Name != "a" {
		t.Fatalf("unexpected entries after reopen: %+v", entries)
	}
	v, err := a2.OpenEntry(0)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 4)
	if _, err := io.ReadFull(v, got); err != nil {
		t.Fatal(err)
	}
	if string(got) != "AAAA" {
		t.Fatalf("got %q", got)
	}
}
