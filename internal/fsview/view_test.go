package fsview

import (
	"io"
	"testing"

	"github.com/retroglyph/fatarchive/internal/fstream"
)

func backingFromString(s string) *fstream.Stream {
	return fstream.New(stringReaderAt(s), int64(len(s)))
}

type stringReaderAt string

func (s stringReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s)) {
		return 0, io.EOF
	}
	n := copy(p, s[off:])
	return n, nil
}

func TestViewReadClamped(t *testing.T) {
	b := backingFromString("0123456789")
	v := New(b, 2, 4, nil)
	got := make([]byte, 10)
	n, err := v.Read(got)
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if string(got[:n]) != "2345" {
		t.Fatalf("got %q", got[:n])
	}
}

func TestViewWriteWithinBounds(t *testing.T) {
	b := backingFromString("0123456789")
	v := New(b, 2, 4, nil)
	if _, err := v.Write([]byte("ab")); err != nil {
		t.Fatal(err)
	}
	out, err := b.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(out), "01ab456789"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestViewWritePastBoundFails(t *testing.T) {
	b := backingFromString("0123456789")
	v := New(b, 2, 4, nil)
	if _, err := v.Write([]byte("abcde")); err == nil {
		t.Fatal("expected error writing past view bound")
	}
}

func TestViewWriteGrowsViaTruncateFunc(t *testing.T) {
	b := backingFromString("0123456789")
	var gotSize int64
	v := New(b, 2, 4, func(v *View, newSize int64) error {
		gotSize = newSize
		v.Relocate(v.Offset(), newSize)
		return nil
	})
	if _, err := v.Seek(0, io.SeekEnd); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Write([]byte("xyz")); err != nil {
		t.Fatalf("Write past bound with a TruncateFunc: %v", err)
	}
	if gotSize != 7 {
		t.Fatalf("TruncateFunc called with newSize = %d, want 7", gotSize)
	}
	if v.Size() != 7 {
		t.Fatalf("Size() = %d, want 7", v.Size())
	}
	out, err := b.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(out[2:9]), "2345xyz"; got != want {
		t.Fatalf("backing bytes = %q, want %q", got, want)
	}
}

func TestViewTruncateRequiresFunc(t *testing.T) {
	b := backingFromString("0123456789")
	v := New(b, 2, 4, nil)
	if err := v.Truncate(5); err == nil {
		t.Fatal("expected error truncating view with no TruncateFunc")
	}
}

func TestViewTruncateDelegates(t *testing.T) {
	b := backingFromString("0123456789")
	var gotSize int64
	v := New(b, 2, 4, func(v *View, newSize int64) error {
		gotSize = newSize
		v.Relocate(v.Offset(), newSize)
		return nil
	})
	if err := v.Truncate(7); err != nil {
		t.Fatal(err)
	}
	if gotSize != 7 {
		t.Fatalf("gotSize = %d, want 7", gotSize)
	}
	if v.Size() != 7 {
		t.Fatalf("Size() = %d, want 7", v.Size())
	}
}

func TestViewRelocate(t *testing.T) {
	b := backingFromString("0123456789")
	v := New(b, 2, 4, nil)
	v.Relocate(5, 3)
	if v.Offset() != 5 || v.Size() != 3 {
		t.Fatalf("Relocate did not apply: offset=%d size=%d", v.Offset(), v.Size())
	}
}

func TestViewCloseMarksClosed(t *testing.T) {
	b := backingFromString("0123456789")
	v := New(b, 0, 4, nil)
	if v.Closed() {
		t.Fatal("expected not closed initially")
	}
	if err := v.Close(); err != nil {
		t.Fatal(err)
	}
	if !v.Closed() {
		t.Fatal("expected closed after Close")
	}
	if _, err := v.Read(make([]byte, 1)); err == nil {
		t.Fatal("expected error reading closed view")
	}
}
