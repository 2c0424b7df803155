package fstream

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newStream(t *testing.T, initial string) *Stream {
	t.Helper()
	r := bytes.NewReader([]byte(initial))
	return New(r, int64(len(initial)))
}

func readAllAt(t *testing.T, s *Stream) string {
	t.Helper()
	b, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return string(b)
}

func TestStreamReadUnmodified(t *testing.T) {
	s := newStream(t, "hello world")
	if got := readAllAt(t, s); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestStreamInsertAtStart(t *testing.T) {
	s := newStream(t, "world")
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(6); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("hello ")); err != nil {
		t.Fatal(err)
	}
	if got, want := readAllAt(t, s), "hello world"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStreamInsertMiddle(t *testing.T) {
	s := newStream(t, "helloworld")
	if _, err := s.Seek(5, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte(" ")); err != nil {
		t.Fatal(err)
	}
	if got, want := readAllAt(t, s), "hello world"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStreamRemoveMiddle(t *testing.T) {
	s := newStream(t, "hello cruel world")
	if _, err := s.Seek(5, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(6); err != nil {
		t.Fatal(err)
	}
	if got, want := readAllAt(t, s), "hello world"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStreamRemoveAll(t *testing.T) {
	s := newStream(t, "gone")
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(4); err != nil {
		t.Fatal(err)
	}
	if got := s.Size(); got != 0 {
		t.Fatalf("Size = %d, want 0", got)
	}
}

func TestStreamWriteOverwritesInPlace(t *testing.T) {
	s := newStream(t, "aaaaa")
	if _, err := s.Seek(1, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("bb")); err != nil {
		t.Fatal(err)
	}
	if got, want := readAllAt(t, s), "abbaa"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStreamMultipleEditsRoundTrip(t *testing.T) {
	s := newStream(t, "0123456789")
	if _, err := s.Seek(3, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(2); err != nil { // remove "34" -> 0125 6789
		t.Fatal(err)
	}
	if err := s.Insert(3); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("XYZ")); err != nil {
		t.Fatal(err)
	}
	want := "012XYZ56789"
	if got := readAllAt(t, s); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("WriteTo mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamEmptyInitial(t *testing.T) {
	s := newStream(t, "")
	if err := s.Insert(5); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("abcde")); err != nil {
		t.Fatal(err)
	}
	if got, want := readAllAt(t, s), "abcde"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
