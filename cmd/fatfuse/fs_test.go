package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fstream"

	_ "github.com/retroglyph/fatarchive/formats/grp"
	_ "github.com/retroglyph/fatarchive/formats/pod"
)

const (
	grpSignature = "KenSilverman"
	grpRecordLen = 16
	podCountLen  = 4
	podRecordLen = 44
	podMaxName   = 32
)

func buildGRP(t *testing.T, names []string, data [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(grpSignature)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(names)))
	buf.Write(countBuf[:])
	for i, name := range names {
		var rec [grpRecordLen]byte
		copy(rec[:12], name)
		binary.LittleEndian.PutUint32(rec[12:16], uint32(len(data[i])))
		buf.Write(rec[:])
	}
	for _, d := range data {
		buf.Write(d)
	}
	return buf.Bytes()
}

func buildPOD(t *testing.T, names []string, data [][]byte) []byte {
	t.Helper()
	headerLen := podCountLen + len(names)*podRecordLen
	off := headerLen
	offsets := make([]int, len(names))
	for i := range names {
		offsets[i] = off
		off += len(data[i])
	}

	var buf bytes.Buffer
	var countBuf [podCountLen]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(names)))
	buf.Write(countBuf[:])
	for i, name := range names {
		var rec [podRecordLen]byte
		copy(rec[:podMaxName], name)
		binary.LittleEndian.PutUint32(rec[32:36], uint32(len(data[i])))
		binary.LittleEndian.PutUint32(rec[36:40], uint32(offsets[i]))
		buf.Write(rec[:])
	}
	for _, d := range data {
		buf.Write(d)
	}
	return buf.Bytes()
}

func openArchive(t *testing.T, kind string, raw []byte) *fatarchive.Archive {
	t.Helper()
	stream := fstream.New(bytes.NewReader(raw), int64(len(raw)))
	a, err := fatarchive.Open(stream, kind)
	if err != nil {
		t.Fatalf("fatarchive.Open(%s): %v", kind, err)
	}
	return a
}

func TestNewFuseFSFlatArchive(t *testing.T) {
	names := []string{"ONE.MAP", "TWO.ART"}
	data := [][]byte{[]byte("aaaa"), []byte("bbbbbb")}
	raw := buildGRP(t, names, data)
	a := openArchive(t, "grp", raw)

	fs := newFuseFS(a)
	root := fs.dirs[rootInode]
	if len(root.entries) != 2 {
		t.Fatalf("len(root.entries) = %d, want 2", len(root.entries))
	}
	for _, name := range names {
		de, ok := root.byName[name]
		if !ok {
			t.Fatalf("root is missing entry %q", name)
		}
		if de.isDir {
			t.Fatalf("%q should be a file, not a dir", name)
		}
		if _, ok := fs.files[de.inode]; !ok {
			t.Fatalf("%q has no fileNode for inode %d", name, de.inode)
		}
	}
}

func TestNewFuseFSNestedPaths(t *testing.T) {
	names := []string{"cockpit/gauge.pcx", "cockpit/dash.pcx", "READY.TXT"}
	data := [][]byte{[]byte("aaaa"), []byte("bb"), []byte("cccccc")}
	raw := buildPOD(t, names, data)
	a := openArchive(t, "pod", raw)

	fs := newFuseFS(a)
	root := fs.dirs[rootInode]

	ready, ok := root.byName["READY.TXT"]
	if !ok || ready.isDir {
		t.Fatalf("root.byName[READY.TXT] = %+v, ok=%v, want a file", ready, ok)
	}

	cockpit, ok := root.byName["cockpit"]
	if !ok || !cockpit.isDir {
		t.Fatalf("root.byName[cockpit] = %+v, ok=%v, want a directory", cockpit, ok)
	}
	// The synthesized POD folder entry itself must not also appear as a leaf.
	if _, isFile := fs.files[cockpit.inode]; isFile {
		t.Fatal("cockpit directory inode was also registered as a file")
	}

	sub := fs.dirs[cockpit.inode]
	if len(sub.entries) != 2 {
		t.Fatalf("len(cockpit entries) = %d, want 2", len(sub.entries))
	}
	for _, leaf := range []string{"gauge.pcx", "dash.pcx"} {
		de, ok := sub.byName[leaf]
		if !ok {
			t.Fatalf("cockpit is missing entry %q", leaf)
		}
		f, ok := fs.files[de.inode]
		if !ok {
			t.Fatalf("%q has no fileNode", leaf)
		}
		if f.entryIndex < 0 || f.entryIndex >= len(a.List()) {
			t.Fatalf("%q entryIndex %d out of range", leaf, f.entryIndex)
		}
	}
}

func TestReadFileReturnsDecodedBytes(t *testing.T) {
	names := []string{"ONE.MAP"}
	data := [][]byte{[]byte("hello world")}
	raw := buildGRP(t, names, data)
	a := openArchive(t, "grp", raw)

	fs := newFuseFS(a)
	de := fs.dirs[rootInode].byName["ONE.MAP"]

	op := &fuseops.ReadFileOp{Inode: de.inode, Offset: 0, Dst: make([]byte, len(data[0]))}
	if err := fs.ReadFile(context.Background(), op); err != nil {
		t.Fatal(err)
	}
	if op.BytesRead != len(data[0]) {
		t.Fatalf("ReadFile BytesRead = %d, want %d", op.BytesRead, len(data[0]))
	}
	if got := op.Dst[:op.BytesRead]; string(got) != "hello world" {
		t.Fatalf("ReadFile content = %q, want %q", got, "hello world")
	}
}

func TestPrefetchWarmsEveryEntry(t *testing.T) {
	names := []string{"ONE.MAP", "TWO.ART", "THREE.SND"}
	data := [][]byte{[]byte("aaaa"), []byte("bb"), []byte("cccccc")}
	raw := buildGRP(t, names, data)
	a := openArchive(t, "grp", raw)

	fs := newFuseFS(a)
	if err := fs.prefetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		de := fs.dirs[rootInode].byName[name]
		fs.fileReadersMu.Lock()
		_, ok := fs.fileReaders[de.inode]
		fs.fileReadersMu.Unlock()
		if !ok {
			t.Fatalf("prefetch did not warm %q", name)
		}
	}
}
