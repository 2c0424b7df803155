package pod

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/retroglyph/fatarchive/internal/fatfs"
)

type podFile struct {
	name string
	data []byte
}

func buildPOD(t *testing.T, files []podFile) []byte {
	t.Helper()
	headerLen := countLen + len(files)*recordLen
	offsets := make([]int, len(files))
	off := headerLen
	for i, f := range files {
		offsets[i] = off
		off += len(f.data)
	}

	var buf bytes.Buffer
	var countBuf [countLen]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(files)))
	buf.Write(countBuf[:])
	for i, f := range files {
		var rec [recordLen]byte
		copy(rec[:maxName], f.name)
		binary.LittleEndian.PutUint32(rec[32:36], uint32(len(f.data)))
		binary.LittleEndian.PutUint32(rec[36:40], uint32(offsets[i]))
		buf.Write(rec[:])
	}
	for _, f := range files {
		buf.Write(f.data)
	}
	return buf.Bytes()
}

func TestPODDetectAndParse(t *testing.T) {
	files := []podFile{
		{"cockpit/gauge.pcx", []byte("aaaa")},
		{"cockpit/dash.pcx", []byte("bb")},
		{"READY.TXT", []byte("cccccc")},
	}
	raw := buildPOD(t, files)
	r := bytes.NewReader(raw)

	f := Format{}
	conf, err := f.Detect(r, int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if conf != fatfs.PossiblyYes {
		t.Fatalf("Detect = %v, want PossiblyYes", conf)
	}

	entries, headerLen, err := f.ParseHeader(r, int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if headerLen != int64(countLen+len(files)*recordLen) {
		t.Fatalf("headerLen = %d", headerLen)
	}

	// buildFolders prepends one synthesized folder entry for "cockpit".
	if entries[0].Name != "cockpit" || entries[0].Attrs&fatfs.AttrFolder == 0 {
		t.Fatalf("entries[0] = %+v, want synthesized cockpit folder", entries[0])
	}

	children, err := f.OpenFolder(entries, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 2 {
		t.Fatalf("len(OpenFolder children) = %d, want 2", len(children))
	}
	for _, c := range children {
		if c.Name != "cockpit/gauge.pcx" && c.Name != "cockpit/dash.pcx" {
			t.Fatalf("unexpected child %q", c.Name)
		}
	}

	var sawReady bool
	for _, e := range entries {
		if e.Name == "READY.TXT" {
			sawReady = true
			if e.StoredSize != 6 {
				t.Fatalf("READY.TXT StoredSize = %d, want 6", e.StoredSize)
			}
		}
	}
	if !sawReady {
		t.Fatal("READY.TXT not found in flat entries")
	}
}

func TestPODDetectRejectsTruncatedHeader(t *testing.T) {
	raw := []byte{3, 0, 0, 0} // count=3 but no records follow
	f := Format{}
	conf, err := f.Detect(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if conf != fatfs.DefinitelyNo {
		t.Fatalf("Detect = %v, want DefinitelyNo", conf)
	}
}

func TestPODWriteHeaderSkipsSynthesizedFolders(t *testing.T) {
	entries := []fatfs.Entry{
		{Name: "cockpit", Attrs: fatfs.AttrFolder, Extra: folderChildren{indices: []int{1}}},
		{Name: "cockpit/gauge.pcx", StoredSize: 4, Offset: int64(countLen + recordLen)},
	}
	var buf bytes.Buffer
	w := &writerAtBuffer{&buf}
	if err := (Format{}).WriteHeader(w, entries); err != nil {
		t.Fatal(err)
	}
	got := buf.Bytes()
	if binary.LittleEndian.Uint32(got[:countLen]) != 1 {
		t.Fatalf("written count = %d, want 1 (folder entry must not be written)", binary.LittleEndian.Uint32(got[:countLen]))
	}
}

// writerAtBuffer adapts a bytes.Buffer (append-only) to io.WriterAt for
// a header written strictly in increasing-offset order, as WriteHeader does.
type writerAtBuffer struct {
	buf *bytes.Buffer
}

func (w *writerAtBuffer) WriteAt(p []byte, off int64) (int, error) {
	if off != int64(w.buf.Len()) {
		panic("writerAtBuffer: out-of-order write")
	}
	return w.buf.Write(p)
}
