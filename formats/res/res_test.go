package res

import (
	"bytes"
	"testing"

	"github.com/retroglyph/fatarchive/internal/fatfs"
)

func buildRES(t *testing.T, entries []struct {
	name string
	data []byte
}) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, e := range entries {
		var hdr [entryHdr]byte
		putName(hdr[:nameLen], e.name)
		sz := uint32(len(e.data))
		hdr[4] = byte(sz)
		hdr[5] = byte(sz >> 8)
		hdr[6] = byte(sz >> 16)
		hdr[7] = byte(sz >> 24)
		buf.Write(hdr[:])
		buf.Write(e.data)
	}
	return buf.Bytes()
}

func TestRESSeedScenario(t *testing.T) {
	entries := []struct {
		name string
		data []byte
	}{
		{"ONE:", []byte("first file contents")},
		{"TWO:", []byte("second")},
		{"THR:", []byte("third file data here")},
	}
	raw := buildRES(t, entries)
	r := bytes.NewReader(raw)

	f := Format{}
	conf, err := f.Detect(r, int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if conf != fatfs.DefinitelyYes {
		t.Fatalf("Detect = %v, want DefinitelyYes", conf)
	}

	parsed, headerLen, err := f.ParseHeader(r, int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if headerLen != 0 {
		t.Fatalf("headerLen = %d, want 0 (no separate FAT region)", headerLen)
	}
	if len(parsed) != 3 {
		t.Fatalf("len(parsed) = %d", len(parsed))
	}
	for i, want := range entries {
		// names are stored as fixed 4 chars; ':' is not a padding char so
		// it survives TrimRight, only trailing spaces are trimmed
		if parsed[i].Name != want.name {
			t.Fatalf("parsed[%d].Name = %q, want %q", i, parsed[i].Name, want.name)
		}
		if parsed[i].StoredSize != int64(len(want.data)) {
			t.Fatalf("parsed[%d].StoredSize = %d, want %d", i, parsed[i].StoredSize, len(want.data))
		}
	}
}

func TestRESDetectRejectsControlCharInName(t *testing.T) {
	raw := []byte{0x01, 'B', 'C', 'D', 4, 0, 0, 0, 'd', 'a', 't', 'a'}
	f := Format{}
	conf, err := f.Detect(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if conf != fatfs.DefinitelyNo {
		t.Fatalf("Detect = %v, want DefinitelyNo", conf)
	}
}
