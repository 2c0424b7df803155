package grp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/retroglyph/fatarchive/internal/fatfs"
)

func buildGRP(t *testing.T, files map[string][]byte, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(signature)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(order)))
	buf.Write(countBuf[:])
	for _, name := range order {
		var rec [recordLen]byte
		copy(rec[:12], name)
		binary.LittleEndian.PutUint32(rec[12:16], uint32(len(files[name])))
		buf.Write(rec[:])
	}
	for _, name := range order {
		buf.Write(files[name])
	}
	return buf.Bytes()
}

func TestGRPDetectAndParse(t *testing.T) {
	files := map[string][]byte{"ONE.MAP": []byte("aaaa"), "TWO.ART": []byte("bbbbbb")}
	order := []string{"ONE.MAP", "TWO.ART"}
	raw := buildGRP(t, files, order)
	r := bytes.NewReader(raw)

	f := Format{}
	conf, err := f.Detect(r, int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if conf != fatfs.DefinitelyYes {
		t.Fatalf("Detect = %v, want DefinitelyYes", conf)
	}

	entries, headerLen, err := f.ParseHeader(r, int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if headerLen != headerPrefix+int64(len(order))*recordLen {
		t.Fatalf("headerLen = %d", headerLen)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d", len(entries))
	}
	for i, name := range order {
		if entries[i].Name != name {
			t.Fatalf("entries[%d].Name = %q, want %q", i, entries[i].Name, name)
		}
		if entries[i].StoredSize != int64(len(files[name])) {
			t.Fatalf("entries[%d].StoredSize = %d", i, entries[i].StoredSize)
		}
		var got [16]byte
		n, _ := r.ReadAt(got[:len(files[name])], entries[i].Offset)
		if string(got[:n]) != string(files[name]) {
			t.Fatalf("entries[%d] data = %q, want %q", i, got[:n], files[name])
		}
	}
}

func TestGRPDetectRejectsBadSignature(t *testing.T) {
	raw := []byte("NotAGRPFileAtAll0000")
	f := Format{}
	conf, err := f.Detect(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}
	if conf != fatfs.DefinitelyNo {
		t.Fatalf("Detect = %v, want DefinitelyNo", conf)
	}
}
