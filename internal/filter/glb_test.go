package filter

import "testing"

func TestGLBCipherRoundTripNoReset(t *testing.T) {
	data := []byte("the raptor GLB cipher protects this level data file")
	enc := newGLBCipher(0, false)
	enc.Reset(-1)
	var cipher []byte
	cipher, n, err := enc.Transform(cipher, data)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(data) {
		t.Fatalf("consumed %d, want %d", n, len(data))
	}

	dec := newGLBCipher(0, true)
	dec.Reset(-1)
	var plain []byte
	plain, _, err = dec.Transform(plain, cipher)
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != string(data) {
		t.Fatalf("got %q, want %q", plain, data)
	}
}

func TestGLBCipherRoundTripWithBlockReset(t *testing.T) {
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i * 7)
	}
	enc := newGLBCipher(glbBlockLen, false)
	enc.Reset(-1)
	var cipher []byte
	cipher, _, err := enc.Transform(cipher, data)
	if err != nil {
		t.Fatal(err)
	}

	dec := newGLBCipher(glbBlockLen, true)
	dec.Reset(-1)
	var plain []byte
	plain, _, err = dec.Transform(plain, cipher)
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != string(data) {
		t.Fatalf("mismatch after round trip with block resets")
	}
}

func TestGLBCipherByteAtATime(t *testing.T) {
	data := []byte("partial feed test for the cipher state machine")
	enc := newGLBCipher(glbBlockLen, false)
	enc.Reset(-1)
	var cipher []byte
	cipher, _, err := enc.Transform(cipher, data)
	if err != nil {
		t.Fatal(err)
	}

	dec := newGLBCipher(glbBlockLen, true)
	dec.Reset(-1)
	var plain []byte
	for _, b := range cipher {
		plain, _, err = dec.Transform(plain, []byte{b})
		if err != nil {
			t.Fatal(err)
		}
	}
	if string(plain) != string(data) {
		t.Fatalf("got %q, want %q", plain, data)
	}
}
