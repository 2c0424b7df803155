// Package filter implements the streaming byte-transform filters archive
// entries can be wrapped in (RLE, a block-reset stream cipher, LZS/LZW
// dictionary decoders, and a general-purpose deflate fallback), plus the
// filtered stream that glues a (decode, encode) pair to an fsview.View.
package filter

import "golang.org/x/xerrors"

// Filter is a resumable, partial-buffer byte transform. Implementations
// must tolerate being called with less input than a full logical unit (a
// run, a dictionary code) and carry state across calls until Reset.
type Filter interface {
	// Reset clears carried state. inputHint is the total input length the
	// caller expects to feed before the next Reset, or -1 if unknown; a
	// filter may use it to size internal buffers but must not require it to
	// be accurate.
	Reset(inputHint int64)

	// Transform consumes as much of in as it can and appends produced bytes
	// to out, returning the grown out slice, the number of input bytes
	// consumed, and an error. A zero-length in with a non-empty filter
	// state (e.g. on flush) must drain any buffered partial unit it can
	// safely emit.
	Transform(out, in []byte) (result []byte, consumed int, err error)
}

// Pair is a named (decode, encode) filter pair; an archive entry selects
// one by naming it in its Filter field.
type Pair struct {
	Name   string
	Decode func() Filter
	Encode func() Filter
}

var registry = map[string]Pair{}

// Register adds a named filter pair to the process-wide registry. This
// package's own init registers every built-in pair (e.g. "lzw-epfs").
func Register(p Pair) {
	registry[p.Name] = p
}

// Lookup returns the registered pair by name.
func Lookup(name string) (Pair, error) {
	p, ok := registry[name]
	if !ok {
		return Pair{}, xerrors.Errorf("filter: no such filter %q registered", name)
	}
	return p, nil
}

func init() {
	Register(Pair{Name: "rle-ddave", Decode: func() Filter { return new(rleDecoder) }, Encode: func() Filter { return new(rleEncoder) }})
	Register(Pair{Name: "cipher-glb-raptor", Decode: func() Filter { return newGLBCipher(0, true) }, Encode: func() Filter { return newGLBCipher(0, false) }})
	Register(Pair{Name: "cipher-glb-raptor-fat", Decode: func() Filter { return newGLBCipher(glbBlockLen, true) }, Encode: func() Filter { return newGLBCipher(glbBlockLen, false) }})
	Register(Pair{Name: "lzw-epfs", Decode: func() Filter { return newLZWDecoder() }, Encode: nil})
	Register(Pair{Name: "lzs-skyroads", Decode: func() Filter { return newLZSDecoder() }, Encode: nil})
	Register(Pair{Name: "deflate", Decode: func() Filter { return newDeflateDecoder() }, Encode: func() Filter { return newDeflateEncoder() }})
}
