package filter

// glbKey is the fixed XOR/add cipher key Raptor uses for its GLB resources.
const glbKey = "32768GLB"

// glbBlockLen is the reset period (in bytes) for the FAT region of a GLB
// archive; per-file data uses a blockLen of 0, meaning the cipher never
// resets mid-file.
const glbBlockLen = 28

// glbCipher implements Raptor's block-reset stream cipher: each byte is
// XOR/add-combined with a rotating key byte and the previous ciphertext
// byte, with the key position and "last byte" state reset to a fixed point
// every blockLen bytes (or never, when blockLen is 0).
type glbCipher struct {
	blockLen int
	decode   bool

	offset   int64
	posKey   int
	lastByte byte
}

func newGLBCipher(blockLen int, decode bool) *glbCipher {
	return &glbCipher{blockLen: blockLen, decode: decode}
}

func (c *glbCipher) Reset(inputHint int64) {
	c.offset = 0
	c.applyReset()
}

func (c *glbCipher) applyReset() {
	c.posKey = 25 % len(glbKey)
	c.lastByte = glbKey[c.posKey]
}

func (c *glbCipher) Transform(out, in []byte) ([]byte, int, error) {
	for _, b := range in {
		if c.blockLen != 0 && c.offset%int64(c.blockLen) == 0 {
			c.applyReset()
		}
		var produced byte
		if c.decode {
			produced = byte(int(b) - int(glbKey[c.posKey]) - int(c.lastByte))
			c.lastByte = b
		} else {
			produced = byte(int(b) + int(c.lastByte) + int(glbKey[c.posKey]))
			c.lastByte = produced
		}
		out = append(out, produced)
		c.posKey = (c.posKey + 1) % len(glbKey)
		c.offset++
	}
	return out, len(in), nil
}
