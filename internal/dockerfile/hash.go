package dockerfile

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash computes a SHA-256 hash of the rendered Dockerfile bytes and
// any extra build inputs, returning a 12-character hex prefix. It provides
// a content-addressed identifier for detecting when a rebuild is needed.
func ContentHash(dockerfile []byte, inputs ...string) string {
	h := sha256.New()

	h.Write(dockerfile)

	// Frame each input with NUL separators so distinct input lists never
	// collide on concatenation.
	for _, in := range inputs {
		h.Write([]byte("\x00" + in + "\x00"))
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:12]
}
