package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/atlas-vision/backend/domain"
)

// New returns a domain.Hasher backed by SHA-256, truncated to size hex
// characters. A size of zero or less keeps the full digest.
func New(size int) domain.Hasher { return sha256Hasher{size: size} }

type sha256Hasher struct {
	size int
}

func (h sha256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if h.size > 0 && h.size < len(digest) {
		return digest[:h.size]
	}
	return digest
}
