package domain

// Hasher fingerprints uploaded payloads for log correlation.
type Hasher interface {
	Hash(data []byte) string
}
