package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is a named content blob attached to a shipment. The
// fingerprint is a SHA-256 hex digest of the content at sealing time
// and is the sole integrity anchor: content may later be evicted from
// memory once off-loaded to storage, the fingerprint persists.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Fingerprint string    `json:"fingerprint"`
	StoragePath string    `json:"storage_path"`
	Content     []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// FingerprintOf computes the SHA-256 hex digest of content. An absent
// content yields an empty fingerprint (the document stays unsealed).
func FingerprintOf(content []byte) string {
	if content == nil {
		return ""
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Seal computes and stores the document's fingerprint from its current
// content. Sealing is idempotent: sealing twice over unchanged content
// yields the same fingerprint.
func (d *Document) Seal() {
	d.Fingerprint = FingerprintOf(d.Content)
}

// Sealed reports whether a fingerprint has been computed.
func (d *Document) Sealed() bool {
	return d.Fingerprint != ""
}

// Verify recomputes the hash of the current content and compares it to
// the stored fingerprint. It returns false if either is absent; there
// is no partial match.
func (d *Document) Verify() bool {
	if d == nil || d.Fingerprint == "" || d.Content == nil {
		return false
	}
	return FingerprintOf(d.Content) == d.Fingerprint
}
