package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for artifact digests. The version suffix leaves room for
// a future change of layout.
const (
	DomainFinalOrder     = "pushorder/final-order/v1"
	DomainPriority       = "pushorder/priority/v1"
	DomainManagedStreams = "pushorder/managed-streams/v1"
	DomainCapture        = "pushorder/capture/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest hashes the canonical form of v under domain.
func Digest(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// CaptureDigest identifies the raw bytes of a capture file.
func CaptureDigest(data []byte) string {
	return hashWithDomain(DomainCapture, data)
}
