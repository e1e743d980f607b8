package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot = "scorecard/snapshot/v1"
	DomainRecord   = "scorecard/record/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordDigest computes a content digest of a single record.
func RecordDigest(r ScoreRecord) (string, error) {
	canonical, err := MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("RecordDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// SnapshotDigest computes a content digest over an ordered record set.
// Identical store contents always produce the same digest.
func SnapshotDigest(records []ScoreRecord) (string, error) {
	if records == nil {
		records = []ScoreRecord{}
	}
	canonical, err := MarshalCanonical(records)
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
