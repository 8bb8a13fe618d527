package expr

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainExpr is the domain prefix for expression IDs.
// The version suffix enables future encoding migration.
const DomainExpr = "symb/expr/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID computes the content-addressed ID of n. Structurally equal trees
// have the same ID, with one exception inherited from float equality:
// 0 and -0 are Equal but encode differently. NaN constants are never
// Equal but do share an ID.
func ID(n Node) (string, error) {
	canonical, err := MarshalCanonical(n)
	if err != nil {
		return "", fmt.Errorf("ID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainExpr, canonical), nil
}

// MustID is like ID but panics on error.
// Use only in tests or when the tree is known to be valid.
func MustID(n Node) string {
	id, err := ID(n)
	if err != nil {
		panic(err)
	}
	return id
}
