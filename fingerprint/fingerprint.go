// Package fingerprint derives the stable content identity used to deduplicate
// registrations and purchases. The same logical request always hashes to the
// same fingerprint regardless of source ordering; any change to query text,
// source membership, or price yields a different one.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Size is the fingerprint length in hex characters (128 bits of the SHA-256
// digest).
const Size = 32

// MaxSources caps the source-id set per fingerprint.
const MaxSources = 64

var (
	ErrEmptySourceSet = errors.New("fingerprint: source set is empty")
	ErrTooManySources = fmt.Errorf("fingerprint: source set exceeds %d ids", MaxSources)
	ErrNegativePrice  = errors.New("fingerprint: price is negative")
)

// Compute returns the fingerprint for (query, sourceIDs, priceCents). Pure
// and deterministic; the caller's slice is not modified.
func Compute(query string, sourceIDs []string, priceCents int64) (string, error) {
	if len(sourceIDs) == 0 {
		return "", ErrEmptySourceSet
	}
	if len(sourceIDs) > MaxSources {
		return "", ErrTooManySources
	}
	if priceCents < 0 {
		return "", ErrNegativePrice
	}

	sorted := make([]string, len(sourceIDs))
	copy(sorted, sourceIDs)
	sort.Strings(sorted)

	canonical := fmt.Sprintf("%s:%s:%d", Normalize(query), strings.Join(sorted, ","), priceCents)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:Size], nil
}

// Normalize trims surrounding whitespace and case-folds the query so that
// cosmetic differences do not produce distinct fingerprints.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
