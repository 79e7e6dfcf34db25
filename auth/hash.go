package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// encodeHex is a tiny wrapper kept local to this package so
// hashPassword/splitHash read as "hex" operations rather than reaching
// for encoding/hex inline at every call site.
func encodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// splitHash parses the "<salt-hex>$<digest-hex>" format produced by
// hashPassword back into raw bytes.
func splitHash(stored string) (salt, digest []byte, ok bool) {
	parts := strings.SplitN(stored, "$", 2)
	if len(parts) != 2 {
		return nil, nil, false
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, nil, false
	}
	digest, err = hex.DecodeString(parts[1])
	if err != nil {
		return nil, nil, false
	}
	return salt, digest, true
}

// constantTimeEqual compares two byte slices in constant time to avoid
// leaking digest contents through a timing side channel.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505). duplicated here rather than imported from catalog
// because auth and catalog are siblings, not a dependency of one
// another, and the check is a two-line wrapper around lib/pq's error type.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}
