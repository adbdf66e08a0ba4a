package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// KeyParams identifies a cacheable lookup.
type KeyParams struct {
	// Operation names the lookup, e.g. "query" or "verify". Case-insensitive.
	Operation string

	// Inputs are the lookup arguments in call order, e.g. company name and
	// registration number. Surrounding whitespace is ignored.
	Inputs []string
}

// GenerateKey returns a deterministic hex SHA256 key for params.
func GenerateKey(params KeyParams) (string, error) {
	op := strings.ToLower(strings.TrimSpace(params.Operation))
	if op == "" {
		return "", ErrInvalidCacheKey
	}

	h := sha256.New()
	h.Write([]byte(op))
	for _, in := range params.Inputs {
		// NUL separator keeps ("ab","c") distinct from ("a","bc").
		h.Write([]byte{0})
		h.Write([]byte(strings.TrimSpace(in)))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
