// Digest algorithms for the content region.
//
// Build hashes the content region as it streams it out and records the
// result in the Report, so two builds of the same entries can be compared
// without rereading either file. The algorithm is selected with
// Config.HashAlgorithm.
package solid

import (
	"encoding/hex"
	"hash"
	"hash/fnv"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Hash algorithm constants.
const (
	AlgXXHash3 = 1 // Default, fastest
	AlgFNV1a   = 2 // No external dependencies
	AlgBlake2b = 3 // Cryptographic
)

// algName returns the label used in digest strings.
func algName(alg int) string {
	switch alg {
	case AlgXXHash3:
		return "xxh3"
	case AlgFNV1a:
		return "fnv1a"
	case AlgBlake2b:
		return "blake2b"
	default:
		return ""
	}
}

// newHash returns a fresh hash for alg, or nil for an unknown algorithm.
func newHash(alg int) hash.Hash {
	switch alg {
	case AlgXXHash3:
		return xxh3.New()
	case AlgFNV1a:
		return fnv.New64a()
	case AlgBlake2b:
		h, _ := blake2b.New256(nil) // only fails for an oversized key
		return h
	default:
		return nil
	}
}

// digest formats h as "<alg>:<hex>".
func digest(alg int, h hash.Hash) string {
	return algName(alg) + ":" + hex.EncodeToString(h.Sum(nil))
}
