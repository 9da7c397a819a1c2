// Package gitlib wraps libgit2 with the small surface gitloc needs:
// repository access, branch-scoped commit walking and tree checkout.
package gitlib

import (
	"encoding/hex"

	git2go "github.com/libgit2/git2go/v34"
)

// HashSize is the size of a SHA-1 object hash in bytes.
const HashSize = 20

// Hash is a git object hash.
type Hash [HashSize]byte

// NewHash creates a Hash from a hex string. Malformed input yields the zero hash.
func NewHash(hexStr string) Hash {
	var hash Hash

	decoded, err := hex.DecodeString(hexStr)
	if err != nil || len(decoded) != HashSize {
		return Hash{}
	}

	copy(hash[:], decoded)

	return hash
}

// HashFromOid converts a libgit2 Oid to a Hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var hash Hash
	copy(hash[:], oid[:])

	return hash
}

// ToOid converts the Hash back to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}

// String returns the hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}
