package lazytext

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Sum is a 32-byte BLAKE3 digest of a holder's content.
type Sum [32]byte

func (s Sum) String() string {
	return hex.EncodeToString(s[:])
}

// digestKey separates content digests from any other BLAKE3 use of the
// same bytes. ASCII, zero-padded to 32 bytes.
var digestKey = [32]byte{
	'l', 'a', 'z', 'y', 't', 'e', 'x', 't', '.', 'c', 'o', 'n', 't', 'e', 'n', 't',
}

// Digest hashes h's content by streaming it through WriteTo, so an
// unresolved sequence is hashed segment by segment without being
// materialized.
func Digest(h Holder) (Sum, error) {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("lazytext: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	if _, err := h.WriteTo(hasher); err != nil {
		return Sum{}, err
	}
	var sum Sum
	copy(sum[:], hasher.Sum(nil))
	return sum, nil
}

// DigestString hashes s the same way Digest hashes a holder.
func DigestString(s string) Sum {
	sum, _ := Digest(NewLiteral(s))
	return sum
}
