package hashring

import (
	"crypto"
	"crypto/md5"
	"encoding/binary"
)

const md5Parts = md5.Size / 4

// KetamaMD5 derives four positions from the 16-byte MD5 digest of a key.
// Each position is one little-endian quarter of the digest; Hash equals
// part 0.
//
// Every call computes its digest in a fresh stack value, so no digest state
// is shared between goroutines.
type KetamaMD5 struct{}

var _ Algorithm = (*KetamaMD5)(nil)

// NewKetamaMD5 returns ErrDigestUnavailable if MD5 is not available.
func NewKetamaMD5() (*KetamaMD5, error) {
	if !crypto.MD5.Available() {
		return nil, ErrDigestUnavailable
	}
	return &KetamaMD5{}, nil
}

// Hash returns the first little-endian word of the digest.
func (m *KetamaMD5) Hash(key string) uint64 {
	return ketamaHash(key)
}

func (m *KetamaMD5) CountHashParts() int {
	return md5Parts
}

// HashPartsInto writes the four little-endian words of the digest, in order.
func (m *KetamaMD5) HashPartsInto(key string, parts []uint64) {
	checkParts(parts, md5Parts)
	digest := md5.Sum(keyBytes(key))
	for h := 0; h < md5Parts; h++ {
		parts[h] = uint64(binary.LittleEndian.Uint32(digest[h*4:]))
	}
}
