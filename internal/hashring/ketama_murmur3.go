package hashring

import (
	"sync"
	"unicode/utf16"

	"github.com/spaolacci/murmur3"
)

const murmur3Parts = 4

// utf16Buffers holds encode buffers for the UTF-16 variant. Sum128 lets its
// input escape, so the buffer cannot live on the stack.
var utf16Buffers = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// KetamaMurmur3 derives four positions from the 128-bit murmur3 hash
// (x64 variant, seed 0) of a key. The hash is two 64-bit words w0 and w1;
// the parts are low(w0), high(w0), low(w1), high(w1) and Hash is low(w1),
// i.e. part 2. Placements on existing rings depend on that index.
type KetamaMurmur3 struct {
	utf16LE bool
}

var _ Algorithm = (*KetamaMurmur3)(nil)

// NewKetamaMurmur3 hashes the UTF-8 bytes of each key.
func NewKetamaMurmur3() *KetamaMurmur3 {
	return &KetamaMurmur3{}
}

// NewKetamaMurmur3UTF16 hashes the little-endian UTF-16 code units of each
// key, matching clients that hash the character sequence rather than its
// UTF-8 encoding. Part layout is the same as NewKetamaMurmur3.
func NewKetamaMurmur3UTF16() *KetamaMurmur3 {
	return &KetamaMurmur3{utf16LE: true}
}

func (m *KetamaMurmur3) Hash(key string) uint64 {
	_, w1 := m.sum128(key)
	return truncate32(w1)
}

func (m *KetamaMurmur3) CountHashParts() int {
	return murmur3Parts
}

func (m *KetamaMurmur3) HashPartsInto(key string, parts []uint64) {
	checkParts(parts, murmur3Parts)
	w0, w1 := m.sum128(key)
	parts[0] = truncate32(w0)
	parts[1] = w0 >> 32
	parts[2] = truncate32(w1)
	parts[3] = w1 >> 32
}

func (m *KetamaMurmur3) sum128(key string) (uint64, uint64) {
	if !m.utf16LE {
		return murmur3.Sum128(keyBytes(key))
	}
	bp := utf16Buffers.Get().(*[]byte)
	*bp = appendUTF16LE((*bp)[:0], key)
	w0, w1 := murmur3.Sum128(*bp)
	utf16Buffers.Put(bp)
	return w0, w1
}

// appendUTF16LE appends the UTF-16 code units of s to b, little-endian.
// Invalid UTF-8 decodes to U+FFFD.
func appendUTF16LE(b []byte, s string) []byte {
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			r1, r2 := utf16.EncodeRune(r)
			b = append(b, byte(r1), byte(r1>>8), byte(r2), byte(r2>>8))
			continue
		}
		b = append(b, byte(r), byte(r>>8))
	}
	return b
}
