package hashring

// KeyHashFunc hashes the UTF-8 bytes of a key to a 32 or 64 bit value.
type KeyHashFunc func(key string) uint64

// Simple adapts a single-value key hash to Algorithm. It yields one
// position per key.
type Simple struct {
	fn KeyHashFunc
}

var _ Algorithm = (*Simple)(nil)

// NewSimple wraps fn. Results are truncated to 32 bits.
func NewSimple(fn KeyHashFunc) (*Simple, error) {
	if fn == nil {
		return nil, ErrNilKeyHash
	}
	return &Simple{fn: fn}, nil
}

func (s *Simple) Hash(key string) uint64 {
	return truncate32(s.fn(key))
}

func (s *Simple) CountHashParts() int {
	return 1
}

// HashPartsInto writes Hash(key) into parts[0].
func (s *Simple) HashPartsInto(key string, parts []uint64) {
	checkParts(parts, 1)
	parts[0] = s.Hash(key)
}
