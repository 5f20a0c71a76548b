package hashring

import (
	"errors"
	"fmt"
	"sort"
	"unsafe"
)

// Algorithm hashes keys to ring positions. Every position fits in 32 bits.
// Implementations are immutable and safe for concurrent use.
type Algorithm interface {
	// Hash returns the primary position for key.
	Hash(key string) uint64

	// CountHashParts returns how many positions HashPartsInto produces per key.
	CountHashParts() int

	// HashPartsInto writes CountHashParts positions for key into parts,
	// computed from a single digest. parts must have at least
	// CountHashParts slots; a shorter slice panics.
	HashPartsInto(key string, parts []uint64)
}

// Name identifies an Algorithm implementation in configuration.
type Name string

const (
	NameSimple             Name = "simple"
	NameKetamaMD5          Name = "ketama-md5"
	NameKetamaMurmur3      Name = "ketama-murmur3"
	NameKetamaMurmur3UTF16 Name = "ketama-murmur3-utf16"
)

// DefaultKeyHash is the key hash used by the simple algorithm when none is configured.
const DefaultKeyHash = "ketama"

var (
	// ErrUnknownAlgorithm is returned by New for an unregistered name.
	ErrUnknownAlgorithm = errors.New("unknown hash ring algorithm")

	// ErrDigestUnavailable is returned when MD5 is not linked into the binary.
	// There is no fallback digest.
	ErrDigestUnavailable = errors.New("digest algorithm unavailable")

	// ErrUnknownKeyHash is returned by LookupKeyHash for an unregistered name.
	ErrUnknownKeyHash = errors.New("unknown key hash")

	// ErrNilKeyHash is returned by NewSimple for a nil function.
	ErrNilKeyHash = errors.New("nil key hash function")
)

type factory func(keyHash string) (Algorithm, error)

var algorithms = map[Name]factory{
	NameSimple: func(keyHash string) (Algorithm, error) {
		if keyHash == "" {
			keyHash = DefaultKeyHash
		}
		fn, err := LookupKeyHash(keyHash)
		if err != nil {
			return nil, err
		}
		return NewSimple(fn)
	},
	NameKetamaMD5: func(string) (Algorithm, error) {
		return NewKetamaMD5()
	},
	NameKetamaMurmur3: func(string) (Algorithm, error) {
		return NewKetamaMurmur3(), nil
	},
	NameKetamaMurmur3UTF16: func(string) (Algorithm, error) {
		return NewKetamaMurmur3UTF16(), nil
	},
}

// New returns the algorithm registered under name. keyHash selects the key
// hash for the simple algorithm and is ignored by the ketama variants.
func New(name Name, keyHash string) (Algorithm, error) {
	f, ok := algorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	algo, err := f(keyHash)
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", name, err)
	}
	return algo, nil
}

// Names returns the registered algorithm names, sorted.
func Names() []Name {
	names := make([]Name, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names
}

// truncate32 keeps the low 32 bits of v.
func truncate32(v uint64) uint64 {
	return v & 0xffffffff
}

// checkParts panics if parts cannot hold n positions.
func checkParts(parts []uint64, n int) {
	if len(parts) < n {
		panic(fmt.Sprintf("hashring: parts buffer has %d slots, need %d", len(parts), n))
	}
}

// keyBytes returns the bytes of key without copying. Callers must only read
// the result.
func keyBytes(key string) []byte {
	return unsafe.Slice(unsafe.StringData(key), len(key))
}
