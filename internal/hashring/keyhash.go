package hashring

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"hash/fnv"
	"sort"
	"unicode/utf16"

	"github.com/cespare/xxhash/v2"
	"github.com/howeyc/crc16"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

var crc16Table = crc16.MakeTable(crc16.CCITT)

var keyHashes = map[string]KeyHashFunc{
	"native":     nativeHash,
	"crc":        crcHash,
	"fnv1-64":    fnv164Hash,
	"fnv1a-64":   fnv1a64Hash,
	"fnv1-32":    fnv132Hash,
	"fnv1a-32":   fnv1a32Hash,
	"ketama":     ketamaHash,
	"xxhash":     xxhash.Sum64String,
	"xxh3":       xxh3.HashString,
	"murmur3-32": murmur332Hash,
	"crc16":      crc16Hash,
}

// LookupKeyHash returns the key hash registered under name.
func LookupKeyHash(name string) (KeyHashFunc, error) {
	fn, ok := keyHashes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyHash, name)
	}
	return fn, nil
}

// KeyHashNames returns the registered key hash names, sorted.
func KeyHashNames() []string {
	names := make([]string, 0, len(keyHashes))
	for name := range keyHashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// nativeHash is the 31-multiplier string hash over UTF-16 code units used
// by JVM clients.
func nativeHash(key string) uint64 {
	var h uint32
	for _, r := range key {
		if utf16.RuneLen(r) == 2 {
			r1, r2 := utf16.EncodeRune(r)
			h = 31*h + uint32(r1)
			h = 31*h + uint32(r2)
			continue
		}
		h = 31*h + uint32(r)
	}
	return uint64(h)
}

func crcHash(key string) uint64 {
	return uint64(crc32.ChecksumIEEE(keyBytes(key))>>16) & 0x7fff
}

func fnv164Hash(key string) uint64 {
	h := fnv.New64()
	h.Write(keyBytes(key))
	return h.Sum64()
}

func fnv1a64Hash(key string) uint64 {
	h := fnv.New64a()
	h.Write(keyBytes(key))
	return h.Sum64()
}

func fnv132Hash(key string) uint64 {
	h := fnv.New32()
	h.Write(keyBytes(key))
	return uint64(h.Sum32())
}

func fnv1a32Hash(key string) uint64 {
	h := fnv.New32a()
	h.Write(keyBytes(key))
	return uint64(h.Sum32())
}

// ketamaHash is the first little-endian word of the MD5 digest, the same
// value as KetamaMD5.Hash.
func ketamaHash(key string) uint64 {
	digest := md5.Sum(keyBytes(key))
	return uint64(binary.LittleEndian.Uint32(digest[:4]))
}

func murmur332Hash(key string) uint64 {
	return uint64(murmur3.Sum32(keyBytes(key)))
}

func crc16Hash(key string) uint64 {
	return uint64(crc16.Checksum(keyBytes(key), crc16Table))
}
