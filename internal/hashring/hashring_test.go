package hashring

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/spaolacci/murmur3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "evcache-test-key-1"

func TestKetamaMD5_Parts(t *testing.T) {
	algo, err := NewKetamaMD5()
	require.NoError(t, err)

	tests := []struct {
		key  string
		want [4]uint64
	}{
		{key: testKey, want: [4]uint64{0x67e989c3, 0xf2005c05, 0xb6af93f9, 0x27395e2e}},
		{key: "", want: [4]uint64{0xd98c1dd4, 0x04b2008f, 0x980980e9, 0x7e42f8ec}},
		{key: "hello", want: [4]uint64{0x2a40415d, 0x762a4bbc, 0x919d71b9, 0x92c51710}},
		{key: "héllo", want: [4]uint64{0x47e850be, 0xf34ff28c, 0x30c75b59, 0x501bb97f}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.key), func(t *testing.T) {
			parts := make([]uint64, algo.CountHashParts())
			algo.HashPartsInto(tt.key, parts)
			assert.Equal(t, tt.want[:], parts)
			assert.Equal(t, tt.want[0], algo.Hash(tt.key))
		})
	}
}

func TestKetamaMurmur3_Parts(t *testing.T) {
	algo := NewKetamaMurmur3()

	tests := []struct {
		key  string
		want [4]uint64
	}{
		{key: testKey, want: [4]uint64{0x03911c8c, 0x83a3e7f6, 0x7b49cd05, 0x42b601be}},
		{key: "", want: [4]uint64{0, 0, 0, 0}},
		{key: "hello", want: [4]uint64{0x41bd9b02, 0xcbd8a7b3, 0x48ae1d19, 0x5b1e906a}},
		{key: "héllo", want: [4]uint64{0x72855c8a, 0x4e317b11, 0x9473bd05, 0x419d33dc}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.key), func(t *testing.T) {
			parts := make([]uint64, algo.CountHashParts())
			algo.HashPartsInto(tt.key, parts)
			assert.Equal(t, tt.want[:], parts)
			assert.Equal(t, tt.want[2], algo.Hash(tt.key))
		})
	}
}

func TestKetamaMurmur3UTF16_Parts(t *testing.T) {
	algo := NewKetamaMurmur3UTF16()

	tests := []struct {
		key  string
		want [4]uint64
	}{
		{key: testKey, want: [4]uint64{0x051032e8, 0x63fcdb14, 0xd164891e, 0x84bd6edb}},
		{key: "hello", want: [4]uint64{0xe1bfd387, 0xee2ee18f, 0xd8c336c4, 0x7b927262}},
		{key: "héllo", want: [4]uint64{0xaf55345b, 0x85adf201, 0x49f27aed, 0x7dfb9287}},
		{key: "key-😀", want: [4]uint64{0x583c99e4, 0x3e217bab, 0x0ca34876, 0xa8219fde}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.key), func(t *testing.T) {
			parts := make([]uint64, algo.CountHashParts())
			algo.HashPartsInto(tt.key, parts)
			assert.Equal(t, tt.want[:], parts)
			assert.Equal(t, tt.want[2], algo.Hash(tt.key))
		})
	}
}

func TestSimple(t *testing.T) {
	algo, err := NewSimple(func(key string) uint64 {
		return 0xdeadbeef_00000000 | uint64(len(key))
	})
	require.NoError(t, err)

	assert.Equal(t, 1, algo.CountHashParts())
	assert.Equal(t, uint64(5), algo.Hash("hello"))

	parts := []uint64{42, 42}
	algo.HashPartsInto("hello", parts)
	assert.Equal(t, []uint64{5, 42}, parts, "only slot 0 is written")
}

func TestNewSimple_NilFunc(t *testing.T) {
	_, err := NewSimple(nil)
	assert.ErrorIs(t, err, ErrNilKeyHash)
}

func TestKeyHashes(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want uint64
	}{
		{name: "native", key: "hello", want: 0x05e918d2},
		{name: "native", key: testKey, want: 0x9c4e8d24},
		{name: "native", key: "key-😀", want: 0xbc788791},
		{name: "crc", key: "hello", want: 0x3610},
		{name: "crc", key: testKey, want: 0x3501},
		{name: "fnv1-64", key: "hello", want: 0xbdbdd4c7},
		{name: "fnv1-64", key: testKey, want: 0xe80fcd57},
		{name: "fnv1a-64", key: "hello", want: 0x80aabd0b},
		{name: "fnv1a-64", key: testKey, want: 0x8ef718cf},
		{name: "fnv1-32", key: "hello", want: 0xb6fa7167},
		{name: "fnv1-32", key: testKey, want: 0x6a695df7},
		{name: "fnv1a-32", key: "hello", want: 0x4f9f2cab},
		{name: "fnv1a-32", key: testKey, want: 0xf86e4b2f},
		{name: "ketama", key: "hello", want: 0x2a40415d},
		{name: "ketama", key: testKey, want: 0x67e989c3},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.key, func(t *testing.T) {
			algo, err := New(NameSimple, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, algo.Hash(tt.key))
		})
	}
}

func TestKeyHashes_AllRegistered(t *testing.T) {
	for _, name := range KeyHashNames() {
		t.Run(name, func(t *testing.T) {
			fn, err := LookupKeyHash(name)
			require.NoError(t, err)
			require.NotNil(t, fn)
			assert.Equal(t, fn(testKey), fn(testKey))
		})
	}
}

func TestLookupKeyHash_Unknown(t *testing.T) {
	_, err := LookupKeyHash("sha1")
	assert.ErrorIs(t, err, ErrUnknownKeyHash)

	_, err = New(NameSimple, "sha1")
	assert.ErrorIs(t, err, ErrUnknownKeyHash)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      Name
		wantParts int
		wantType  Algorithm
	}{
		{name: NameSimple, wantParts: 1, wantType: &Simple{}},
		{name: NameKetamaMD5, wantParts: 4, wantType: &KetamaMD5{}},
		{name: NameKetamaMurmur3, wantParts: 4, wantType: &KetamaMurmur3{}},
		{name: NameKetamaMurmur3UTF16, wantParts: 4, wantType: &KetamaMurmur3{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			algo, err := New(tt.name, "")
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, algo)
			assert.Equal(t, tt.wantParts, algo.CountHashParts())
		})
	}
}

func TestNew_SimpleDefaultKeyHash(t *testing.T) {
	algo, err := New(NameSimple, "")
	require.NoError(t, err)

	md5Algo, err := NewKetamaMD5()
	require.NoError(t, err)
	assert.Equal(t, md5Algo.Hash(testKey), algo.Hash(testKey))
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("ketama-sha1", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAlgorithm))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []Name{
		NameKetamaMD5,
		NameKetamaMurmur3,
		NameKetamaMurmur3UTF16,
		NameSimple,
	}, Names())
}

func TestHashPartsInto_ShortBuffer(t *testing.T) {
	for _, name := range Names() {
		t.Run(string(name), func(t *testing.T) {
			algo, err := New(name, "")
			require.NoError(t, err)

			parts := make([]uint64, algo.CountHashParts()-1)
			for i := range parts {
				parts[i] = 7
			}
			assert.Panics(t, func() {
				algo.HashPartsInto(testKey, parts)
			})
			for _, p := range parts {
				assert.Equal(t, uint64(7), p, "no partial writes")
			}
		})
	}
}

func TestHashPartsInto_LongerBuffer(t *testing.T) {
	algo := NewKetamaMurmur3()
	parts := []uint64{1, 1, 1, 1, 99}
	algo.HashPartsInto(testKey, parts)
	assert.Equal(t, uint64(99), parts[4])
}

func TestKetamaMD5_Concurrent(t *testing.T) {
	algo, err := NewKetamaMD5()
	require.NoError(t, err)
	want := []uint64{0x67e989c3, 0xf2005c05, 0xb6af93f9, 0x27395e2e}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 64; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			parts := make([]uint64, algo.CountHashParts())
			for i := 0; i < 500; i++ {
				// interleave other keys so digests really overlap in time
				algo.HashPartsInto(fmt.Sprintf("other-%d-%d", g, i), parts)
				algo.HashPartsInto(testKey, parts)
				if parts[0] != want[0] || parts[1] != want[1] || parts[2] != want[2] || parts[3] != want[3] {
					errs <- fmt.Sprintf("goroutine %d: got %x", g, parts)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}

func TestAlgorithm_ZeroAllocs(t *testing.T) {
	for _, name := range Names() {
		t.Run(string(name), func(t *testing.T) {
			algo, err := New(name, "")
			require.NoError(t, err)
			parts := make([]uint64, algo.CountHashParts())

			allocs := testing.AllocsPerRun(1000, func() {
				algo.HashPartsInto(testKey, parts)
			})
			assert.Zero(t, allocs, "HashPartsInto allocates")

			allocs = testing.AllocsPerRun(1000, func() {
				algo.Hash(testKey)
			})
			assert.Zero(t, allocs, "Hash allocates")
		})
	}
}

func TestKetamaMurmur3UTF16_ReusedBuffers(t *testing.T) {
	algo := NewKetamaMurmur3UTF16()
	keys := []string{
		strings.Repeat("ключ-😀-", 40),
		"a",
		strings.Repeat("x", 1000),
		testKey,
		"",
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parts := make([]uint64, algo.CountHashParts())
			for i := 0; i < 200; i++ {
				key := keys[i%len(keys)]
				w0, w1 := murmur3.Sum128(appendUTF16LE(nil, key))
				algo.HashPartsInto(key, parts)
				if parts[0] != w0&0xffffffff || parts[1] != w0>>32 || parts[2] != w1&0xffffffff || parts[3] != w1>>32 {
					t.Errorf("key of length %d: got %x", len(key), parts)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkHashPartsInto(b *testing.B) {
	for _, name := range Names() {
		b.Run(string(name), func(b *testing.B) {
			algo, err := New(name, "")
			if err != nil {
				b.Fatal(err)
			}
			parts := make([]uint64, algo.CountHashParts())
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				algo.HashPartsInto(testKey, parts)
			}
		})
	}
}
