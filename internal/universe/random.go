package universe

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// DeterministicSeedValue derives an independent stream seed from the map
// seed and a label, so secondary passes never shift the primary stream.
func DeterministicSeedValue(mapSeed uint32, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(strconv.FormatUint(uint64(mapSeed), 10)))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(mapSeed uint32, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(mapSeed, label)))
}

// newPrimaryRNG seeds the stream shared by placement and naming directly
// from the map seed.
func newPrimaryRNG(mapSeed uint32) *rand.Rand {
	return rand.New(rand.NewSource(int64(mapSeed)))
}
