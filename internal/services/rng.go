package services

import (
	"hash/fnv"

	"golang.org/x/exp/rand"
)

// entitySeed derives a stable seed for one entity's random stream by
// mixing the run seed with a hash of the entity identifier. Every zone,
// suburb, property and loan gets its own stream so that parallel
// execution order can never change the output.
func entitySeed(runSeed uint64, entityID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(entityID))
	return runSeed ^ h.Sum64()
}

// entityRand returns a generator seeded for one entity.
func entityRand(runSeed uint64, entityID string) *rand.Rand {
	return rand.New(rand.NewSource(entitySeed(runSeed, entityID)))
}
