package shard

import (
	"hash/fnv"
	"sync/atomic"

	fdoc "github.com/ftsengine/ftsengine/internal/doc"
)

// Strategy selects which shard owns a given DocumentId, per spec.md §4.10.
type Strategy string

const (
	// StrategyHash places by fnv32a(docID) mod N — the default, giving a
	// stable, near-uniform distribution independent of insertion order.
	StrategyHash Strategy = "hash"
	// StrategyRoundRobin places the Nth distinct write on shard N mod
	// numShards, in write order.
	StrategyRoundRobin Strategy = "round_robin"
	// StrategyRange places by the first byte of the DocumentId, splitting
	// the byte range [0,255] into numShards contiguous buckets.
	StrategyRange Strategy = "range"
	// StrategyCustom delegates to a caller-supplied function.
	StrategyCustom Strategy = "custom"
)

// CustomPlacementFunc is the caller hook used by StrategyCustom.
type CustomPlacementFunc func(id fdoc.DocumentId, numShards int) int

// placer computes the primary shard index for a DocumentId.
type placer struct {
	strategy   Strategy
	custom     CustomPlacementFunc
	roundRobin uint64
}

func newPlacer(strategy Strategy, custom CustomPlacementFunc) *placer {
	return &placer{strategy: strategy, custom: custom}
}

func (p *placer) primary(id fdoc.DocumentId, numShards int) int {
	if numShards <= 0 {
		return 0
	}
	switch p.strategy {
	case StrategyRoundRobin:
		n := atomic.AddUint64(&p.roundRobin, 1) - 1
		return int(n % uint64(numShards))
	case StrategyRange:
		if len(id) == 0 {
			return 0
		}
		return int(id[0]) * numShards / 256
	case StrategyCustom:
		if p.custom == nil {
			return 0
		}
		return p.custom(id, numShards) % numShards
	case StrategyHash:
		fallthrough
	default:
		h := fnv.New32a()
		_, _ = h.Write([]byte(id))
		return int(h.Sum32() % uint32(numShards))
	}
}

// replicaSet returns the primary shard index followed by the next R-1
// shard indices (wrapping modulo numShards), per spec.md §4.10.
func replicaSet(primary, replicationFactor, numShards int) []int {
	if replicationFactor < 1 {
		replicationFactor = 1
	}
	if replicationFactor > numShards {
		replicationFactor = numShards
	}
	owners := make([]int, replicationFactor)
	for i := 0; i < replicationFactor; i++ {
		owners[i] = (primary + i) % numShards
	}
	return owners
}
