package shard

import (
	"context"

	"github.com/ftsengine/ftsengine/internal/async"
	fdoc "github.com/ftsengine/ftsengine/internal/doc"
)

// RebalanceOnce moves documents from the most-loaded shard to the
// least-loaded shard until the fractional imbalance drops at or below
// cfg.RebalanceThreshold, or until there is nothing left worth moving. It
// transfers online: each document is re-indexed into its new shard before
// being removed from the old one, per spec.md §4.10.
func (m *Manager) RebalanceOnce(ctx context.Context, progress *async.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if progress != nil {
		progress.SetStage(async.StageScanning, len(m.shards))
	}

	counts := make([]uint64, len(m.shards))
	var total uint64
	for i, s := range m.shards {
		counts[i] = s.DocCount()
		total += counts[i]
	}
	if len(m.shards) == 0 || total == 0 {
		return nil
	}
	mean := float64(total) / float64(len(m.shards))

	if progress != nil {
		progress.SetStage(async.StagePlanning, len(m.shards))
	}

	moved := 0
	for {
		high, low := argMax(counts), argMin(counts)
		if high == low {
			break
		}
		imbalance := (float64(counts[high]) - mean) / mean
		if imbalance <= m.cfg.RebalanceThreshold {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		doc := m.shards[high].firstDoc()
		if doc == nil {
			break
		}

		if err := m.shards[low].Put(*doc); err != nil {
			return err
		}
		m.shards[high].Delete(doc.ID)

		counts[high]--
		counts[low]++
		moved++
		if progress != nil {
			progress.SetStage(async.StageMoving, moved)
			progress.UpdateItems(moved)
		}
	}

	return nil
}

func argMax(counts []uint64) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

func argMin(counts []uint64) int {
	best := 0
	for i, c := range counts {
		if c < counts[best] {
			best = i
		}
	}
	return best
}

// firstDoc returns an arbitrary document still held by the shard, used by
// the rebalancer to pick a transfer candidate.
func (s *Shard) firstDoc() *fdoc.Document {
	all := s.docs.All()
	if len(all) == 0 {
		return nil
	}
	d := all[0]
	return &d
}
