package crossmatch

import (
	"context"
	"runtime"
	"sync"

	"qsomatch/pkg/compare"
	"qsomatch/pkg/models"

	"golang.org/x/sync/errgroup"
)

// ProbMatch is the probabilistic fallback for QSOs the exact phases left
// unmatched. Every cross-log pair that survives the fast reject is scored,
// candidates above the score floor are sorted best-first, and claims are
// attempted in that order. Scores inside the ambiguous band are referred to
// the decider before any claim. Returns the number of links made.
func (m *Matcher) ProbMatch(ctx context.Context) (int, error) {
	qsos, err := m.db.UnmatchedQSOs(ctx, m.logIDs)
	if err != nil {
		return 0, err
	}
	m.logger.Debug("Starting probabilistic match", "unmatched", len(qsos))

	cands, err := m.scoreCandidates(ctx, qsos)
	if err != nil {
		return 0, err
	}
	compare.SortCandidates(cands)

	linked := 0
	for i := range cands {
		cand := &cands[i]
		accept := true
		if m.cfg.Ambiguous(cand.Metric) {
			line1, line2 := cand.Lines()
			accept, err = m.decider.Decide(ctx, line1, line2)
			if err != nil {
				return linked, err
			}
		}
		if !accept {
			continue
		}
		state1 := models.MatchPartial
		if compare.FullMatch(cand.Q1, cand.Q2, m.cfg.Tolerance) {
			state1 = models.MatchFull
		}
		state2 := models.MatchPartial
		if compare.FullMatch(cand.Q2, cand.Q1, m.cfg.Tolerance) {
			state2 = models.MatchFull
		}
		claimed, err := m.db.ClaimPair(ctx, cand.Q1.ID, cand.Q2.ID, state1, state2)
		if err != nil {
			return linked, err
		}
		if claimed {
			linked++
		}
	}
	m.logger.Info("Probabilistic match complete", "candidates", len(cands), "linked", linked)
	return linked, nil
}

// scoreCandidates fans the pairwise scoring out over a worker pool. The
// scoring is pure so the pair space is split by first index and each worker
// appends to its own slice.
func (m *Matcher) scoreCandidates(ctx context.Context, qsos []compare.QSO) ([]compare.Candidate, error) {
	workers := m.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var mu sync.Mutex
	var cands []compare.Candidate
	next := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(next)
		for i := range qsos {
			select {
			case next <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var local []compare.Candidate
			for i := range next {
				q1 := &qsos[i]
				for j := i + 1; j < len(qsos); j++ {
					q2 := &qsos[j]
					if compare.ImpossibleMatch(q1, q2) {
						continue
					}
					metric, metric2 := compare.ProbabilityScore(q1, q2)
					if metric < m.cfg.ScoreFloor {
						continue
					}
					local = append(local, compare.Candidate{Q1: q1, Q2: q2, Metric: metric, Metric2: metric2})
				}
			}
			mu.Lock()
			cands = append(cands, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cands, nil
}
