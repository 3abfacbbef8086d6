package compare

import "sort"

// Candidate is a scored pair of QSOs awaiting a claim attempt.
type Candidate struct {
	Q1, Q2  *QSO
	Metric  float64
	Metric2 float64
}

// Lines returns the adjudication cache key for the pair.
func (c *Candidate) Lines() (string, string) {
	return c.Q1.Line(), c.Q2.Line()
}

// Before orders candidates best-first: higher primary metric, then higher
// secondary metric.
func (c *Candidate) Before(o *Candidate) bool {
	if c.Metric != o.Metric {
		return c.Metric > o.Metric
	}
	return c.Metric2 > o.Metric2
}

// SortCandidates sorts best-first so claims go to the most probable pairs.
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Before(&cands[j])
	})
}
