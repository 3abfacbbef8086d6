package crossmatch

import (
	"fmt"

	"qsomatch/pkg/similarity"
)

// Config carries the engine's tolerances and heuristic constants. The
// defaults are the tuned values the contest adjudicators settled on; they
// are parameters rather than hard-coded so a contest can override them.
type Config struct {
	// Tolerance is the time window in minutes for the exact match phases.
	Tolerance int
	// ScoreFloor is the minimum probability score a fallback candidate
	// must reach to be considered at all.
	ScoreFloor float64
	// AmbiguousLow and AmbiguousHigh bound the score band considered
	// inconclusive; candidates inside it are adjudicated when Interactive
	// is set and rejected by the default decider otherwise.
	AmbiguousLow  float64
	AmbiguousHigh float64
	// Interactive routes ambiguous candidates to the configured decider.
	Interactive bool
	// Workers bounds the fan-out of the pairwise scoring pass.
	Workers int
}

// DefaultConfig returns the standard tuning: 15 minute window, 0.1 score
// floor, 0.4-0.5 ambiguity band, non-interactive, four scoring workers.
func DefaultConfig() Config {
	return Config{
		Tolerance:     15,
		ScoreFloor:    0.1,
		AmbiguousLow:  0.4,
		AmbiguousHigh: 0.5,
		Workers:       4,
	}
}

// Ambiguous reports whether a probability score falls in the inconclusive
// band that is referred to the decider. Scores outside the band, floor
// included, are claimed on their own.
func (c Config) Ambiguous(metric float64) bool {
	return metric >= c.AmbiguousLow && metric < c.AmbiguousHigh
}

// Validate rejects configurations that would corrupt a run before any state
// is mutated.
func (c Config) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("time tolerance must be positive, got %d", c.Tolerance)
	}
	if c.ScoreFloor < 0 || c.ScoreFloor >= 1 {
		return fmt.Errorf("score floor must be in [0,1), got %v", c.ScoreFloor)
	}
	if c.AmbiguousLow > c.AmbiguousHigh {
		return fmt.Errorf("ambiguity band inverted: %v > %v", c.AmbiguousLow, c.AmbiguousHigh)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if err := similarity.CheckRange(float64(c.Tolerance), 24*60); err != nil {
		return err
	}
	return nil
}
