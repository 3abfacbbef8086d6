package similarity

import (
	"fmt"
	"math"

	"github.com/xrash/smetrics"
)

// Jaro-Winkler parameters. Voice exchanges get the standard Winkler prefix
// boost; Morse copies bust anywhere in the callsign, so the prefix boost is
// disabled and the score degrades to plain Jaro.
const (
	boostThreshold = 0.7
	voicePrefix    = 4
	morsePrefix    = 0
)

// Hill is a tolerance ramp: 1.0 while |value| <= full, 0.0 once
// |value| >= zero, linear in between. The ranges must satisfy zero > full;
// validate with CheckRange before use. Hill panics on an inverted range.
func Hill(value, full, zero float64) float64 {
	if err := CheckRange(full, zero); err != nil {
		panic(err)
	}
	v := math.Abs(value)
	switch {
	case v <= full:
		return 1.0
	case v >= zero:
		return 0.0
	}
	return 1.0 - (v-full)/(zero-full)
}

// CheckRange validates a Hill range pair.
func CheckRange(full, zero float64) error {
	if zero <= full {
		return fmt.Errorf("invalid tolerance range: zero range %v must exceed full range %v", zero, full)
	}
	return nil
}

// Strings returns a normalized [0,1] similarity between two tokens. When
// morse is true both sides copied the exchange in CW and the stricter
// variant is used.
func Strings(a, b string, morse bool) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if morse {
		return smetrics.JaroWinkler(a, b, boostThreshold, morsePrefix)
	}
	return smetrics.JaroWinkler(a, b, boostThreshold, voicePrefix)
}
