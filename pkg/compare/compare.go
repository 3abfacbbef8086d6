package compare

import (
	"fmt"
	"time"

	"qsomatch/pkg/models"
	"qsomatch/pkg/similarity"
)

// Exchange is one side of a QSO with the references resolved to their text
// forms, as the pairwise scoring needs them.
type Exchange struct {
	CallID   int64
	Call     string // canonical base callsign
	RawCall  string // as logged, before resolution
	MultID   int64
	Mult     string // multiplier abbreviation
	Serial   int
	Name     string
	Location string
}

// QSO is the flat view of a stored QSO used for pairwise comparison. Time
// already includes the owning log's clock adjustment.
type QSO struct {
	ID    int64
	LogID int64
	Band  string
	Mode  string
	Time  time.Time
	Sent  Exchange
	Recvd Exchange
}

// Line is the normalized one-line form of the QSO used to key the pair
// adjudication cache.
func (q *QSO) Line() string {
	return fmt.Sprintf("%s %s %s %s %d %s %s %d %s",
		q.Band, q.Mode, q.Time.UTC().Format("2006-01-02 1504"),
		q.Sent.Call, q.Sent.Serial, q.Sent.Mult,
		q.Recvd.Call, q.Recvd.Serial, q.Recvd.Mult)
}

func (q *QSO) morseWith(o *QSO) bool {
	return q.Mode == models.ModeCW && o.Mode == models.ModeCW
}

// ExactMatch reports whether both QSOs agree on band and mode.
func ExactMatch(a, b *QSO) bool {
	return a.Band == b.Band && a.Mode == b.Mode
}

// InexactMatch reports whether the QSOs agree on band or mode; used when a
// phase runs in its relaxed variant.
func InexactMatch(a, b *QSO) bool {
	return a.Band == b.Band || a.Mode == b.Mode
}

// ExchangeExactMatch reports whether a received exchange corroborates a sent
// one: same callsign reference and same multiplier reference.
func ExchangeExactMatch(sent, recvd Exchange) bool {
	return sent.CallID == recvd.CallID && sent.MultID == recvd.MultID
}

// SerialClose reports whether two serial numbers are within the given range.
func SerialClose(s1, s2, within int) bool {
	d := s1 - s2
	if d < 0 {
		d = -d
	}
	return d <= within
}

// MinutesApart returns the absolute time difference in minutes.
func MinutesApart(a, b *QSO) float64 {
	d := a.Time.Sub(b.Time).Minutes()
	if d < 0 {
		d = -d
	}
	return d
}

// TimeClose reports whether the two QSOs are within tolerance minutes of
// each other, clock adjustments included.
func TimeClose(a, b *QSO, tolerance int) bool {
	return MinutesApart(a, b) <= float64(tolerance)
}

// FullMatch reports whether b fully corroborates a's claim: same band and
// mode, a's received exchange matches b's sent exchange on references,
// serials within the standard range, and times within tolerance.
func FullMatch(a, b *QSO, tolerance int) bool {
	return ExactMatch(a, b) &&
		ExchangeExactMatch(b.Sent, a.Recvd) &&
		SerialClose(a.Recvd.Serial, b.Sent.Serial, 1) &&
		TimeClose(a, b, tolerance)
}

// ImpossibleMatch is the fast reject applied before pairwise scoring. Pairs
// it rejects could never be claimed: same QSO or same log, both band and
// mode disagree, a self-contact, or times more than a day apart.
func ImpossibleMatch(a, b *QSO) bool {
	if a.ID == b.ID || a.LogID == b.LogID {
		return true
	}
	if a.Band != b.Band && a.Mode != b.Mode {
		return true
	}
	if a.Sent.CallID == b.Sent.CallID {
		return true
	}
	return MinutesApart(a, b) >= 24*60
}

// Scoring ranges for ProbabilityScore: full credit within 15 minutes falling
// to none at 60; serials off by one are full credit, off by ten are none.
const (
	timeFullMinutes = 15
	timeZeroMinutes = 60
	serialFull      = 1
	serialZero      = 10
)

// ProbabilityScore returns the composite match probability for a candidate
// pair and a secondary refinement metric used only to break ties. The
// primary metric is the product of the time tolerance score, the crossed
// callsign similarities, both serial tolerance scores, and the crossed
// multiplier similarities.
func ProbabilityScore(a, b *QSO) (float64, float64) {
	morse := a.morseWith(b)
	metric := similarity.Hill(MinutesApart(a, b), timeFullMinutes, timeZeroMinutes) *
		similarity.Strings(a.Sent.Call, b.Recvd.Call, morse) *
		similarity.Strings(b.Sent.Call, a.Recvd.Call, morse) *
		similarity.Hill(float64(a.Sent.Serial-b.Recvd.Serial), serialFull, serialZero) *
		similarity.Hill(float64(b.Sent.Serial-a.Recvd.Serial), serialFull, serialZero) *
		multMetric(a.Sent.Mult, b.Recvd.Mult, morse) *
		multMetric(b.Sent.Mult, a.Recvd.Mult, morse)
	metric2 := serialStringMetric(a, b, morse) * locationMetric(a, b, morse)
	return metric, metric2
}

// multMetric scores one crossed multiplier comparison. A pair where neither
// side has a multiplier carries no corroborating evidence and scores zero,
// which keeps exchange-less QSOs out of the probabilistic fallback.
func multMetric(sent, recvd string, morse bool) float64 {
	if sent == "" && recvd == "" {
		return 0.0
	}
	return similarity.Strings(sent, recvd, morse)
}

// serialStringMetric scores the serials as transcribed text rather than
// numerically, which distinguishes digit busts from counting drift.
func serialStringMetric(a, b *QSO, morse bool) float64 {
	return similarity.Strings(fmt.Sprint(a.Sent.Serial), fmt.Sprint(b.Recvd.Serial), morse) *
		similarity.Strings(fmt.Sprint(b.Sent.Serial), fmt.Sprint(a.Recvd.Serial), morse)
}

func locationMetric(a, b *QSO, morse bool) float64 {
	return similarity.Strings(a.Sent.Location, b.Recvd.Location, morse) *
		similarity.Strings(b.Sent.Location, a.Recvd.Location, morse)
}
