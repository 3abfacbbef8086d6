package singletons

import (
	"strings"
	"testing"

	"qsomatch/pkg/models"
)

func testResolver(calls []Call) *Resolver {
	r := &Resolver{
		th:   DefaultThresholds(),
		byID: make(map[int64]Call, len(calls)),
	}
	r.calls = calls
	for _, c := range calls {
		r.byID[c.ID] = c
	}
	return r
}

func TestOneByOne(t *testing.T) {
	tests := []struct {
		call string
		want bool
	}{
		{"K6A", true},
		{"W1B", true},
		{"K6AA", false},
		{"KK6A", false},
		{"K6", false},
		{"6KA", false},
	}
	for _, tt := range tests {
		if got := oneByOne.MatchString(tt.call); got != tt.want {
			t.Errorf("oneByOne(%q) = %v, want %v", tt.call, got, tt.want)
		}
	}
}

func TestClassifyUnknownCall(t *testing.T) {
	r := testResolver(nil)
	v := r.classify(99)
	if v.State != models.MatchRemoved {
		t.Errorf("state = %s, want Removed", v.State)
	}
	if v.Comment != "Unknown callsign in record." {
		t.Errorf("comment = %q", v.Comment)
	}
}

func TestClassifyActiveStation(t *testing.T) {
	// A dozen logs claim this station, so a single uncorroborated claim is
	// kept even though the station never submitted a log.
	r := testResolver([]Call{
		{ID: 1, Callsign: "W6YX", Valid: true, NumQSOs: 12},
	})
	v := r.classify(1)
	if v.State != models.MatchBye {
		t.Errorf("state = %s, want Bye", v.State)
	}
	if v.Comment != "" {
		t.Errorf("unexpected comment %q", v.Comment)
	}
}

func TestClassifyValidLowActivity(t *testing.T) {
	// Valid callsigns get the benefit of the doubt at a lower count.
	r := testResolver([]Call{
		{ID: 1, Callsign: "N6XYZ", Valid: true, NumQSOs: 5},
	})
	if v := r.classify(1); v.State != models.MatchBye {
		t.Errorf("state = %s, want Bye", v.State)
	}
}

func TestClassifyBustNearActiveStation(t *testing.T) {
	// W1AWW appears once; W1AW appears 40 times across the contest and
	// submitted a log. The single W1AWW claim is a suspected bust pending
	// exchange corroboration.
	r := testResolver([]Call{
		{ID: 1, Callsign: "W1AWW", Valid: true, NumQSOs: 1},
		{ID: 2, Callsign: "W1AW", Valid: true, HaveLog: true, NumQSOs: 40},
	})
	v := r.classify(1)
	if v.State != models.MatchRemoved {
		t.Fatalf("state = %s, want Removed", v.State)
	}
	if v.Suspect == nil || v.Suspect.Callsign != "W1AW" {
		t.Fatalf("suspect = %+v, want W1AW", v.Suspect)
	}
	if v.Comment != "Busted call - likely match: W1AW." {
		t.Errorf("comment = %q", v.Comment)
	}
}

func TestClassifyIllegalCall(t *testing.T) {
	r := testResolver([]Call{
		{ID: 1, Callsign: "QQQQQ", Valid: false, NumQSOs: 1},
		{ID: 2, Callsign: "W6YX", Valid: true, HaveLog: true, NumQSOs: 40},
	})
	v := r.classify(1)
	if v.State != models.MatchRemoved {
		t.Fatalf("state = %s, want Removed", v.State)
	}
	if v.Comment != "Illegal callsign not close to known participants." {
		t.Errorf("comment = %q", v.Comment)
	}
}

func TestClassifyIllegalCloseToParticipant(t *testing.T) {
	// An invalid callsign one character off an established participant is
	// reported with the candidates rather than as merely illegal.
	r := testResolver([]Call{
		{ID: 1, Callsign: "K5TRR", Valid: false, NumQSOs: 2},
		{ID: 2, Callsign: "K5TR", Valid: true, HaveLog: true, NumQSOs: 55},
	})
	v := r.classify(1)
	if v.State != models.MatchRemoved {
		t.Fatalf("state = %s, want Removed", v.State)
	}
	if !strings.Contains(v.Comment, "Busted callsign - potential matches:") ||
		!strings.Contains(v.Comment, "K5TR") {
		t.Errorf("comment = %q", v.Comment)
	}
}

func TestFarMoreCommon(t *testing.T) {
	r := testResolver(nil)
	tests := []struct {
		name  string
		list  []Call
		count int
		want  string
		ok    bool
	}{
		{"empty", nil, 1, "", false},
		{"dominant with log",
			[]Call{{Callsign: "W1AW", HaveLog: true, NumQSOs: 40}}, 1, "W1AW", true},
		{"dominant without log",
			[]Call{{Callsign: "W1AW", NumQSOs: 40}}, 1, "", false},
		{"not dominant enough",
			[]Call{{Callsign: "W1AW", HaveLog: true, NumQSOs: 40}}, 5, "", false},
		{"picks most frequent",
			[]Call{
				{Callsign: "K6AA", HaveLog: true, NumQSOs: 12},
				{Callsign: "K6AB", HaveLog: true, NumQSOs: 30},
			}, 1, "K6AB", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.farMoreCommon(tt.list, tt.count)
			if ok != tt.ok || (ok && got.Callsign != tt.want) {
				t.Errorf("farMoreCommon() = (%q, %v), want (%q, %v)", got.Callsign, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPossibleMatchesFiltersInactive(t *testing.T) {
	r := testResolver([]Call{
		{ID: 1, Callsign: "K6XYZZ", Valid: true, NumQSOs: 1},
		{ID: 2, Callsign: "K6XYZ", Valid: true, HaveLog: true, NumQSOs: 40},
		{ID: 3, Callsign: "K6XYZT", Valid: true, NumQSOs: 2},   // too rare, no log
		{ID: 4, Callsign: "K6XYZQ", Valid: false, NumQSOs: 50}, // invalid
	})
	list := r.possibleMatches(1, "K6XYZZ")
	if len(list) != 1 || list[0].Callsign != "K6XYZ" {
		t.Errorf("possibleMatches = %v, want [K6XYZ]", list)
	}
}
