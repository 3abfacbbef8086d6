package crossmatch

import (
	"context"
	"testing"
	"time"

	"qsomatch/pkg/compare"
	"qsomatch/pkg/models"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, true},
		{"negative tolerance", func(c *Config) { c.Tolerance = -5 }, true},
		{"tolerance beyond a day", func(c *Config) { c.Tolerance = 24 * 60 }, true},
		{"negative floor", func(c *Config) { c.ScoreFloor = -0.1 }, true},
		{"floor at one", func(c *Config) { c.ScoreFloor = 1.0 }, true},
		{"inverted band", func(c *Config) { c.AmbiguousLow, c.AmbiguousHigh = 0.6, 0.4 }, true},
		{"degenerate band", func(c *Config) { c.AmbiguousLow, c.AmbiguousHigh = 0.5, 0.5 }, false},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigAmbiguous(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		metric float64
		want   bool
	}{
		{0.05, false},
		{0.1, false},
		{0.25, false},
		{0.39, false},
		{0.4, true},
		{0.45, true},
		{0.5, false},
		{0.9, false},
	}
	for _, tt := range tests {
		if got := cfg.Ambiguous(tt.metric); got != tt.want {
			t.Errorf("Ambiguous(%v) = %v, want %v", tt.metric, got, tt.want)
		}
	}
}

func TestLowScoreCandidateClaimedDirectly(t *testing.T) {
	// A mutually-corroborating pair with 40 minutes of drift and a serial
	// five off scores about 0.25: above the floor, below the ambiguity
	// band. It must come out of scoring as a retained candidate that gets
	// its claim without adjudication.
	a := testQSO(1, 10, "W6YX", "K5TR", 42, 17, 0)
	b := testQSO(2, 20, "K5TR", "W6YX", 17, 47, 40)
	b.Sent.MultID, b.Sent.Mult, b.Sent.Location = a.Recvd.MultID, a.Recvd.Mult, a.Recvd.Location
	b.Recvd.MultID, b.Recvd.Mult, b.Recvd.Location = a.Sent.MultID, a.Sent.Mult, a.Sent.Location

	m := &Matcher{cfg: DefaultConfig()}
	cands, err := m.scoreCandidates(context.Background(), []compare.QSO{a, b})
	if err != nil {
		t.Fatalf("scoreCandidates: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	metric := cands[0].Metric
	if metric < m.cfg.ScoreFloor || metric >= m.cfg.AmbiguousLow {
		t.Fatalf("metric = %v, want in [%v, %v)", metric, m.cfg.ScoreFloor, m.cfg.AmbiguousLow)
	}
	if m.cfg.Ambiguous(metric) {
		t.Errorf("score %v below the band must not be adjudicated", metric)
	}
}

func TestResolveShiftState(t *testing.T) {
	tests := []struct {
		in   models.MatchState
		want models.MatchState
	}{
		{models.MatchTimeShiftFull, models.MatchFull},
		{models.MatchTimeShiftPartial, models.MatchPartial},
	}
	for _, tt := range tests {
		if got := resolveShiftState(tt.in); got != tt.want {
			t.Errorf("resolveShiftState(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func testQSO(id, logID int64, call, otherCall string, serial, otherSerial int, minute int) compare.QSO {
	base := time.Date(2025, 10, 4, 16, 0, 0, 0, time.UTC)
	return compare.QSO{
		ID:    id,
		LogID: logID,
		Band:  "20m",
		Mode:  models.ModeCW,
		Time:  base.Add(time.Duration(minute) * time.Minute),
		Sent: compare.Exchange{
			CallID: id, Call: call, Serial: serial, MultID: 1, Mult: "SCV", Location: "SCV",
		},
		Recvd: compare.Exchange{
			CallID: 100 + id, Call: otherCall, Serial: otherSerial, MultID: 2, Mult: "STX", Location: "STX",
		},
	}
}

func TestScoreCandidates(t *testing.T) {
	// Two mirrored contacts that should score perfectly, plus a third QSO in
	// a log of its own that references neither and should be pruned or fall
	// below the floor.
	a := testQSO(1, 10, "W6YX", "K5TR", 42, 17, 0)
	b := testQSO(2, 20, "K5TR", "W6YX", 17, 42, 1)
	b.Recvd.CallID = a.Sent.CallID
	a.Recvd.CallID = b.Sent.CallID
	b.Sent.MultID, b.Sent.Mult, b.Sent.Location = a.Recvd.MultID, a.Recvd.Mult, a.Recvd.Location
	b.Recvd.MultID, b.Recvd.Mult, b.Recvd.Location = a.Sent.MultID, a.Sent.Mult, a.Sent.Location
	c := testQSO(3, 30, "VE7ZZZ", "JA1AAA", 9, 9, 5)

	m := &Matcher{cfg: DefaultConfig()}
	cands, err := m.scoreCandidates(context.Background(), []compare.QSO{a, b, c})
	if err != nil {
		t.Fatalf("scoreCandidates: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	cand := cands[0]
	if cand.Q1.ID != 1 || cand.Q2.ID != 2 {
		t.Errorf("candidate pair = (%d, %d), want (1, 2)", cand.Q1.ID, cand.Q2.ID)
	}
	if cand.Metric != 1.0 {
		t.Errorf("mirrored contacts scored %v, want 1.0", cand.Metric)
	}
	if !compare.FullMatch(cand.Q1, cand.Q2, m.cfg.Tolerance) {
		t.Error("mirrored contacts should fully corroborate")
	}
}

func TestScoreCandidatesRespectsFloor(t *testing.T) {
	// Same band and mode keeps the pair past the fast reject, but nothing
	// else agrees, so the composite score must land under the floor.
	a := testQSO(1, 10, "W6YX", "K5TR", 42, 17, 0)
	b := testQSO(2, 20, "N0XYZ", "AA7QQ", 301, 5, 30)

	m := &Matcher{cfg: DefaultConfig()}
	cands, err := m.scoreCandidates(context.Background(), []compare.QSO{a, b})
	if err != nil {
		t.Fatalf("scoreCandidates: %v", err)
	}
	if len(cands) != 0 {
		t.Fatalf("got %d candidates, want 0", len(cands))
	}
}
