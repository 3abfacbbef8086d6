// Package singletons resolves the QSOs no cross-match phase could link:
// claims of contacts whose counterpart never appears in any submitted log.
// Each one is judged against the contest-wide callsign census and either
// kept as an uncorroborated contact (Bye) or struck (Removed) with a
// comment explaining why.
package singletons

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"qsomatch/pkg/database"
	"qsomatch/pkg/models"
	"qsomatch/pkg/similarity"
)

// Thresholds are the tuned constants of the resolution heuristic.
type Thresholds struct {
	// CloseSim is the minimum callsign similarity for a census entry to
	// count as a possible intended callsign.
	CloseSim float64
	// ExchangeSim is the minimum similarity for a received exchange to
	// corroborate a suspected bust.
	ExchangeSim float64
	// ActiveQSOs is the census count at which a station is considered
	// active regardless of callsign validity.
	ActiveQSOs int
	// ValidActiveQSOs is the lower census count that suffices when the
	// callsign itself is structurally valid.
	ValidActiveQSOs int
	// CommonRatio is how many times more common a close callsign must be
	// before the claim is treated as a bust of it.
	CommonRatio int
}

// DefaultThresholds returns the tuning the adjudicators settled on.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CloseSim:        0.94,
		ExchangeSim:     0.92,
		ActiveQSOs:      10,
		ValidActiveQSOs: 5,
		CommonRatio:     10,
	}
}

// Call is one row of the callsign census: a callsign somebody claims to
// have worked, with how often it appears across all logs.
type Call struct {
	ID       int64
	Callsign string
	Valid    bool
	HaveLog  bool
	NumQSOs  int
}

func (c Call) String() string {
	return c.Callsign
}

// One-by-one special event callsigns are legal even though they fail the
// normal structure check.
var oneByOne = regexp.MustCompile(`\A[A-Z][0-9][A-Z]\z`)

// Resolver holds the census for one contest and applies the heuristic.
type Resolver struct {
	db        *database.DB
	logger    *slog.Logger
	contestID int64
	logIDs    []int64
	th        Thresholds
	calls     []Call
	byID      map[int64]Call
}

// NewResolver loads the contest's log scope and callsign census.
func NewResolver(ctx context.Context, db *database.DB, contestID int64, th Thresholds, logger *slog.Logger) (*Resolver, error) {
	logIDs, err := db.LogsForContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	stats, err := db.CallsignCensus(ctx, contestID)
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		db:        db,
		logger:    logger,
		contestID: contestID,
		logIDs:    logIDs,
		th:        th,
		calls:     make([]Call, 0, len(stats)),
		byID:      make(map[int64]Call, len(stats)),
	}
	for _, s := range stats {
		call := Call{
			ID:       s.ID,
			Callsign: s.BaseCall,
			Valid:    s.Valid || oneByOne.MatchString(s.BaseCall),
			HaveLog:  s.HaveLog,
			NumQSOs:  s.NumQSOs,
		}
		r.calls = append(r.calls, call)
		r.byID[call.ID] = call
	}
	return r, nil
}

// possibleMatches returns the census entries close enough to the callsign
// to be what the logger meant: valid, established stations within the
// similarity threshold.
func (r *Resolver) possibleMatches(id int64, callsign string) []Call {
	var results []Call
	for _, call := range r.calls {
		if call.ID == id || !call.Valid {
			continue
		}
		if call.NumQSOs < r.th.ActiveQSOs && !call.HaveLog {
			continue
		}
		if similarity.Strings(call.Callsign, callsign, false) >= r.th.CloseSim {
			results = append(results, call)
		}
	}
	return results
}

// farMoreCommon picks the most frequent of the close callsigns if it
// dominates the claimed one: at least ActiveQSOs appearances, at least
// CommonRatio times as many as the claim, and a submitted log.
func (r *Resolver) farMoreCommon(list []Call, count int) (Call, bool) {
	if len(list) == 0 {
		return Call{}, false
	}
	sorted := make([]Call, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].NumQSOs > sorted[j].NumQSOs
	})
	top := sorted[0]
	if top.NumQSOs >= r.th.ActiveQSOs && top.NumQSOs >= r.th.CommonRatio*count && top.HaveLog {
		return top, true
	}
	return Call{}, false
}

func joinCalls(list []Call) string {
	parts := make([]string, len(list))
	for i, c := range list {
		parts[i] = c.Callsign
	}
	return strings.Join(parts, " ")
}

// verdict is the outcome of classifying one unresolved contact. When
// Suspect is set the Removed verdict is conditional on the received
// exchange corroborating the suspected callsign.
type verdict struct {
	State   models.MatchState
	Comment string
	Suspect *Call
}

// classify applies the decision tree to one claimed contact. It is pure
// over the census; the exchange corroboration for a Suspect verdict
// happens in Resolve.
func (r *Resolver) classify(callID int64) verdict {
	call, found := r.byID[callID]
	if !found {
		return verdict{State: models.MatchRemoved, Comment: "Unknown callsign in record."}
	}
	if !call.Valid && call.NumQSOs <= r.th.ValidActiveQSOs {
		if list := r.possibleMatches(call.ID, call.Callsign); len(list) > 0 {
			return verdict{
				State:   models.MatchRemoved,
				Comment: fmt.Sprintf("Busted callsign - potential matches: %s.", joinCalls(list)),
			}
		}
		return verdict{State: models.MatchRemoved, Comment: "Illegal callsign not close to known participants."}
	}
	if call.NumQSOs >= r.th.ActiveQSOs || (call.Valid && call.NumQSOs >= r.th.ValidActiveQSOs) {
		return verdict{State: models.MatchBye}
	}
	list := r.possibleMatches(call.ID, call.Callsign)
	if suspect, ok := r.farMoreCommon(list, call.NumQSOs); ok {
		return verdict{
			State:   models.MatchRemoved,
			Comment: fmt.Sprintf("Busted call - likely match: %s.", suspect.Callsign),
			Suspect: &suspect,
		}
	}
	return verdict{State: models.MatchBye}
}

// exchangeClose reports whether the exchange received in the QSO resembles
// what other logs report for the suspected station, which distinguishes a
// busted copy of that station from a genuine rare contact.
func (r *Resolver) exchangeClose(ctx context.Context, qsoID int64, suspect string) (bool, error) {
	recvd, err := r.db.RecvdExchangeText(ctx, qsoID)
	if err != nil {
		return false, err
	}
	ref, found, err := r.db.ReferenceExchangeText(ctx, r.contestID, suspect, qsoID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return similarity.Strings(recvd.Name, ref.Name, false) >= r.th.ExchangeSim &&
		similarity.Strings(recvd.Mult, ref.Mult, false) >= r.th.ExchangeSim, nil
}

// Resolve strikes incomplete exchanges, then classifies every remaining
// unresolved contact. Returns the Bye and Removed counts.
func (r *Resolver) Resolve(ctx context.Context) (byes, removed int, err error) {
	incomplete, err := r.db.IncompleteExchanges(ctx, r.logIDs)
	if err != nil {
		return 0, 0, err
	}
	for _, id := range incomplete {
		moved, err := r.db.SetStateIfNone(ctx, id, models.MatchRemoved, "Incomplete exchanged received.")
		if err != nil {
			return byes, removed, err
		}
		if moved {
			removed++
		}
	}

	contacts, err := r.db.UnmatchedContacts(ctx, r.logIDs)
	if err != nil {
		return byes, removed, err
	}
	for _, contact := range contacts {
		v := r.classify(contact.RecvdCallID)
		if v.Suspect != nil {
			corroborated, err := r.exchangeClose(ctx, contact.QSOID, v.Suspect.Callsign)
			if err != nil {
				return byes, removed, err
			}
			if !corroborated {
				v = verdict{State: models.MatchBye}
			}
		}
		moved, err := r.db.SetStateIfNone(ctx, contact.QSOID, v.State, v.Comment)
		if err != nil {
			return byes, removed, err
		}
		if !moved {
			continue
		}
		if v.State == models.MatchBye {
			byes++
		} else {
			removed++
		}
	}
	r.logger.Info("Singleton resolution complete", "incomplete", len(incomplete), "byes", byes, "removed", removed)
	return byes, removed, nil
}

// FinalDupeCheck demotes the later of any two kept contacts in the same
// log and band that claim the same station. Runs after singleton
// resolution so Bye contacts participate. Returns the demotion count.
func (r *Resolver) FinalDupeCheck(ctx context.Context) (int, error) {
	pairs, err := r.db.FinalDupePairs(ctx, r.logIDs)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, pair := range pairs {
		moved, err := r.db.DemoteToDupe(ctx, pair.ID2)
		if err != nil {
			return count, err
		}
		if moved {
			count++
		}
	}
	r.logger.Info("Final dupe check complete", "dupes", count)
	return count, nil
}
