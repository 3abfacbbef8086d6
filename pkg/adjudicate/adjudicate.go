package adjudicate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"qsomatch/pkg/database"
)

// Decider answers whether an ambiguous candidate pair, identified by the
// normalized line forms of its two QSOs, is a true match.
type Decider interface {
	Decide(ctx context.Context, line1, line2 string) (bool, error)
}

// RejectDecider is the non-interactive default: every ambiguous pair is
// rejected.
type RejectDecider struct{}

func (RejectDecider) Decide(ctx context.Context, line1, line2 string) (bool, error) {
	return false, nil
}

// ConsoleDecider asks a human operator on the terminal.
type ConsoleDecider struct {
	In  io.Reader
	Out io.Writer
}

func (d *ConsoleDecider) Decide(ctx context.Context, line1, line2 string) (bool, error) {
	fmt.Fprintf(d.Out, "%s\n%s\nIs this a match (y/n): ", line1, line2)
	reader := bufio.NewReader(d.In)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("error reading adjudication answer: %v", err)
	}
	switch strings.ToUpper(strings.TrimSpace(answer)) {
	case "Y", "YES":
		return true, nil
	}
	return false, nil
}

// NewDecider builds the decider for one match run. Interactive runs ask the
// operator and persist each solicited answer in the pair cache;
// non-interactive runs reject ambiguous pairs outright and record nothing,
// so a later interactive run still gets to ask.
func NewDecider(db *database.DB, contestID int64, interactive bool, in io.Reader, out io.Writer, logger *slog.Logger) Decider {
	if !interactive {
		return RejectDecider{}
	}
	return &CachedDecider{
		DB:        db,
		ContestID: contestID,
		Next:      &ConsoleDecider{In: in, Out: out},
		Logger:    logger,
	}
}

// CachedDecider consults the durable pair cache before delegating to the
// wrapped decider, and persists any fresh decision.
type CachedDecider struct {
	DB        *database.DB
	ContestID int64
	Next      Decider
	Logger    *slog.Logger
}

func (d *CachedDecider) Decide(ctx context.Context, line1, line2 string) (bool, error) {
	isMatch, found, err := d.DB.LookupPair(ctx, line1, line2)
	if err != nil {
		return false, err
	}
	if found {
		d.Logger.Debug("Pair decision from cache", "isMatch", isMatch)
		return isMatch, nil
	}

	isMatch, err = d.Next.Decide(ctx, line1, line2)
	if err != nil {
		return false, err
	}
	if err := d.DB.RecordPair(ctx, d.ContestID, line1, line2, isMatch); err != nil {
		return false, err
	}
	return isMatch, nil
}
