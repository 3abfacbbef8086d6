package cabrillo

import (
	"context"
	"fmt"

	"qsomatch/pkg/database"
	"qsomatch/pkg/models"
)

// Ingest stores one parsed log: the submission header, its callsign marked
// as log-received, and every QSO with both exchanges resolved to callsign
// and multiplier references. Returns the new log ID.
func Ingest(ctx context.Context, db *database.DB, contestID int64, log *Log) (int64, error) {
	base := BaseCall(log.Callsign)
	callID, err := db.AddOrLookupCall(ctx, contestID, base, ValidCall(base))
	if err != nil {
		return 0, err
	}
	if err := db.MarkLogReceived(ctx, callID); err != nil {
		return 0, err
	}

	logID, err := db.InsertLog(ctx, &models.Log{
		ContestID: contestID,
		Callsign:  base,
		CallID:    callID,
		Email:     log.Email,
		Club:      log.Club,
		Name:      log.Operators,
	})
	if err != nil {
		return 0, err
	}

	for i := range log.QSOs {
		qso, err := resolveQSO(ctx, db, contestID, logID, &log.QSOs[i])
		if err != nil {
			return logID, fmt.Errorf("error ingesting QSO %d of %s: %v", i+1, log.Filename, err)
		}
		if err := db.InsertQSO(ctx, qso); err != nil {
			return logID, err
		}
	}
	return logID, nil
}

func resolveQSO(ctx context.Context, db *database.DB, contestID, logID int64, q *QSO) (*models.QSO, error) {
	sentCall := BaseCall(q.Sent.Call)
	sentCallID, err := db.AddOrLookupCall(ctx, contestID, sentCall, ValidCall(sentCall))
	if err != nil {
		return nil, err
	}
	recvdCall := BaseCall(q.Recvd.Call)
	recvdCallID, err := db.AddOrLookupCall(ctx, contestID, recvdCall, ValidCall(recvdCall))
	if err != nil {
		return nil, err
	}
	sentMultID, err := db.AddOrLookupMultiplier(ctx, q.Sent.Location)
	if err != nil {
		return nil, err
	}
	recvdMultID, err := db.AddOrLookupMultiplier(ctx, q.Recvd.Location)
	if err != nil {
		return nil, err
	}

	return &models.QSO{
		LogID:     logID,
		Frequency: q.Frequency,
		Band:      q.Band,
		Mode:      q.Mode,
		Time:      q.Time,

		SentCallID:   sentCallID,
		SentMultID:   sentMultID,
		SentSerial:   q.Sent.Serial,
		SentCallsign: q.Sent.Call,
		SentName:     q.Sent.Name,
		SentLocation: q.Sent.Location,

		RecvdCallID:   recvdCallID,
		RecvdMultID:   recvdMultID,
		RecvdSerial:   q.Recvd.Serial,
		RecvdCallsign: q.Recvd.Call,
		RecvdName:     q.Recvd.Name,
		RecvdLocation: q.Recvd.Location,

		MatchState: models.MatchNone,
	}, nil
}
