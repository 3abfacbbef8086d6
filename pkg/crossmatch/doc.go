/*
Package crossmatch implements the multi-phase engine that reconciles
independently submitted contest logs: for every claimed contact it decides
whether a corroborating entry exists in the counterpart's log and classifies
the claim into the match-state taxonomy used for scoring.

The Matcher runs a fixed phase order over the QSOs of one contest:

 1. PerfectMatch — exchanges corroborate exactly in both directions
 2. PartialMatch — one direction corroborates exactly
 3. BasicMatch — callsign references agree in both directions
    (each of the above in a strict band+mode pass, then a relaxed
    band-or-mode pass)
 4. ResolveShifted — provisional TimeShift states settle to Full/Partial
 5. IgnoreDupes — repeat claims of already-linked contacts become Dupe
 6. MarkNIL — claims against stations whose own log lacks them become NIL
 7. ProbMatch — probabilistic fallback over all remaining pairs, best
    score first, with optional human adjudication of inconclusive scores

Every phase only touches QSOs still in state None, so the sequence is
idempotent and safe to resume; Restart rewinds a contest to the
ingested-but-unmatched state.

Linking two QSOs always goes through the store's bilateral claim: both rows
are conditionally updated inside one transaction and the link is abandoned
if either side was already claimed.
*/
package crossmatch
