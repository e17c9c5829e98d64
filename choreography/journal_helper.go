package choreography

import (
	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/journal"
)

// appendEvent folds store's current state to fill in the bookkeeping
// fields every journal.Event needs (ParentHash, Nonce, EpochAtWrite,
// IsGenesis), then appends kind/payload/auth. Every choreography in this
// package goes through this single call site so a session never forges
// its own view of chain position.
func appendEvent(store journal.Store, eff effects.Effects, kind journal.EventKind, payload journal.Payload, auth journal.Authorization) (journal.AppendOutcome, error) {
	state, err := store.Fold()
	if err != nil {
		return journal.AppendOutcome{}, err
	}
	eventID, err := genEventID(eff)
	if err != nil {
		return journal.AppendOutcome{}, err
	}
	e := journal.Event{
		Version:       journal.Version,
		EventID:       eventID,
		AccountID:     state.AccountID,
		Timestamp:     unixMilliToTime(eff.Now()),
		Nonce:         state.NextNonce,
		ParentHash:    state.LastEventHash,
		IsGenesis:     state.EventCount == 0,
		EpochAtWrite:  state.SessionEpoch,
		Kind:          kind,
		Payload:       payload,
		Authorization: auth,
	}
	outcome, err := store.Append(e)
	if err != nil {
		eff.Log.Warn("journal append rejected", "kind", kind.String(), "event", eventID.String(), "error", err)
		return outcome, err
	}
	eff.Log.Info("journal append", "kind", kind.String(), "event", eventID.String(), "nonce", e.Nonce)
	return outcome, nil
}
