package choreography

import (
	"fmt"

	"github.com/hxrts/aura/effects"
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/thresholdcrypto"
	"golang.org/x/sync/errgroup"
)

// ShareSubmission is one participant's contribution(s) to the
// threshold-signing share-exchange phase. Shares normally has exactly
// one element; a test or a faulty client simulating equivocation (spec.
// md §8 scenario 2) supplies two different byte slices for the same
// authority in the same round, which RunThresholdSigning's RoundCollector
// detects and excludes.
type ShareSubmission struct {
	Authority ids.AuthorityId
	Shares    [][]byte
}

// SigningResult is the output of a completed FROST-style threshold
// signing round: the aggregate signature and the canonically-ordered
// set of authorities that actually contributed a share (spec.md §4.4,
// §8 scenario 2: "the returned signature's participants list").
type SigningResult struct {
	Signature    thresholdcrypto.Signature
	Participants []ids.AuthorityId
	Session      *Session
}

// RunThresholdSigning executes the five FROST-style phases of spec.md
// §4.4: propose, credentials exchange, nonce-commitment exchange, share
// exchange, consistency verification. keys holds each honest
// participant's secret share; submissions simulates what each
// participant actually broadcast in the share-exchange round (possibly
// more than one conflicting value, to model equivocation).
func RunThresholdSigning(
	store journal.Store,
	eff effects.Effects,
	sess *Session,
	groupPublicKey thresholdcrypto.PublicKey,
	keys map[ids.AuthorityId]thresholdcrypto.SecretKey,
	msgHash ids.Hash32,
	submissions []ShareSubmission,
) (*SigningResult, error) {
	sess.State = StateExecutingPhase

	if _, err := appendEvent(store, eff, journal.EventKindSessionStarted, journal.Payload{
		SessionID:    sess.ID,
		ProtocolType: sess.ProtocolType,
	}, journal.LifecycleInternal()); err != nil {
		return nil, err
	}

	// Phase 1: propose + phase 2: credentials exchange. Every
	// participant with a key acknowledges the proposed signing context.
	creds := NewRoundCollector()
	for _, p := range sess.Participants {
		if _, ok := keys[p]; !ok {
			continue
		}
		creds.Submit(0, p, []byte(p.String()))
	}
	if creds.Count(0) < sess.Threshold {
		sess.Fail(FailureQuorumNotMet)
		return nil, completeSessionOnFailure(store, eff, sess)
	}

	// Phase 3: nonce-commitment exchange. Every keyed participant's
	// commitment is independent of the others, so they fan out through an
	// errgroup rather than a sequential loop; results land in a
	// per-index slice (not a shared map) so no participant's goroutine
	// writes another's slot.
	keyed := make([]ids.AuthorityId, 0, len(sess.Participants))
	for _, p := range sess.Participants {
		if _, ok := keys[p]; ok {
			keyed = append(keyed, p)
		}
	}
	commitments := make([]thresholdcrypto.Commitment, len(keyed))
	commitNonces := make([]thresholdcrypto.Nonce, len(keyed))
	var g errgroup.Group
	for i, p := range keyed {
		i, p := i, p
		g.Go(func() error {
			commitment, nonce, err := eff.Crypto.FrostCommit(keys[p], eff.Random)
			if err != nil {
				return err
			}
			commitments[i] = commitment
			commitNonces[i] = nonce
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nonces := map[ids.AuthorityId]thresholdcrypto.Nonce{}
	commitmentsByAuth := map[ids.AuthorityId]thresholdcrypto.Commitment{}
	commits := NewRoundCollector()
	for i, p := range keyed {
		nonces[p] = commitNonces[i]
		commitmentsByAuth[p] = commitments[i]
		commits.Submit(1, p, commitments[i])
	}
	if commits.Count(1) < sess.Threshold {
		sess.Fail(FailureQuorumNotMet)
		return nil, completeSessionOnFailure(store, eff, sess)
	}

	// Phase 4: share exchange. This is where an equivocator's two
	// conflicting reveals get caught by the RoundCollector and the
	// offender is excluded from aggregation (spec.md §4.4, §8 scenario
	// 2).
	shareRound := NewRoundCollector()
	for _, sub := range submissions {
		for _, raw := range sub.Shares {
			if shareRound.Submit(2, sub.Authority, raw) {
				sess.MarkByzantine(sub.Authority)
			}
		}
	}

	honestRaw := shareRound.HonestContributions(2, sess)
	if len(honestRaw) < sess.Threshold {
		sess.Fail(FailureTooManyByzantine)
		return nil, completeSessionOnFailure(store, eff, sess)
	}
	shares := make(map[ids.AuthorityId]thresholdcrypto.Share, len(honestRaw))
	for a, raw := range honestRaw {
		shares[a] = thresholdcrypto.Share(raw)
	}

	// Phase 5: every honest share-holder independently aggregates the
	// same share set, then reveals its local result; an aggregator
	// whose reveal disagrees with the majority is excluded rather than
	// trusted, so a single corrupted aggregation step can't silently
	// become the session's signature.
	aggregators := make([]ids.AuthorityId, 0, len(shares))
	for a := range shares {
		aggregators = append(aggregators, a)
	}
	ids.SortID32s(aggregators)

	reveals := make([]thresholdcrypto.Signature, len(aggregators))
	var ag errgroup.Group
	for i := range aggregators {
		i := i
		ag.Go(func() error {
			sig, err := eff.Crypto.FrostAggregate(msgHash, shares, groupPublicKey)
			if err != nil {
				return err
			}
			reveals[i] = sig
			return nil
		})
	}
	if err := ag.Wait(); err != nil {
		sess.Fail(FailureInvalidProposal)
		return nil, completeSessionOnFailure(store, eff, sess)
	}

	tally := map[string]int{}
	for _, r := range reveals {
		tally[string(r)]++
	}
	var sig thresholdcrypto.Signature
	majority := 0
	for raw, count := range tally {
		if count > majority {
			majority = count
			sig = thresholdcrypto.Signature(raw)
		}
	}
	if majority*2 <= len(aggregators) {
		sess.Fail(FailureQuorumNotMet)
		return nil, completeSessionOnFailure(store, eff, sess)
	}

	contributing := make([]ids.AuthorityId, 0, len(aggregators))
	for i, a := range aggregators {
		if string(reveals[i]) == string(sig) {
			contributing = append(contributing, a)
		} else {
			sess.MarkByzantine(a)
		}
	}
	ids.SortID32s(contributing)

	sess.Complete()
	logSessionCompleted(eff, sess)
	if _, err := appendEvent(store, eff, journal.EventKindSessionCompleted, journal.Payload{
		SessionID: sess.ID,
		Status:    "Completed",
	}, journal.ThresholdSignature(contributing, sig)); err != nil {
		return nil, err
	}

	if !eff.Crypto.Verify(groupPublicKey, msgHash[:], sig) {
		return nil, fmt.Errorf("choreography: aggregated signature failed to verify against group key")
	}

	return &SigningResult{Signature: sig, Participants: contributing, Session: sess}, nil
}
