package journal

import "fmt"

// RejectReason is the typed failure reason spec's validation pipeline
// requires: the state is left unchanged and the caller learns exactly
// which check failed.
type RejectReason string

const (
	ReasonUnrecognisedVersion  RejectReason = "unrecognised_version"
	ReasonAccountMismatch      RejectReason = "account_mismatch"
	ReasonEpochNotMonotonic    RejectReason = "epoch_not_monotonic"
	ReasonParentHashMismatch   RejectReason = "parent_hash_mismatch"
	ReasonNonceReused          RejectReason = "nonce_reused"
	ReasonNonceBehind          RejectReason = "nonce_behind"
	ReasonAuthorizationInvalid RejectReason = "authorization_invalid"
	ReasonSemanticPrecondition RejectReason = "semantic_precondition_failed"
)

// RejectedEventError is returned by Store.Append when an event fails
// the validation pipeline. The journal state is guaranteed unchanged.
type RejectedEventError struct {
	Reason  RejectReason
	Detail  string
}

func (e *RejectedEventError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("journal: event rejected: %s", e.Reason)
	}
	return fmt.Sprintf("journal: event rejected: %s: %s", e.Reason, e.Detail)
}

func reject(reason RejectReason, detail string) error {
	return &RejectedEventError{Reason: reason, Detail: detail}
}
