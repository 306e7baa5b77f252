package models

// OutcomeStatus is the verified result of a mutating reconciliation.
type OutcomeStatus string

// Outcome statuses.
const (
	// OutcomeSuccess means the change was confirmed by a verification read,
	// or the operation is one the panel handles reliably.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeSuccessUnverified means the panel accepted the change but a
	// follow-up read could not confirm it.
	OutcomeSuccessUnverified OutcomeStatus = "success_unverified"
	// OutcomeAmbiguousReset means the connection dropped mid-mutation and the
	// resulting state could not be read back.
	OutcomeAmbiguousReset OutcomeStatus = "ambiguous_connection_reset"
	// OutcomeFailure means the change did not happen.
	OutcomeFailure OutcomeStatus = "failure"
)

// LifecycleState is where an entity ended up after a reconciliation.
type LifecycleState string

// Lifecycle states.
const (
	StateUnknown          LifecycleState = "unknown"
	StateAlreadyExists    LifecycleState = "already_exists"
	StateCreated          LifecycleState = "created"
	StateCreateFailed     LifecycleState = "create_failed"
	StateVerified         LifecycleState = "verified"
	StateUnverified       LifecycleState = "unverified"
	StateUpdateFailed     LifecycleState = "update_failed"
	StateRenamed          LifecycleState = "renamed"
	StateRenamedDuplicate LifecycleState = "renamed_duplicate"
	StateRenameFailed     LifecycleState = "rename_failed"
	StateDeleted          LifecycleState = "deleted"
	StateUpdated          LifecycleState = "updated"
	StateDeleteFailed     LifecycleState = "delete_failed"
	StateSuspended        LifecycleState = "suspended"
	StateUnsuspended      LifecycleState = "unsuspended"
)

// FieldMismatch records a requested value that a verification read disagreed with.
type FieldMismatch struct {
	Field     string `json:"field"`
	Requested string `json:"requested"`
	Actual    string `json:"actual"`
}

// Outcome is returned by every mutating reconciliation.
type Outcome struct {
	Status     OutcomeStatus   `json:"status"`
	State      LifecycleState  `json:"state"`
	Entity     string          `json:"entity"`
	Message    string          `json:"message,omitempty"`
	Attempts   int             `json:"attempts,omitempty"`
	Mismatches []FieldMismatch `json:"mismatches,omitempty"`
	Err        error           `json:"-"`
}

// OK reports whether the change is known or believed to have happened.
func (o Outcome) OK() bool {
	return o.Status == OutcomeSuccess || o.Status == OutcomeSuccessUnverified
}

// Warning reports whether the outcome must be shown distinctly from a clean success.
func (o Outcome) Warning() bool {
	return o.Status == OutcomeSuccessUnverified || o.Status == OutcomeAmbiguousReset
}

// Cause returns the underlying error of a failed outcome.
func (o Outcome) Cause() error {
	if o.Status != OutcomeFailure {
		return nil
	}
	return o.Err
}
