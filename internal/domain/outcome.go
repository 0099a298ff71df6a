package domain

type OutcomeKind string

const (
	OutcomeCreated       OutcomeKind = "Created"
	OutcomeDuplicate     OutcomeKind = "Duplicate"
	OutcomeStatusUpdated OutcomeKind = "StatusUpdated"
	OutcomeNotFound      OutcomeKind = "NotFound"
	OutcomeRejected      OutcomeKind = "Rejected"
	OutcomeSkipped       OutcomeKind = "Skipped"
	OutcomeInvalid       OutcomeKind = "Invalid"
)

// Outcome is what the pipeline reports for every submitted document.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	PONumber string      `json:"poNumber,omitempty"`
	Status   OrderStatus `json:"status,omitempty"`
	Reason   string      `json:"reason,omitempty"`
}

// Mutated reports whether the outcome changed the order store.
func (o Outcome) Mutated() bool {
	return o.Kind == OutcomeCreated || o.Kind == OutcomeStatusUpdated
}
