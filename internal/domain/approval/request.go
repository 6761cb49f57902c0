package approval

import "time"

// Request is the aggregate shared by all four request types. Status,
// CurrentStep and Figures are writable only through the state machine and
// revision transition paths.
type Request struct {
	ID       int64  `json:"id"`
	Number   string `json:"number"`
	Type     Type   `json:"type"`
	MemberID string `json:"member_id"`

	Status      Status `json:"status"`
	CurrentStep *Stage `json:"current_step,omitempty"`
	Version     int64  `json:"version"`

	Params  Params  `json:"params"`
	Figures Figures `json:"figures,omitempty"`

	SubmittedAt     time.Time  `json:"submitted_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	// Revision bookkeeping, loan only; zero for other types
	RevisionCount int        `json:"revision_count"`
	LastRevisedAt *time.Time `json:"last_revised_at,omitempty"`
	LastRevisedBy string     `json:"last_revised_by,omitempty"`
	RevisionNotes string     `json:"revision_notes,omitempty"`

	// Deposits only: set at activation, read by the maturity watcher
	MaturesAt          *time.Time `json:"matures_at,omitempty"`
	MaturityNotifiedAt *time.Time `json:"maturity_notified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Loaded on detail reads, nil otherwise
	Approvals []*ApprovalStep    `json:"approvals,omitempty"`
	History   []*HistoryEntry    `json:"history,omitempty"`
	Records   []*ExecutionRecord `json:"execution_records,omitempty"`
}

// IsTerminal reports whether the request reached a terminal status
func (r *Request) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// ApprovalStep is one slot in a request's stage sequence, created at submission
// from the workflow registry and immutable once decided.
type ApprovalStep struct {
	ID        int64    `json:"id"`
	RequestID int64    `json:"request_id"`
	Sequence  int      `json:"sequence"`
	Stage     Stage    `json:"stage"`
	Kind      StepKind `json:"kind"`
	Role      Role     `json:"role"`

	Decision  *Decision  `json:"decision,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	ActorID   string     `json:"actor_id,omitempty"`
	Notes     string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsDecided reports whether the step already carries a decision
func (s *ApprovalStep) IsDecided() bool {
	return s.Decision != nil
}

// ExecutionRecord confirms a real-world fund movement (disbursement or
// authorization). One-to-one with the request per kind, created exactly once.
type ExecutionRecord struct {
	ID         int64         `json:"id"`
	RequestID  int64         `json:"request_id"`
	Kind       ExecutionKind `json:"kind"`
	ActorID    string        `json:"actor_id"`
	ExecutedAt time.Time     `json:"executed_at"`
	Notes      string        `json:"notes,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// HistoryEntry is one row of the append-only audit trail. Written only by the
// state machine and revision handler.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	RequestID      int64     `json:"request_id"`
	Action         Action    `json:"action"`
	ActorID        string    `json:"actor_id"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	Snapshot       string    `json:"snapshot,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Actor is the identity/role claim for the acting staff member, supplied by the
// authentication layer. The engine checks only equality to the stage's
// authorized role.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
