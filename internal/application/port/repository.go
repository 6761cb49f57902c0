package port

import (
	"context"
	"time"

	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

// RequestFilter narrows request listings
type RequestFilter struct {
	Type     approval.Type
	Status   approval.Status
	MemberID string
	Limit    int
	Offset   int
}

// RequestRepository defines persistence operations for the Request aggregate.
// UpdateTransition and UpdateRevision are guarded by an optimistic version
// check: they must affect exactly one row whose stored version equals
// expectedVersion, incrementing it, and return approval.ErrConflict otherwise.
type RequestRepository interface {
	// Create persists a new request, assigning its id and type-prefixed number
	Create(ctx context.Context, req *approval.Request) error

	GetByID(ctx context.Context, id int64) (*approval.Request, error)
	GetByNumber(ctx context.Context, number string) (*approval.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]*approval.Request, error)

	// UpdateTransition writes status, current step, figures and terminal
	// timestamps as one guarded update
	UpdateTransition(ctx context.Context, req *approval.Request, expectedVersion int64) error

	// UpdateRevision writes params, figures and revision bookkeeping without
	// touching status or current step
	UpdateRevision(ctx context.Context, req *approval.Request, expectedVersion int64) error

	// ListMaturedDeposits returns active deposits whose maturity date passed
	// and that have not been flagged yet
	ListMaturedDeposits(ctx context.Context, asOf time.Time, limit int) ([]*approval.Request, error)

	// MarkMaturityNotified stamps the maturity flag; never touches status
	MarkMaturityNotified(ctx context.Context, id int64, at time.Time) error
}

// StepRepository defines persistence operations for approval steps
type StepRepository interface {
	// CreateAll persists the full pending step set of a new request
	CreateAll(ctx context.Context, steps []*approval.ApprovalStep) error

	GetByRequestID(ctx context.Context, requestID int64) ([]*approval.ApprovalStep, error)

	// GetPending returns the undecided step for a stage
	GetPending(ctx context.Context, requestID int64, stage approval.Stage) (*approval.ApprovalStep, error)

	// MarkDecided records a decision on a pending step; decided steps are immutable
	MarkDecided(ctx context.Context, id int64, decision approval.Decision, actorID, notes string, decidedAt time.Time) error
}

// ExecutionRepository defines persistence operations for disbursement and
// authorization records. Create must surface approval.ErrAlreadyConfirmed when
// a record for the same request and kind already exists.
type ExecutionRepository interface {
	Create(ctx context.Context, rec *approval.ExecutionRecord) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*approval.ExecutionRecord, error)
}

// HistoryRepository defines persistence operations for the append-only audit trail
type HistoryRepository interface {
	Create(ctx context.Context, entry *approval.HistoryEntry) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*approval.HistoryEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
