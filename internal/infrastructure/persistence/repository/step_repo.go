package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
	"github.com/koperasidigital/simpanpinjam/internal/infrastructure/persistence/sqlite"
)

// StepRepository implements port.StepRepository on sqlite
type StepRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewStepRepository creates a new step repository
func NewStepRepository(db *sqlite.DB, logger *zap.Logger) port.StepRepository {
	return &StepRepository{db: db, logger: logger}
}

// CreateAll persists the full pending step set of a new request
func (r *StepRepository) CreateAll(ctx context.Context, steps []*approval.ApprovalStep) error {
	ex := r.db.ExecutorFrom(ctx)
	query := `
		INSERT INTO approval_steps (request_id, sequence, stage, kind, role)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, step := range steps {
		result, err := ex.ExecContext(ctx, query,
			step.RequestID, step.Sequence, step.Stage.String(), string(step.Kind), step.Role.String())
		if err != nil {
			r.logger.Error("Failed to create approval step",
				zap.Int64("request_id", step.RequestID), zap.String("stage", step.Stage.String()), zap.Error(err))
			return fmt.Errorf("failed to create approval step: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		step.ID = id
	}
	return nil
}

// GetByRequestID retrieves all steps of a request in sequence order
func (r *StepRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*approval.ApprovalStep, error) {
	query := `
		SELECT id, request_id, sequence, stage, kind, role, decision, decided_at, actor_id, notes, created_at
		FROM approval_steps
		WHERE request_id = ?
		ORDER BY sequence ASC
	`
	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get approval steps", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval steps: %w", err)
	}
	defer rows.Close()

	var steps []*approval.ApprovalStep
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// GetPending returns the undecided step for a stage
func (r *StepRepository) GetPending(ctx context.Context, requestID int64, stage approval.Stage) (*approval.ApprovalStep, error) {
	query := `
		SELECT id, request_id, sequence, stage, kind, role, decision, decided_at, actor_id, notes, created_at
		FROM approval_steps
		WHERE request_id = ? AND stage = ? AND decision IS NULL
	`
	row := r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query, requestID, stage.String())
	step, err := scanStep(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no pending step %s for request %d", approval.ErrInvalidState, stage, requestID)
		}
		r.logger.Error("Failed to get pending step", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get pending step: %w", err)
	}
	return step, nil
}

// MarkDecided records a decision on a pending step. Decided steps are
// immutable: the guard on decision IS NULL makes a second write fail.
func (r *StepRepository) MarkDecided(ctx context.Context, id int64, decision approval.Decision, actorID, notes string, decidedAt time.Time) error {
	query := `
		UPDATE approval_steps
		SET decision = ?, actor_id = ?, notes = ?, decided_at = ?
		WHERE id = ? AND decision IS NULL
	`
	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		decision.String(), actorID, notes, decidedAt, id)
	if err != nil {
		r.logger.Error("Failed to mark step decided", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark step decided: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: step %d is already decided", approval.ErrInvalidState, id)
	}
	return nil
}

func scanStep(row rowScanner) (*approval.ApprovalStep, error) {
	var (
		step      approval.ApprovalStep
		stageStr  string
		kindStr   string
		roleStr   string
		decision  sql.NullString
		decidedAt sql.NullTime
		actorID   sql.NullString
		notes     sql.NullString
	)
	err := row.Scan(
		&step.ID, &step.RequestID, &step.Sequence, &stageStr, &kindStr, &roleStr,
		&decision, &decidedAt, &actorID, &notes, &step.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	step.Stage = approval.Stage(stageStr)
	step.Kind = approval.StepKind(kindStr)
	step.Role = approval.Role(roleStr)
	if decision.Valid {
		d := approval.Decision(decision.String)
		step.Decision = &d
	}
	step.DecidedAt = timePtr(decidedAt)
	step.ActorID = actorID.String
	step.Notes = notes.String
	return &step, nil
}

// Verify interface compliance
var _ port.StepRepository = (*StepRepository)(nil)
