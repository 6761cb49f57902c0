package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
	"github.com/koperasidigital/simpanpinjam/internal/infrastructure/persistence/sqlite"
)

// ExecutionRepository implements port.ExecutionRepository on sqlite
type ExecutionRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExecutionRepository creates a new execution record repository
func NewExecutionRepository(db *sqlite.DB, logger *zap.Logger) port.ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Create persists a disbursement/authorization record. The unique constraint
// on (request_id, kind) turns a second confirmation into ErrAlreadyConfirmed.
func (r *ExecutionRepository) Create(ctx context.Context, rec *approval.ExecutionRecord) error {
	query := `
		INSERT INTO execution_records (request_id, kind, actor_id, executed_at, notes)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		rec.RequestID, string(rec.Kind), rec.ActorID, rec.ExecutedAt, rec.Notes)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s for request %d", approval.ErrAlreadyConfirmed, rec.Kind, rec.RequestID)
		}
		r.logger.Error("Failed to create execution record",
			zap.Int64("request_id", rec.RequestID), zap.String("kind", string(rec.Kind)), zap.Error(err))
		return fmt.Errorf("failed to create execution record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetByRequestID retrieves all execution records of a request
func (r *ExecutionRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*approval.ExecutionRecord, error) {
	query := `
		SELECT id, request_id, kind, actor_id, executed_at, notes, created_at
		FROM execution_records
		WHERE request_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get execution records", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get execution records: %w", err)
	}
	defer rows.Close()

	var records []*approval.ExecutionRecord
	for rows.Next() {
		var rec approval.ExecutionRecord
		var kindStr string
		err := rows.Scan(&rec.ID, &rec.RequestID, &kindStr, &rec.ActorID, &rec.ExecutedAt, &rec.Notes, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}
		rec.Kind = approval.ExecutionKind(kindStr)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Verify interface compliance
var _ port.ExecutionRepository = (*ExecutionRepository)(nil)
