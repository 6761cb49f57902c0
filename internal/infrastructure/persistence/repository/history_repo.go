package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
	"github.com/koperasidigital/simpanpinjam/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository on sqlite. The table is
// append-only; there are no update or delete operations.
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Create appends one audit trail entry
func (r *HistoryRepository) Create(ctx context.Context, entry *approval.HistoryEntry) error {
	query := `
		INSERT INTO history_entries (
			request_id, action, actor_id, previous_status, new_status, snapshot, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		entry.RequestID,
		string(entry.Action),
		entry.ActorID,
		entry.PreviousStatus.String(),
		entry.NewStatus.String(),
		entry.Snapshot,
		entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history entry", zap.Int64("request_id", entry.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// GetByRequestID retrieves all history entries of a request oldest first
func (r *HistoryRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*approval.HistoryEntry, error) {
	query := `
		SELECT id, request_id, action, actor_id, previous_status, new_status, snapshot, timestamp
		FROM history_entries
		WHERE request_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history entries", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history entries: %w", err)
	}
	defer rows.Close()

	var entries []*approval.HistoryEntry
	for rows.Next() {
		var (
			entry      approval.HistoryEntry
			actionStr  string
			prevStatus string
			newStatus  string
		)
		err := rows.Scan(
			&entry.ID, &entry.RequestID, &actionStr, &entry.ActorID,
			&prevStatus, &newStatus, &entry.Snapshot, &entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Action = approval.Action(actionStr)
		entry.PreviousStatus = approval.Status(prevStatus)
		entry.NewStatus = approval.Status(newStatus)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
