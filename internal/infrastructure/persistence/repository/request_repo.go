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

const requestColumns = `
	id, number, type, member_id, status, current_step, version,
	params, figures,
	submitted_at, approved_at, rejected_at, completed_at, rejection_reason,
	revision_count, last_revised_at, last_revised_by, revision_notes,
	matures_at, maturity_notified_at,
	created_at, updated_at`

// RequestRepository implements port.RequestRepository on sqlite
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

// Create persists a new request, assigning its id and type-prefixed number
func (r *RequestRepository) Create(ctx context.Context, req *approval.Request) error {
	ex := r.db.ExecutorFrom(ctx)

	number, err := r.nextNumber(ctx, ex, req.Type, req.SubmittedAt)
	if err != nil {
		return err
	}
	req.Number = number

	params, err := encodeParams(req.Params)
	if err != nil {
		return err
	}
	figures, err := encodeFigures(req.Figures)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO requests (
			number, type, member_id, status, current_step, version,
			params, figures, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := ex.ExecContext(ctx, query,
		req.Number,
		req.Type.String(),
		req.MemberID,
		req.Status.String(),
		stageValue(req.CurrentStep),
		req.Version,
		params,
		nullString(figures),
		req.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err), zap.String("number", req.Number))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	return nil
}

// nextNumber increments the per-type monthly counter and formats the number
func (r *RequestRepository) nextNumber(ctx context.Context, ex sqlite.Executor, t approval.Type, at time.Time) (string, error) {
	period := at.Format("200601")
	var value int64
	err := ex.QueryRowContext(ctx, `
		INSERT INTO request_counters (type, period, value) VALUES (?, ?, 1)
		ON CONFLICT(type, period) DO UPDATE SET value = value + 1
		RETURNING value
	`, t.String(), period).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("failed to advance request counter: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", t.NumberPrefix(), period, value), nil
}

// GetByID retrieves a request by id
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*approval.Request, error) {
	query := `SELECT` + requestColumns + `
		FROM requests WHERE id = ?`
	row := r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", approval.ErrNotFound, id)
		}
		r.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// GetByNumber retrieves a request by its human-readable number
func (r *RequestRepository) GetByNumber(ctx context.Context, number string) (*approval.Request, error) {
	query := `SELECT` + requestColumns + `
		FROM requests WHERE number = ?`
	row := r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query, number)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: number %s", approval.ErrNotFound, number)
		}
		r.logger.Error("Failed to get request by number", zap.String("number", number), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// List retrieves filtered, paginated requests newest first
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*approval.Request, error) {
	query := `SELECT` + requestColumns + `
		FROM requests WHERE 1=1`
	args := make([]interface{}, 0, 5)

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type.String())
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status.String())
	}
	if filter.MemberID != "" {
		query += ` AND member_id = ?`
		args = append(args, filter.MemberID)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// UpdateTransition writes the transition outcome guarded by the version check
func (r *RequestRepository) UpdateTransition(ctx context.Context, req *approval.Request, expectedVersion int64) error {
	figures, err := encodeFigures(req.Figures)
	if err != nil {
		return err
	}

	query := `
		UPDATE requests SET
			status = ?, current_step = ?, figures = ?,
			approved_at = ?, rejected_at = ?, completed_at = ?, rejection_reason = ?,
			matures_at = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		req.Status.String(),
		stageValue(req.CurrentStep),
		nullString(figures),
		nullTime(req.ApprovedAt),
		nullTime(req.RejectedAt),
		nullTime(req.CompletedAt),
		req.RejectionReason,
		nullTime(req.MaturesAt),
		req.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update request transition", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}
	return r.checkVersionedUpdate(result, req, expectedVersion)
}

// UpdateRevision writes revised params and figures guarded by the version check
func (r *RequestRepository) UpdateRevision(ctx context.Context, req *approval.Request, expectedVersion int64) error {
	params, err := encodeParams(req.Params)
	if err != nil {
		return err
	}
	figures, err := encodeFigures(req.Figures)
	if err != nil {
		return err
	}

	query := `
		UPDATE requests SET
			params = ?, figures = ?,
			revision_count = ?, last_revised_at = ?, last_revised_by = ?, revision_notes = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		params,
		nullString(figures),
		req.RevisionCount,
		nullTime(req.LastRevisedAt),
		req.LastRevisedBy,
		req.RevisionNotes,
		req.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update request revision", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}
	return r.checkVersionedUpdate(result, req, expectedVersion)
}

func (r *RequestRepository) checkVersionedUpdate(result sql.Result, req *approval.Request, expectedVersion int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %s version %d", approval.ErrConflict, req.Number, expectedVersion)
	}
	req.Version = expectedVersion + 1
	return nil
}

// ListMaturedDeposits returns active deposits past maturity not yet flagged
func (r *RequestRepository) ListMaturedDeposits(ctx context.Context, asOf time.Time, limit int) ([]*approval.Request, error) {
	query := `SELECT` + requestColumns + `
		FROM requests
		WHERE type = ? AND status = ?
		  AND matures_at IS NOT NULL AND matures_at <= ?
		  AND maturity_notified_at IS NULL
		ORDER BY matures_at ASC LIMIT ?`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query,
		approval.TypeDeposit.String(), approval.StatusActive.String(), asOf, limit)
	if err != nil {
		r.logger.Error("Failed to list matured deposits", zap.Error(err))
		return nil, fmt.Errorf("failed to list matured deposits: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// MarkMaturityNotified stamps the maturity flag without touching status
func (r *RequestRepository) MarkMaturityNotified(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecutorFrom(ctx).ExecContext(ctx,
		`UPDATE requests SET maturity_notified_at = ? WHERE id = ?`, at, id)
	if err != nil {
		r.logger.Error("Failed to mark maturity notified", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark maturity notified: %w", err)
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*approval.Request, error) {
	var (
		req             approval.Request
		typeStr         string
		statusStr       string
		currentStep     sql.NullString
		paramsRaw       string
		figuresRaw      sql.NullString
		approvedAt      sql.NullTime
		rejectedAt      sql.NullTime
		completedAt     sql.NullTime
		rejectionReason sql.NullString
		lastRevisedAt   sql.NullTime
		lastRevisedBy   sql.NullString
		revisionNotes   sql.NullString
		maturesAt       sql.NullTime
		maturityNotifAt sql.NullTime
	)

	err := row.Scan(
		&req.ID, &req.Number, &typeStr, &req.MemberID, &statusStr, &currentStep, &req.Version,
		&paramsRaw, &figuresRaw,
		&req.SubmittedAt, &approvedAt, &rejectedAt, &completedAt, &rejectionReason,
		&req.RevisionCount, &lastRevisedAt, &lastRevisedBy, &revisionNotes,
		&maturesAt, &maturityNotifAt,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Type = approval.Type(typeStr)
	req.Status = approval.Status(statusStr)
	if currentStep.Valid {
		stage := approval.Stage(currentStep.String)
		req.CurrentStep = &stage
	}
	req.RejectionReason = rejectionReason.String
	req.LastRevisedBy = lastRevisedBy.String
	req.RevisionNotes = revisionNotes.String
	req.ApprovedAt = timePtr(approvedAt)
	req.RejectedAt = timePtr(rejectedAt)
	req.CompletedAt = timePtr(completedAt)
	req.LastRevisedAt = timePtr(lastRevisedAt)
	req.MaturesAt = timePtr(maturesAt)
	req.MaturityNotifiedAt = timePtr(maturityNotifAt)

	req.Params, err = decodeParams(req.Type, paramsRaw)
	if err != nil {
		return nil, err
	}
	req.Figures, err = decodeFigures(req.Type, figuresRaw.String)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func collectRequests(rows *sql.Rows) ([]*approval.Request, error) {
	var requests []*approval.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func stageValue(s *approval.Stage) interface{} {
	if s == nil {
		return nil
	}
	return s.String()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
