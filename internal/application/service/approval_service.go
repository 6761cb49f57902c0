package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/koperasidigital/simpanpinjam/internal/application/dispatcher"
	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
	"github.com/koperasidigital/simpanpinjam/internal/domain/event"
	"github.com/koperasidigital/simpanpinjam/internal/domain/finance"
	"github.com/koperasidigital/simpanpinjam/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EngineConfig carries the calculator constants the engine needs at runtime
type EngineConfig struct {
	// AdminFee is the fixed administrative fee attached to deposit changes
	AdminFee decimal.Decimal

	// DefaultPenaltyRatePct applies to withdrawals submitted without a rate
	DefaultPenaltyRatePct decimal.Decimal
}

// SubmitDraft is the input of a new request submission
type SubmitDraft struct {
	Type     approval.Type
	MemberID string
	Params   approval.Params
}

// ExecutionConfirmation is the payload of a disbursement/authorization confirmation
type ExecutionConfirmation struct {
	// ExecutedAt is the real-world date of the fund movement; zero means now
	ExecutedAt time.Time
	Notes      string
}

// ApprovalService is the engine's transition surface. Every mutation of
// status, current step or computed figures goes through here.
type ApprovalService interface {
	Submit(ctx context.Context, draft SubmitDraft) (*approval.Request, error)
	Decide(ctx context.Context, id int64, actor approval.Actor, decision approval.Decision, notes string) (*approval.Request, error)
	ConfirmExecution(ctx context.Context, id int64, actor approval.Actor, conf ExecutionConfirmation) (*approval.Request, error)
	Cancel(ctx context.Context, id int64, memberID string) (*approval.Request, error)
	Revise(ctx context.Context, id int64, actor approval.Actor, rev approval.LoanRevision, notes string) (*approval.Request, error)
}

type approvalServiceImpl struct {
	requestRepo   port.RequestRepository
	stepRepo      port.StepRepository
	executionRepo port.ExecutionRepository
	historyRepo   port.HistoryRepository
	txManager     port.TransactionManager
	dispatcher    dispatcher.Dispatcher
	cfg           EngineConfig
	logger        Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	requestRepo port.RequestRepository,
	stepRepo port.StepRepository,
	executionRepo port.ExecutionRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	disp dispatcher.Dispatcher,
	cfg EngineConfig,
	logger Logger,
) ApprovalService {
	if cfg.DefaultPenaltyRatePct.IsZero() {
		cfg.DefaultPenaltyRatePct = finance.DefaultPenaltyRatePct
	}
	return &approvalServiceImpl{
		requestRepo:   requestRepo,
		stepRepo:      stepRepo,
		executionRepo: executionRepo,
		historyRepo:   historyRepo,
		txManager:     txManager,
		dispatcher:    disp,
		cfg:           cfg,
		logger:        logger,
	}
}

// Submit creates a request, its full pending step set, and the initial history
// entry, with the status of the first pending stage.
func (s *approvalServiceImpl) Submit(ctx context.Context, draft SubmitDraft) (*approval.Request, error) {
	if !draft.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown request type %q", approval.ErrValidation, draft.Type)
	}
	if draft.MemberID == "" {
		return nil, fmt.Errorf("%w: member id is required", approval.ErrValidation)
	}
	if draft.Params == nil {
		return nil, fmt.Errorf("%w: parameters are required", approval.ErrValidation)
	}
	if draft.Params.RequestType() != draft.Type {
		return nil, fmt.Errorf("%w: parameter shape does not match request type %s", approval.ErrValidation, draft.Type)
	}
	if err := draft.Params.Validate(); err != nil {
		return nil, err
	}

	seq, err := workflow.SequenceFor(draft.Type)
	if err != nil {
		return nil, err
	}

	figures, err := s.computeFigures(draft.Params)
	if err != nil {
		return nil, err
	}

	first := seq.First()
	firstStage := first.Stage
	now := time.Now()
	req := &approval.Request{
		Type:        draft.Type,
		MemberID:    draft.MemberID,
		Status:      first.PendingStatus,
		CurrentStep: &firstStage,
		Version:     1,
		Params:      draft.Params,
		Figures:     figures,
		SubmittedAt: now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if err := s.stepRepo.CreateAll(txCtx, seq.BuildSteps(req.ID)); err != nil {
			return fmt.Errorf("create steps: %w", err)
		}
		entry := &approval.HistoryEntry{
			RequestID:      req.ID,
			Action:         approval.ActionSubmit,
			ActorID:        draft.MemberID,
			PreviousStatus: "",
			NewStatus:      req.Status,
			Snapshot:       snapshot(map[string]interface{}{"params": draft.Params, "figures": figures}),
			Timestamp:      now,
		}
		if err := s.historyRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to submit request", "error", err, "type", draft.Type, "member_id", draft.MemberID)
		return nil, err
	}

	s.logger.Info("Request submitted", "id", req.ID, "number", req.Number, "type", req.Type, "status", req.Status)
	s.emit(ctx, event.New(event.TypeRequestSubmitted, req.ID, req.Number, map[string]interface{}{
		"type":   req.Type.String(),
		"status": req.Status.String(),
	}))
	return req, nil
}

// Decide records an approve/reject decision at the request's current decision
// stage and advances or terminates the workflow. The whole transition is one
// atomic unit guarded by the request's version.
func (s *approvalServiceImpl) Decide(ctx context.Context, id int64, actor approval.Actor, decision approval.Decision, notes string) (*approval.Request, error) {
	if decision != approval.DecisionApproved && decision != approval.DecisionRejected {
		return nil, fmt.Errorf("%w: decision must be APPROVED or REJECTED", approval.ErrValidation)
	}

	var req *approval.Request
	var prevStatus approval.Status
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if req.IsTerminal() {
			return fmt.Errorf("%w: request %s is %s", approval.ErrInvalidState, req.Number, req.Status)
		}

		seq, err := workflow.SequenceFor(req.Type)
		if err != nil {
			return err
		}
		def, idx, err := seq.Gate(req.CurrentStep, actor.Role, approval.KindDecision)
		if err != nil {
			return err
		}

		step, err := s.stepRepo.GetPending(txCtx, req.ID, def.Stage)
		if err != nil {
			return err
		}

		expectedVersion := req.Version
		prevStatus = req.Status
		now := time.Now()
		action := approval.ActionApprove

		switch decision {
		case approval.DecisionRejected:
			if notes == "" {
				return fmt.Errorf("%w: a rejection reason is required", approval.ErrValidation)
			}
			action = approval.ActionReject
			req.Status = approval.StatusRejected
			req.CurrentStep = nil
			req.RejectedAt = &now
			req.RejectionReason = notes

		case approval.DecisionApproved:
			tr := seq.Advance(idx)
			req.Status = tr.NewStatus
			req.CurrentStep = tr.NextStep
			if tr.Terminal {
				if err := s.freezeTerminal(req, now); err != nil {
					return err
				}
			}
		}

		if err := s.stepRepo.MarkDecided(txCtx, step.ID, decision, actor.ID, notes, now); err != nil {
			return err
		}
		if err := s.requestRepo.UpdateTransition(txCtx, req, expectedVersion); err != nil {
			return err
		}
		entry := &approval.HistoryEntry{
			RequestID:      req.ID,
			Action:         action,
			ActorID:        actor.ID,
			PreviousStatus: prevStatus,
			NewStatus:      req.Status,
			Snapshot:       snapshot(map[string]interface{}{"stage": def.Stage, "notes": notes}),
			Timestamp:      now,
		}
		return s.historyRepo.Create(txCtx, entry)
	})
	if err != nil {
		if !expectedEngineError(err) {
			s.logger.Error("Failed to decide request", "error", err, "id", id, "decision", decision)
		}
		return nil, err
	}

	s.logger.Info("Decision recorded",
		"id", req.ID, "number", req.Number, "decision", decision,
		"previous_status", prevStatus, "status", req.Status)
	s.emitStatusChanged(ctx, req, prevStatus)
	return req, nil
}

// ConfirmExecution records that a real-world fund movement happened at the
// request's current execution stage and advances the workflow exactly like an
// approval.
func (s *approvalServiceImpl) ConfirmExecution(ctx context.Context, id int64, actor approval.Actor, conf ExecutionConfirmation) (*approval.Request, error) {
	var req *approval.Request
	var prevStatus approval.Status
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if req.IsTerminal() {
			return fmt.Errorf("%w: request %s is %s", approval.ErrInvalidState, req.Number, req.Status)
		}

		seq, err := workflow.SequenceFor(req.Type)
		if err != nil {
			return err
		}
		def, idx, err := seq.Gate(req.CurrentStep, actor.Role, approval.KindExecution)
		if err != nil {
			return err
		}

		step, err := s.stepRepo.GetPending(txCtx, req.ID, def.Stage)
		if err != nil {
			return err
		}

		executedAt := conf.ExecutedAt
		if executedAt.IsZero() {
			executedAt = time.Now()
		}
		rec := &approval.ExecutionRecord{
			RequestID:  req.ID,
			Kind:       def.ExecutionKind,
			ActorID:    actor.ID,
			ExecutedAt: executedAt,
			Notes:      conf.Notes,
		}
		if err := s.executionRepo.Create(txCtx, rec); err != nil {
			return err
		}

		expectedVersion := req.Version
		prevStatus = req.Status
		now := time.Now()

		tr := seq.Advance(idx)
		req.Status = tr.NewStatus
		req.CurrentStep = tr.NextStep
		if tr.Terminal {
			if err := s.freezeTerminal(req, now); err != nil {
				return err
			}
		}

		if err := s.stepRepo.MarkDecided(txCtx, step.ID, approval.DecisionConfirmed, actor.ID, conf.Notes, now); err != nil {
			return err
		}
		if err := s.requestRepo.UpdateTransition(txCtx, req, expectedVersion); err != nil {
			return err
		}
		entry := &approval.HistoryEntry{
			RequestID:      req.ID,
			Action:         approval.ActionConfirm,
			ActorID:        actor.ID,
			PreviousStatus: prevStatus,
			NewStatus:      req.Status,
			Snapshot:       snapshot(map[string]interface{}{"stage": def.Stage, "kind": def.ExecutionKind, "executed_at": executedAt}),
			Timestamp:      now,
		}
		return s.historyRepo.Create(txCtx, entry)
	})
	if err != nil {
		if !expectedEngineError(err) {
			s.logger.Error("Failed to confirm execution", "error", err, "id", id)
		}
		return nil, err
	}

	s.logger.Info("Execution confirmed",
		"id", req.ID, "number", req.Number,
		"previous_status", prevStatus, "status", req.Status)
	s.emitStatusChanged(ctx, req, prevStatus)
	return req, nil
}

// Cancel terminates a request at its owner's demand. Permitted from submission
// through the last decision stage; execution-stage and terminal requests stay.
func (s *approvalServiceImpl) Cancel(ctx context.Context, id int64, memberID string) (*approval.Request, error) {
	var req *approval.Request
	var prevStatus approval.Status
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if req.IsTerminal() {
			return fmt.Errorf("%w: request %s is %s", approval.ErrInvalidState, req.Number, req.Status)
		}
		if req.MemberID != memberID {
			return fmt.Errorf("%w: only the requesting member may cancel", approval.ErrForbidden)
		}

		seq, err := workflow.SequenceFor(req.Type)
		if err != nil {
			return err
		}
		if !seq.Cancellable(req.CurrentStep) {
			return fmt.Errorf("%w: request %s is past the decision stages", approval.ErrInvalidState, req.Number)
		}

		expectedVersion := req.Version
		prevStatus = req.Status
		now := time.Now()
		req.Status = approval.StatusCancelled
		req.CurrentStep = nil

		if err := s.requestRepo.UpdateTransition(txCtx, req, expectedVersion); err != nil {
			return err
		}
		entry := &approval.HistoryEntry{
			RequestID:      req.ID,
			Action:         approval.ActionCancel,
			ActorID:        memberID,
			PreviousStatus: prevStatus,
			NewStatus:      req.Status,
			Timestamp:      now,
		}
		return s.historyRepo.Create(txCtx, entry)
	})
	if err != nil {
		if !expectedEngineError(err) {
			s.logger.Error("Failed to cancel request", "error", err, "id", id)
		}
		return nil, err
	}

	s.logger.Info("Request cancelled", "id", req.ID, "number", req.Number, "previous_status", prevStatus)
	s.emitStatusChanged(ctx, req, prevStatus)
	return req, nil
}

// Revise overwrites a loan's monetary terms in place while it sits at the
// first decision stage, recomputes the figures, and logs the change. Status
// and current step stay untouched.
func (s *approvalServiceImpl) Revise(ctx context.Context, id int64, actor approval.Actor, rev approval.LoanRevision, notes string) (*approval.Request, error) {
	var req *approval.Request
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if req.Type != approval.TypeLoan {
			return fmt.Errorf("%w: only loans can be revised", approval.ErrRevisionNotAllowed)
		}
		if req.CurrentStep == nil || *req.CurrentStep != approval.StageDSP {
			return fmt.Errorf("%w: loan %s is past the first decision stage", approval.ErrRevisionNotAllowed, req.Number)
		}
		if req.Status != approval.StatusUnderReviewDSP {
			return fmt.Errorf("%w: loan %s is %s", approval.ErrRevisionNotAllowed, req.Number, req.Status)
		}
		if actor.Role != approval.RoleDSP {
			return fmt.Errorf("%w: revision requires role %s", approval.ErrForbidden, approval.RoleDSP)
		}

		params, ok := req.Params.(approval.LoanParams)
		if !ok {
			return fmt.Errorf("%w: loan %s carries malformed parameters", approval.ErrValidation, req.Number)
		}
		revised, err := rev.ApplyTo(params)
		if err != nil {
			return err
		}
		figures, err := s.computeFigures(revised)
		if err != nil {
			return err
		}

		expectedVersion := req.Version
		now := time.Now()
		req.Params = revised
		req.Figures = figures
		req.RevisionCount++
		req.LastRevisedAt = &now
		req.LastRevisedBy = actor.ID
		req.RevisionNotes = notes

		if err := s.requestRepo.UpdateRevision(txCtx, req, expectedVersion); err != nil {
			return err
		}
		entry := &approval.HistoryEntry{
			RequestID:      req.ID,
			Action:         approval.ActionRevise,
			ActorID:        actor.ID,
			PreviousStatus: req.Status,
			NewStatus:      req.Status,
			Snapshot:       snapshot(map[string]interface{}{"params": revised, "figures": figures, "notes": notes}),
			Timestamp:      now,
		}
		return s.historyRepo.Create(txCtx, entry)
	})
	if err != nil {
		if !expectedEngineError(err) {
			s.logger.Error("Failed to revise loan", "error", err, "id", id)
		}
		return nil, err
	}

	s.logger.Info("Loan revised", "id", req.ID, "number", req.Number, "revision_count", req.RevisionCount)
	s.emit(ctx, event.New(event.TypeRequestRevised, req.ID, req.Number, map[string]interface{}{
		"revision_count": req.RevisionCount,
		"revised_by":     req.LastRevisedBy,
	}))
	return req, nil
}

// computeFigures runs the Calculator for the request type
func (s *approvalServiceImpl) computeFigures(params approval.Params) (approval.Figures, error) {
	switch p := params.(type) {
	case approval.LoanParams:
		sched, err := finance.LoanInstallment(p.Principal(), p.AnnualRatePct, p.TenorMonths)
		if err != nil {
			return nil, err
		}
		return approval.LoanFigures{
			MonthlyInstallment: sched.MonthlyInstallment,
			TotalInterest:      sched.TotalInterest,
			TotalRepayment:     sched.TotalRepayment,
		}, nil

	case approval.DepositParams:
		proj, err := finance.DepositProjection(p.MonthlyAmount, p.TenorMonths, p.AnnualRatePct, p.Method)
		if err != nil {
			return nil, err
		}
		return approval.DepositFigures{
			TotalDeposits:     proj.TotalDeposits,
			ProjectedInterest: proj.ProjectedInterest,
			TotalReturn:       proj.TotalReturn,
		}, nil

	case approval.DepositChangeParams:
		delta, err := finance.DepositChangeDelta(p.Current, p.Proposed, s.cfg.AdminFee)
		if err != nil {
			return nil, err
		}
		return approval.DepositChangeFigures{
			PrincipalDelta:   delta.PrincipalDelta,
			TenorDeltaMonths: delta.TenorDeltaMonths,
			InterestDelta:    delta.InterestDelta,
			TotalReturnDelta: delta.TotalReturnDelta,
			AdminFee:         delta.AdminFee,
		}, nil

	case approval.WithdrawalParams:
		rate := p.PenaltyRatePct
		if rate.IsZero() {
			rate = s.cfg.DefaultPenaltyRatePct
		}
		pen, err := finance.WithdrawalPenalty(p.Amount, p.BeforeMaturity, rate)
		if err != nil {
			return nil, err
		}
		return approval.WithdrawalFigures{
			PenaltyAmount: pen.PenaltyAmount,
			NetAmount:     pen.NetAmount,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported parameter type %T", approval.ErrValidation, params)
	}
}

// freezeTerminal stamps the success timestamp and recomputes final figures
func (s *approvalServiceImpl) freezeTerminal(req *approval.Request, now time.Time) error {
	figures, err := s.computeFigures(req.Params)
	if err != nil {
		return err
	}
	req.Figures = figures

	switch req.Status {
	case approval.StatusCompleted:
		req.CompletedAt = &now
	default:
		req.ApprovedAt = &now
	}

	// Activated deposits get a maturity date for the watcher
	if p, ok := req.Params.(approval.DepositParams); ok {
		maturesAt := now.AddDate(0, p.TenorMonths, 0)
		req.MaturesAt = &maturesAt
	}
	return nil
}

func (s *approvalServiceImpl) emitStatusChanged(ctx context.Context, req *approval.Request, prev approval.Status) {
	s.emit(ctx, event.New(event.TypeStatusChanged, req.ID, req.Number, map[string]interface{}{
		"previous_status": prev.String(),
		"new_status":      req.Status.String(),
	}))
}

func (s *approvalServiceImpl) emit(ctx context.Context, evt *event.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(ctx, evt)
}

// expectedEngineError reports whether an error is a user-facing condition
// rather than a system fault
func expectedEngineError(err error) bool {
	return errors.Is(err, approval.ErrNotFound) ||
		errors.Is(err, approval.ErrInvalidState) ||
		errors.Is(err, approval.ErrForbidden) ||
		errors.Is(err, approval.ErrAlreadyConfirmed) ||
		errors.Is(err, approval.ErrRevisionNotAllowed) ||
		errors.Is(err, approval.ErrValidation)
}

// snapshot serializes mutated fields for the audit trail
func snapshot(fields map[string]interface{}) string {
	b, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(b)
}
