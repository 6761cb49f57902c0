package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

// In-memory fakes in the repositories' contract. Func fields allow per-test
// overrides; the defaults behave like the real store.

type memStore struct {
	requests map[int64]*approval.Request
	versions map[int64]int64
	steps    []*approval.ApprovalStep
	records  []*approval.ExecutionRecord
	history  []*approval.HistoryEntry
	nextReq  int64
	nextStep int64
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[int64]*approval.Request),
		versions: make(map[int64]int64),
	}
}

type mockRequestRepo struct {
	store      *memStore
	createFunc func(ctx context.Context, req *approval.Request) error
}

func (m *mockRequestRepo) Create(ctx context.Context, req *approval.Request) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	m.store.nextReq++
	req.ID = m.store.nextReq
	req.Number = fmt.Sprintf("%s-202601-%04d", req.Type.NumberPrefix(), req.ID)
	m.store.requests[req.ID] = req
	m.store.versions[req.ID] = req.Version
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*approval.Request, error) {
	req, ok := m.store.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: request %d", approval.ErrNotFound, id)
	}
	return req, nil
}

func (m *mockRequestRepo) GetByNumber(ctx context.Context, number string) (*approval.Request, error) {
	for _, req := range m.store.requests {
		if req.Number == number {
			return req, nil
		}
	}
	return nil, fmt.Errorf("%w: request %s", approval.ErrNotFound, number)
}

func (m *mockRequestRepo) List(ctx context.Context, filter port.RequestFilter) ([]*approval.Request, error) {
	out := make([]*approval.Request, 0, len(m.store.requests))
	for _, req := range m.store.requests {
		out = append(out, req)
	}
	return out, nil
}

func (m *mockRequestRepo) UpdateTransition(ctx context.Context, req *approval.Request, expectedVersion int64) error {
	if m.store.versions[req.ID] != expectedVersion {
		return fmt.Errorf("%w: request %d version moved", approval.ErrConflict, req.ID)
	}
	m.store.versions[req.ID] = expectedVersion + 1
	req.Version = expectedVersion + 1
	return nil
}

func (m *mockRequestRepo) UpdateRevision(ctx context.Context, req *approval.Request, expectedVersion int64) error {
	return m.UpdateTransition(ctx, req, expectedVersion)
}

func (m *mockRequestRepo) ListMaturedDeposits(ctx context.Context, asOf time.Time, limit int) ([]*approval.Request, error) {
	return nil, nil
}

func (m *mockRequestRepo) MarkMaturityNotified(ctx context.Context, id int64, at time.Time) error {
	return nil
}

type mockStepRepo struct {
	store *memStore
}

func (m *mockStepRepo) CreateAll(ctx context.Context, steps []*approval.ApprovalStep) error {
	for _, step := range steps {
		m.store.nextStep++
		step.ID = m.store.nextStep
		m.store.steps = append(m.store.steps, step)
	}
	return nil
}

func (m *mockStepRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*approval.ApprovalStep, error) {
	var out []*approval.ApprovalStep
	for _, step := range m.store.steps {
		if step.RequestID == requestID {
			out = append(out, step)
		}
	}
	return out, nil
}

func (m *mockStepRepo) GetPending(ctx context.Context, requestID int64, stage approval.Stage) (*approval.ApprovalStep, error) {
	for _, step := range m.store.steps {
		if step.RequestID == requestID && step.Stage == stage && !step.IsDecided() {
			return step, nil
		}
	}
	return nil, fmt.Errorf("%w: no pending step at stage %s", approval.ErrInvalidState, stage)
}

func (m *mockStepRepo) MarkDecided(ctx context.Context, id int64, decision approval.Decision, actorID, notes string, decidedAt time.Time) error {
	for _, step := range m.store.steps {
		if step.ID == id {
			if step.IsDecided() {
				return fmt.Errorf("%w: step %d already decided", approval.ErrInvalidState, id)
			}
			step.Decision = &decision
			step.ActorID = actorID
			step.Notes = notes
			step.DecidedAt = &decidedAt
			return nil
		}
	}
	return fmt.Errorf("%w: step %d", approval.ErrNotFound, id)
}

type mockExecutionRepo struct {
	store *memStore
}

func (m *mockExecutionRepo) Create(ctx context.Context, rec *approval.ExecutionRecord) error {
	for _, existing := range m.store.records {
		if existing.RequestID == rec.RequestID && existing.Kind == rec.Kind {
			return fmt.Errorf("%w: %s already recorded for request %d", approval.ErrAlreadyConfirmed, rec.Kind, rec.RequestID)
		}
	}
	rec.ID = int64(len(m.store.records) + 1)
	m.store.records = append(m.store.records, rec)
	return nil
}

func (m *mockExecutionRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*approval.ExecutionRecord, error) {
	var out []*approval.ExecutionRecord
	for _, rec := range m.store.records {
		if rec.RequestID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type mockHistoryRepo struct {
	store      *memStore
	createFunc func(ctx context.Context, entry *approval.HistoryEntry) error
}

func (m *mockHistoryRepo) Create(ctx context.Context, entry *approval.HistoryEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	entry.ID = int64(len(m.store.history) + 1)
	m.store.history = append(m.store.history, entry)
	return nil
}

func (m *mockHistoryRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*approval.HistoryEntry, error) {
	var out []*approval.HistoryEntry
	for _, entry := range m.store.history {
		if entry.RequestID == requestID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type fixture struct {
	store *memStore
	svc   ApprovalService
}

func newFixture() *fixture {
	store := newMemStore()
	svc := NewApprovalService(
		&mockRequestRepo{store: store},
		&mockStepRepo{store: store},
		&mockExecutionRepo{store: store},
		&mockHistoryRepo{store: store},
		&mockTxManager{},
		nil,
		EngineConfig{AdminFee: decimal.NewFromInt(25000)},
		&mockLogger{},
	)
	return &fixture{store: store, svc: svc}
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func cashLoan() approval.LoanParams {
	return approval.LoanParams{
		Subtype:       approval.LoanCash,
		Amount:        d("12000000"),
		TenorMonths:   12,
		AnnualRatePct: d("12"),
	}
}

func submitLoan(t *testing.T, f *fixture) *approval.Request {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), SubmitDraft{
		Type:     approval.TypeLoan,
		MemberID: "M-001",
		Params:   cashLoan(),
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return req
}

func TestSubmit_Loan(t *testing.T) {
	f := newFixture()
	req := submitLoan(t, f)

	if req.Status != approval.StatusUnderReviewDSP {
		t.Errorf("Status = %s, want UNDER_REVIEW_DSP", req.Status)
	}
	if req.CurrentStep == nil || *req.CurrentStep != approval.StageDSP {
		t.Errorf("CurrentStep = %v, want DSP", req.CurrentStep)
	}
	if req.Number == "" {
		t.Error("Number not assigned")
	}

	figures, ok := req.Figures.(approval.LoanFigures)
	if !ok {
		t.Fatalf("Figures type = %T, want LoanFigures", req.Figures)
	}
	if !figures.MonthlyInstallment.Equal(d("1120000")) {
		t.Errorf("MonthlyInstallment = %s, want 1120000", figures.MonthlyInstallment)
	}
	if !figures.TotalInterest.Equal(d("1440000")) {
		t.Errorf("TotalInterest = %s, want 1440000", figures.TotalInterest)
	}
	if !figures.TotalRepayment.Equal(d("13440000")) {
		t.Errorf("TotalRepayment = %s, want 13440000", figures.TotalRepayment)
	}

	if len(f.store.steps) != 5 {
		t.Errorf("created %d steps, want 5", len(f.store.steps))
	}
	if len(f.store.history) != 1 || f.store.history[0].Action != approval.ActionSubmit {
		t.Errorf("expected one SUBMIT history entry, got %d", len(f.store.history))
	}
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		draft SubmitDraft
	}{
		{"unknown type", SubmitDraft{Type: "MORTGAGE", MemberID: "M-001", Params: cashLoan()}},
		{"missing member", SubmitDraft{Type: approval.TypeLoan, Params: cashLoan()}},
		{"missing params", SubmitDraft{Type: approval.TypeLoan, MemberID: "M-001"}},
		{"shape mismatch", SubmitDraft{Type: approval.TypeDeposit, MemberID: "M-001", Params: cashLoan()}},
		{
			"invalid params",
			SubmitDraft{Type: approval.TypeLoan, MemberID: "M-001", Params: approval.LoanParams{Subtype: approval.LoanCash}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Submit(ctx, tt.draft); !errors.Is(err, approval.ErrValidation) {
				t.Errorf("Submit() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestDecide_FullLoanLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := submitLoan(t, f)

	type action struct {
		actor  approval.Actor
		status approval.Status
		step   *approval.Stage
	}
	ketua := stagePtr(approval.StageKetua)
	pengawas := stagePtr(approval.StagePengawas)
	disb := stagePtr(approval.StageDisbursement)
	auth := stagePtr(approval.StageAuthorization)

	decisions := []action{
		{approval.Actor{ID: "S-1", Role: approval.RoleDSP}, approval.StatusUnderReviewKetua, ketua},
		{approval.Actor{ID: "S-2", Role: approval.RoleKetua}, approval.StatusUnderReviewPengawas, pengawas},
		{approval.Actor{ID: "S-3", Role: approval.RolePengawas}, approval.StatusAwaitingDisbursement, disb},
	}

	for i, step := range decisions {
		got, err := f.svc.Decide(ctx, req.ID, step.actor, approval.DecisionApproved, "ok")
		if err != nil {
			t.Fatalf("Decide() %d error = %v", i, err)
		}
		if got.Status != step.status {
			t.Fatalf("decision %d: status = %s, want %s", i, got.Status, step.status)
		}
		if got.CurrentStep == nil || *got.CurrentStep != *step.step {
			t.Fatalf("decision %d: current step = %v, want %s", i, got.CurrentStep, *step.step)
		}
	}

	got, err := f.svc.ConfirmExecution(ctx, req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, ExecutionConfirmation{Notes: "funds released"})
	if err != nil {
		t.Fatalf("ConfirmExecution(disbursement) error = %v", err)
	}
	if got.Status != approval.StatusAwaitingAuthorization {
		t.Fatalf("status after disbursement = %s, want AWAITING_AUTHORIZATION", got.Status)
	}
	if got.CurrentStep == nil || *got.CurrentStep != *auth {
		t.Fatalf("current step = %v, want AUTHORIZATION", got.CurrentStep)
	}

	got, err = f.svc.ConfirmExecution(ctx, req.ID, approval.Actor{ID: "S-2", Role: approval.RoleKetua}, ExecutionConfirmation{})
	if err != nil {
		t.Fatalf("ConfirmExecution(authorization) error = %v", err)
	}
	if got.Status != approval.StatusActive {
		t.Errorf("final status = %s, want ACTIVE", got.Status)
	}
	if got.CurrentStep != nil {
		t.Errorf("terminal request still has current step %s", *got.CurrentStep)
	}
	if got.ApprovedAt == nil {
		t.Error("ApprovedAt not stamped on activation")
	}
	if len(f.store.records) != 2 {
		t.Errorf("execution records = %d, want 2", len(f.store.records))
	}
}

func TestDecide_RoleGating(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := submitLoan(t, f)

	// the request sits at DSP; every other role must be rejected
	for _, role := range []approval.Role{approval.RoleKetua, approval.RolePengawas, approval.RoleShopkeeper, approval.Role("MEMBER")} {
		_, err := f.svc.Decide(ctx, req.ID, approval.Actor{ID: "X", Role: role}, approval.DecisionApproved, "ok")
		if !errors.Is(err, approval.ErrForbidden) {
			t.Errorf("role %s: error = %v, want ErrForbidden", role, err)
		}
	}

	// the request must not have moved
	if f.store.requests[req.ID].Status != approval.StatusUnderReviewDSP {
		t.Errorf("status moved to %s after forbidden attempts", f.store.requests[req.ID].Status)
	}
}

func TestDecide_TerminalImmutability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := submitLoan(t, f)

	if _, err := f.svc.Decide(ctx, req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, approval.DecisionRejected, "incomplete documents"); err != nil {
		t.Fatalf("Decide(reject) error = %v", err)
	}

	_, err := f.svc.Decide(ctx, req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, approval.DecisionApproved, "ok")
	if !errors.Is(err, approval.ErrInvalidState) {
		t.Errorf("decide on rejected request: error = %v, want ErrInvalidState", err)
	}

	_, err = f.svc.Cancel(ctx, req.ID, "M-001")
	if !errors.Is(err, approval.ErrInvalidState) {
		t.Errorf("cancel rejected request: error = %v, want ErrInvalidState", err)
	}
}

func TestDecide_RejectionRequiresReason(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := submitLoan(t, f)

	_, err := f.svc.Decide(ctx, req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, approval.DecisionRejected, "")
	if !errors.Is(err, approval.ErrValidation) {
		t.Fatalf("reject without reason: error = %v, want ErrValidation", err)
	}

	got, err := f.svc.Decide(ctx, req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, approval.DecisionRejected, "income not verifiable")
	if err != nil {
		t.Fatalf("Decide(reject) error = %v", err)
	}
	if got.Status != approval.StatusRejected {
		t.Errorf("status = %s, want REJECTED", got.Status)
	}
	if got.RejectedAt == nil {
		t.Error("RejectedAt not stamped")
	}
	if got.RejectionReason != "income not verifiable" {
		t.Errorf("RejectionReason = %q", got.RejectionReason)
	}
}

func TestDecide_InvalidDecisionValue(t *testing.T) {
	f := newFixture()
	req := submitLoan(t, f)

	_, err := f.svc.Decide(context.Background(), req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, approval.Decision("MAYBE"), "")
	if !errors.Is(err, approval.ErrValidation) {
		t.Errorf("Decide() error = %v, want ErrValidation", err)
	}
}

func TestConfirmExecution_OnDecisionStage(t *testing.T) {
	f := newFixture()
	req := submitLoan(t, f)

	_, err := f.svc.ConfirmExecution(context.Background(), req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, ExecutionConfirmation{})
	if !errors.Is(err, approval.ErrInvalidState) {
		t.Errorf("confirm at decision stage: error = %v, want ErrInvalidState", err)
	}
}

func TestConfirmExecution_Duplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := submitLoan(t, f)

	for _, a := range []approval.Actor{
		{ID: "S-1", Role: approval.RoleDSP},
		{ID: "S-2", Role: approval.RoleKetua},
		{ID: "S-3", Role: approval.RolePengawas},
	} {
		if _, err := f.svc.Decide(ctx, req.ID, a, approval.DecisionApproved, "ok"); err != nil {
			t.Fatalf("Decide() error = %v", err)
		}
	}

	// force a second disbursement record for the same request
	dup := &approval.ExecutionRecord{RequestID: req.ID, Kind: approval.ExecutionDisbursement, ActorID: "S-1", ExecutedAt: time.Now()}
	if err := (&mockExecutionRepo{store: f.store}).Create(ctx, dup); err != nil {
		t.Fatalf("first record error = %v", err)
	}

	_, err := f.svc.ConfirmExecution(ctx, req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, ExecutionConfirmation{})
	if !errors.Is(err, approval.ErrAlreadyConfirmed) {
		t.Errorf("duplicate confirmation: error = %v, want ErrAlreadyConfirmed", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := submitLoan(t, f)

	// wrong member
	if _, err := f.svc.Cancel(ctx, req.ID, "M-999"); !errors.Is(err, approval.ErrForbidden) {
		t.Errorf("foreign member cancel: error = %v, want ErrForbidden", err)
	}

	got, err := f.svc.Cancel(ctx, req.ID, "M-001")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if got.Status != approval.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if got.CurrentStep != nil {
		t.Errorf("cancelled request still has current step")
	}
}

func TestCancel_PastDecisionStages(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := submitLoan(t, f)

	for _, a := range []approval.Actor{
		{ID: "S-1", Role: approval.RoleDSP},
		{ID: "S-2", Role: approval.RoleKetua},
		{ID: "S-3", Role: approval.RolePengawas},
	} {
		if _, err := f.svc.Decide(ctx, req.ID, a, approval.DecisionApproved, "ok"); err != nil {
			t.Fatalf("Decide() error = %v", err)
		}
	}

	// now awaiting disbursement; the member can no longer withdraw the request
	if _, err := f.svc.Cancel(ctx, req.ID, "M-001"); !errors.Is(err, approval.ErrInvalidState) {
		t.Errorf("cancel at execution stage: error = %v, want ErrInvalidState", err)
	}
}

func TestRevise(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := submitLoan(t, f)

	got, err := f.svc.Revise(ctx, req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP},
		approval.LoanRevision{Amount: d("10000000"), TenorMonths: 10}, "reduced per member request")
	if err != nil {
		t.Fatalf("Revise() error = %v", err)
	}

	if got.RevisionCount != 1 {
		t.Errorf("RevisionCount = %d, want 1", got.RevisionCount)
	}
	if got.Status != approval.StatusUnderReviewDSP {
		t.Errorf("revision moved status to %s", got.Status)
	}
	params := got.Params.(approval.LoanParams)
	if !params.Amount.Equal(d("10000000")) || params.TenorMonths != 10 {
		t.Errorf("params not revised: %+v", params)
	}
	figures := got.Figures.(approval.LoanFigures)
	// 10,000,000 at 12% over 10 months: interest 1,000,000, monthly 1,100,000
	if !figures.TotalInterest.Equal(d("1000000")) {
		t.Errorf("TotalInterest = %s, want 1000000", figures.TotalInterest)
	}
	if !figures.MonthlyInstallment.Equal(d("1100000")) {
		t.Errorf("MonthlyInstallment = %s, want 1100000", figures.MonthlyInstallment)
	}
}

func TestRevise_Scope(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rev := approval.LoanRevision{Amount: d("10000000"), TenorMonths: 10}
	dsp := approval.Actor{ID: "S-1", Role: approval.RoleDSP}

	// non-loan requests can never be revised
	dep, err := f.svc.Submit(ctx, SubmitDraft{
		Type:     approval.TypeDeposit,
		MemberID: "M-001",
		Params:   approval.DepositParams{MonthlyAmount: d("100000"), TenorMonths: 12, AnnualRatePct: d("6"), Method: approval.MethodSimple},
	})
	if err != nil {
		t.Fatalf("Submit(deposit) error = %v", err)
	}
	if _, err := f.svc.Revise(ctx, dep.ID, dsp, rev, ""); !errors.Is(err, approval.ErrRevisionNotAllowed) {
		t.Errorf("revise deposit: error = %v, want ErrRevisionNotAllowed", err)
	}

	// loans are revisable only at the first decision stage
	loan := submitLoan(t, f)
	if _, err := f.svc.Decide(ctx, loan.ID, dsp, approval.DecisionApproved, "ok"); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if _, err := f.svc.Revise(ctx, loan.ID, dsp, rev, ""); !errors.Is(err, approval.ErrRevisionNotAllowed) {
		t.Errorf("revise past DSP: error = %v, want ErrRevisionNotAllowed", err)
	}

	// and only by the first-stage role
	loan2 := submitLoan(t, f)
	for _, role := range []approval.Role{approval.RoleKetua, approval.RolePengawas, approval.RoleShopkeeper} {
		if _, err := f.svc.Revise(ctx, loan2.ID, approval.Actor{ID: "X", Role: role}, rev, ""); !errors.Is(err, approval.ErrForbidden) {
			t.Errorf("revise as %s: error = %v, want ErrForbidden", role, err)
		}
	}
}

func TestSubmit_DepositActivation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, SubmitDraft{
		Type:     approval.TypeDeposit,
		MemberID: "M-001",
		Params:   approval.DepositParams{MonthlyAmount: d("100000"), TenorMonths: 12, AnnualRatePct: d("6"), Method: approval.MethodCompound},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := f.svc.Decide(ctx, req.ID, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, approval.DecisionApproved, "ok"); err != nil {
		t.Fatalf("Decide(DSP) error = %v", err)
	}
	got, err := f.svc.Decide(ctx, req.ID, approval.Actor{ID: "S-2", Role: approval.RoleKetua}, approval.DecisionApproved, "ok")
	if err != nil {
		t.Fatalf("Decide(KETUA) error = %v", err)
	}

	// final approval auto-activates the deposit and schedules its maturity
	if got.Status != approval.StatusActive {
		t.Errorf("status = %s, want ACTIVE", got.Status)
	}
	if got.MaturesAt == nil {
		t.Fatal("MaturesAt not set on activation")
	}
	if got.ApprovedAt == nil {
		t.Fatal("ApprovedAt not set on activation")
	}
	wantMaturity := got.ApprovedAt.AddDate(0, 12, 0)
	if !got.MaturesAt.Equal(wantMaturity) {
		t.Errorf("MaturesAt = %s, want %s", got.MaturesAt, wantMaturity)
	}
}

func TestSubmit_WithdrawalDefaultPenalty(t *testing.T) {
	f := newFixture()

	req, err := f.svc.Submit(context.Background(), SubmitDraft{
		Type:     approval.TypeWithdrawal,
		MemberID: "M-001",
		Params:   approval.WithdrawalParams{AccountNumber: "SA-0001", Amount: d("1000000"), BeforeMaturity: true},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	figures := req.Figures.(approval.WithdrawalFigures)
	if !figures.PenaltyAmount.Equal(d("30000")) {
		t.Errorf("PenaltyAmount = %s, want 30000", figures.PenaltyAmount)
	}
	if !figures.NetAmount.Equal(d("970000")) {
		t.Errorf("NetAmount = %s, want 970000", figures.NetAmount)
	}
}

func stagePtr(s approval.Stage) *approval.Stage { return &s }
