package workflow

import (
	"errors"
	"testing"

	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

func stagePtr(s approval.Stage) *approval.Stage { return &s }

func TestGate(t *testing.T) {
	seq, _ := SequenceFor(approval.TypeLoan)

	tests := []struct {
		name    string
		current *approval.Stage
		role    approval.Role
		kind    approval.StepKind
		wantErr error
	}{
		{"authorized decision", stagePtr(approval.StageDSP), approval.RoleDSP, approval.KindDecision, nil},
		{"authorized execution", stagePtr(approval.StageDisbursement), approval.RoleDSP, approval.KindExecution, nil},
		{"no pending stage", nil, approval.RoleDSP, approval.KindDecision, approval.ErrInvalidState},
		{"foreign stage", stagePtr(approval.StageShopkeeper), approval.RoleShopkeeper, approval.KindExecution, approval.ErrInvalidState},
		{"decision on execution stage", stagePtr(approval.StageDisbursement), approval.RoleDSP, approval.KindDecision, approval.ErrInvalidState},
		{"execution on decision stage", stagePtr(approval.StageKetua), approval.RoleKetua, approval.KindExecution, approval.ErrInvalidState},
		{"wrong role", stagePtr(approval.StageKetua), approval.RoleDSP, approval.KindDecision, approval.ErrForbidden},
		{"member role string", stagePtr(approval.StagePengawas), approval.Role("MEMBER"), approval.KindDecision, approval.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, idx, err := seq.Gate(tt.current, tt.role, tt.kind)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Gate() error = %v", err)
				}
				if def.Stage != *tt.current {
					t.Errorf("Gate() stage = %s, want %s", def.Stage, *tt.current)
				}
				if idx < 0 {
					t.Errorf("Gate() idx = %d, want >= 0", idx)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Gate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdvance_WalksForward(t *testing.T) {
	seq, _ := SequenceFor(approval.TypeLoan)

	wantNext := []struct {
		status approval.Status
		step   approval.Stage
	}{
		{approval.StatusUnderReviewKetua, approval.StageKetua},
		{approval.StatusUnderReviewPengawas, approval.StagePengawas},
		{approval.StatusAwaitingDisbursement, approval.StageDisbursement},
		{approval.StatusAwaitingAuthorization, approval.StageAuthorization},
	}

	for i, want := range wantNext {
		tr := seq.Advance(i)
		if tr.Terminal {
			t.Fatalf("Advance(%d) terminal, want next stage %s", i, want.step)
		}
		if tr.NewStatus != want.status {
			t.Errorf("Advance(%d) status = %s, want %s", i, tr.NewStatus, want.status)
		}
		if tr.NextStep == nil || *tr.NextStep != want.step {
			t.Errorf("Advance(%d) next step = %v, want %s", i, tr.NextStep, want.step)
		}
	}
}

func TestAdvance_LastStageIsTerminal(t *testing.T) {
	tests := []struct {
		reqType approval.Type
		want    approval.Status
	}{
		{approval.TypeLoan, approval.StatusActive},
		{approval.TypeDeposit, approval.StatusActive},
		{approval.TypeDepositChange, approval.StatusApplied},
		{approval.TypeWithdrawal, approval.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.reqType), func(t *testing.T) {
			seq, _ := SequenceFor(tt.reqType)
			tr := seq.Advance(seq.Len() - 1)
			if !tr.Terminal {
				t.Fatal("Advance() at last stage not terminal")
			}
			if tr.NewStatus != tt.want {
				t.Errorf("Advance() status = %s, want %s", tr.NewStatus, tt.want)
			}
			if tr.NextStep != nil {
				t.Errorf("Advance() next step = %s, want nil", *tr.NextStep)
			}
			if !tr.NewStatus.IsTerminal() {
				t.Errorf("success status %s is not terminal", tr.NewStatus)
			}
		})
	}
}

func TestCancellable(t *testing.T) {
	seq, _ := SequenceFor(approval.TypeLoan)

	tests := []struct {
		name    string
		current *approval.Stage
		want    bool
	}{
		{"first decision stage", stagePtr(approval.StageDSP), true},
		{"mid decision stage", stagePtr(approval.StagePengawas), true},
		{"execution stage", stagePtr(approval.StageDisbursement), false},
		{"final execution stage", stagePtr(approval.StageAuthorization), false},
		{"no pending stage", nil, false},
		{"foreign stage", stagePtr(approval.StageShopkeeper), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := seq.Cancellable(tt.current); got != tt.want {
				t.Errorf("Cancellable() = %v, want %v", got, tt.want)
			}
		})
	}
}
