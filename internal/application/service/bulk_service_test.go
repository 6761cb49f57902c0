package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/koperasidigital/simpanpinjam/internal/domain/approval"
)

type mockApprovalService struct {
	mu         sync.Mutex
	decideFunc func(ctx context.Context, id int64, actor approval.Actor, decision approval.Decision, notes string) (*approval.Request, error)
	decided    []int64
}

func (m *mockApprovalService) Submit(ctx context.Context, draft SubmitDraft) (*approval.Request, error) {
	return nil, nil
}

func (m *mockApprovalService) Decide(ctx context.Context, id int64, actor approval.Actor, decision approval.Decision, notes string) (*approval.Request, error) {
	m.mu.Lock()
	m.decided = append(m.decided, id)
	m.mu.Unlock()
	if m.decideFunc != nil {
		return m.decideFunc(ctx, id, actor, decision, notes)
	}
	return &approval.Request{ID: id}, nil
}

func (m *mockApprovalService) ConfirmExecution(ctx context.Context, id int64, actor approval.Actor, conf ExecutionConfirmation) (*approval.Request, error) {
	return nil, nil
}

func (m *mockApprovalService) Cancel(ctx context.Context, id int64, memberID string) (*approval.Request, error) {
	return nil, nil
}

func (m *mockApprovalService) Revise(ctx context.Context, id int64, actor approval.Actor, rev approval.LoanRevision, notes string) (*approval.Request, error) {
	return nil, nil
}

func TestBulkDecide_MixedOutcome(t *testing.T) {
	approvals := &mockApprovalService{
		decideFunc: func(ctx context.Context, id int64, actor approval.Actor, decision approval.Decision, notes string) (*approval.Request, error) {
			// ids 2 and 4 sit in a terminal state
			if id == 2 || id == 4 {
				return nil, fmt.Errorf("%w: request is REJECTED", approval.ErrInvalidState)
			}
			return &approval.Request{ID: id}, nil
		},
	}
	svc := NewBulkService(approvals, 2, &mockLogger{})

	ids := []int64{1, 2, 3, 4, 5}
	result, err := svc.BulkDecide(context.Background(), ids, approval.Actor{ID: "S-2", Role: approval.RoleKetua}, approval.DecisionApproved, "batch ok")
	if err != nil {
		t.Fatalf("BulkDecide() error = %v", err)
	}

	if result.BatchID == "" {
		t.Error("batch id not assigned")
	}
	wantOK := []int64{1, 3, 5}
	if len(result.Succeeded) != len(wantOK) {
		t.Fatalf("Succeeded = %v, want %v", result.Succeeded, wantOK)
	}
	for i, id := range wantOK {
		if result.Succeeded[i] != id {
			t.Errorf("Succeeded[%d] = %d, want %d", i, result.Succeeded[i], id)
		}
	}
	if len(result.Failed) != 2 {
		t.Fatalf("Failed = %v, want 2 items", result.Failed)
	}
	if result.Failed[0].ID != 2 || result.Failed[1].ID != 4 {
		t.Errorf("Failed ids = %d, %d, want 2, 4", result.Failed[0].ID, result.Failed[1].ID)
	}
	if result.Failed[0].Reason == "" {
		t.Error("failure reason is empty")
	}
}

func TestBulkDecide_AllItemsProcessed(t *testing.T) {
	approvals := &mockApprovalService{}
	svc := NewBulkService(approvals, 3, &mockLogger{})

	ids := []int64{10, 11, 12, 13, 14, 15, 16, 17}
	result, err := svc.BulkDecide(context.Background(), ids, approval.Actor{ID: "S-1", Role: approval.RoleDSP}, approval.DecisionRejected, "expired batch")
	if err != nil {
		t.Fatalf("BulkDecide() error = %v", err)
	}

	if len(approvals.decided) != len(ids) {
		t.Errorf("decided %d items, want %d", len(approvals.decided), len(ids))
	}
	// order of submission is preserved in the result regardless of worker interleaving
	for i, id := range ids {
		if result.Succeeded[i] != id {
			t.Errorf("Succeeded[%d] = %d, want %d", i, result.Succeeded[i], id)
		}
	}
}

func TestBulkDecide_Validation(t *testing.T) {
	svc := NewBulkService(&mockApprovalService{}, 0, &mockLogger{})
	actor := approval.Actor{ID: "S-2", Role: approval.RoleKetua}

	if _, err := svc.BulkDecide(context.Background(), nil, actor, approval.DecisionApproved, ""); !errors.Is(err, approval.ErrValidation) {
		t.Errorf("empty ids: error = %v, want ErrValidation", err)
	}
	if _, err := svc.BulkDecide(context.Background(), []int64{1}, actor, approval.DecisionConfirmed, ""); !errors.Is(err, approval.ErrValidation) {
		t.Errorf("CONFIRMED decision: error = %v, want ErrValidation", err)
	}
}
